package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelforge/internal/quality"
)

const animationColumns = "id, conversation_id, user_id, query, generated_code, video_url, version, quality, success, error_message, status, progress, status_message, created_at"

// versionInsertAttempts bounds the retry loop closing the max(version)+1
// race between concurrent jobs in one conversation. The UNIQUE
// (conversation_id, version) constraint makes the loser retry with a fresh
// read instead of silently writing a duplicate version; lock contention on
// the write transaction retries the same way.
const versionInsertAttempts = 5

// NewAnimation describes the row CreateAnimation inserts.
type NewAnimation struct {
	ConversationID string
	UserID         string
	Query          string
	Quality        quality.Tier
}

// CreateAnimation inserts a pending animation at the conversation's next
// version number.
func (s *Store) CreateAnimation(ctx context.Context, input NewAnimation) (*Animation, error) {
	if strings.TrimSpace(input.ConversationID) == "" {
		return nil, errors.New("conversation id required")
	}
	if strings.TrimSpace(input.UserID) == "" {
		return nil, errors.New("user id required")
	}
	ctx = ensureContext(ctx)

	var lastErr error
	for attempt := 0; attempt < versionInsertAttempts; attempt++ {
		var animation *Animation
		err := retryOnBusy(ctx, func() error {
			var insertErr error
			animation, insertErr = s.insertAnimationOnce(ctx, input)
			return insertErr
		})
		if err == nil {
			return animation, nil
		}
		lastErr = err
		if !isUniqueViolation(err) && !isSQLiteBusy(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("assign animation version: %w", lastErr)
}

func (s *Store) insertAnimationOnce(ctx context.Context, input NewAnimation) (*Animation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin animation tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var maxVersion sql.NullInt64
	err = tx.QueryRowContext(
		ctx,
		`SELECT MAX(version) FROM animations WHERE conversation_id = ?`,
		input.ConversationID,
	).Scan(&maxVersion)
	if err != nil {
		return nil, fmt.Errorf("read max version: %w", err)
	}

	animation := &Animation{
		ID:             uuid.NewString(),
		ConversationID: input.ConversationID,
		UserID:         input.UserID,
		Query:          input.Query,
		Version:        int(maxVersion.Int64) + 1,
		Quality:        input.Quality,
		Status:         StatusPending,
		Progress:       0,
		CreatedAt:      time.Now().UTC(),
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO animations (
            id, conversation_id, user_id, query, generated_code, video_url,
            version, quality, success, error_message, status, progress,
            status_message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		animation.ID,
		animation.ConversationID,
		animation.UserID,
		animation.Query,
		nil,
		nil,
		animation.Version,
		string(animation.Quality),
		0,
		nil,
		string(animation.Status),
		animation.Progress,
		nil,
		formatTime(animation.CreatedAt),
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit animation insert: %w", err)
	}
	return animation, nil
}

// GetAnimation fetches an animation by id, filtered by owner.
func (s *Store) GetAnimation(ctx context.Context, id, userID string) (*Animation, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+animationColumns+` FROM animations WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	animation, err := scanAnimation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get animation: %w", err)
	}
	return animation, nil
}

// AnimationsByConversation returns a conversation's animations ordered by
// creation time.
func (s *Store) AnimationsByConversation(ctx context.Context, conversationID string) ([]*Animation, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+animationColumns+` FROM animations WHERE conversation_id = ? ORDER BY created_at`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query animations: %w", err)
	}
	defer rows.Close()

	var animations []*Animation
	for rows.Next() {
		animation, err := scanAnimation(rows)
		if err != nil {
			return nil, err
		}
		animations = append(animations, animation)
	}
	return animations, rows.Err()
}

// LatestAnimation returns the highest-version animation in a conversation,
// or ErrNotFound when the conversation has none.
func (s *Store) LatestAnimation(ctx context.Context, conversationID, userID string) (*Animation, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+animationColumns+` FROM animations
         WHERE conversation_id = ? AND user_id = ?
         ORDER BY version DESC LIMIT 1`,
		conversationID, userID,
	)
	animation, err := scanAnimation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest animation: %w", err)
	}
	return animation, nil
}

// UpdateAnimationStatus applies one atomic status transition: status,
// progress, and status message change together or not at all. Transitions
// out of terminal states are refused with ErrTerminalState; an unknown id
// reports ErrNotFound.
func (s *Store) UpdateAnimationStatus(ctx context.Context, id string, status AnimationStatus, progress float64, statusMessage string) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE animations SET status = ?, progress = ?, status_message = ?
         WHERE id = ? AND status NOT IN (?, ?)`,
		string(status), progress, nullableString(statusMessage),
		id, string(StatusCompleted), string(StatusFailed),
	)
	if err != nil {
		return fmt.Errorf("update animation status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	return s.classifyMissedUpdate(ctx, id)
}

// CompleteAnimation terminally marks an animation successful: status,
// progress, artifact URL, generated source, and the success flag land in one
// atomic write.
func (s *Store) CompleteAnimation(ctx context.Context, id, videoURL, generatedCode, statusMessage string) error {
	if strings.TrimSpace(videoURL) == "" {
		return errors.New("completed animation requires a video url")
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE animations
         SET status = ?, progress = 100, status_message = ?, video_url = ?,
             generated_code = ?, success = 1, error_message = NULL
         WHERE id = ? AND status NOT IN (?, ?)`,
		string(StatusCompleted), nullableString(statusMessage), videoURL, generatedCode,
		id, string(StatusCompleted), string(StatusFailed),
	)
	if err != nil {
		return fmt.Errorf("complete animation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	return s.classifyMissedUpdate(ctx, id)
}

// FailAnimation terminally marks an animation failed with the given error
// text, resetting progress to zero.
func (s *Store) FailAnimation(ctx context.Context, id, errorMessage string) error {
	if strings.TrimSpace(errorMessage) == "" {
		errorMessage = "animation generation failed"
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE animations
         SET status = ?, progress = 0, status_message = ?, error_message = ?, success = 0
         WHERE id = ? AND status NOT IN (?, ?)`,
		string(StatusFailed), errorMessage, errorMessage,
		id, string(StatusCompleted), string(StatusFailed),
	)
	if err != nil {
		return fmt.Errorf("fail animation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	return s.classifyMissedUpdate(ctx, id)
}

// SetGeneratedCode records provider output on an in-flight animation so a
// later failure still preserves what was generated.
func (s *Store) SetGeneratedCode(ctx context.Context, id, generatedCode string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE animations SET generated_code = ? WHERE id = ?`,
		generatedCode, id,
	)
	if err != nil {
		return fmt.Errorf("set generated code: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) classifyMissedUpdate(ctx context.Context, id string) error {
	var status string
	err := s.db.QueryRowContext(ensureContext(ctx), `SELECT status FROM animations WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("classify missed update: %w", err)
	}
	return fmt.Errorf("%w: %s", ErrTerminalState, status)
}

func scanAnimation(scanner interface{ Scan(dest ...any) error }) (*Animation, error) {
	var (
		id             string
		conversationID string
		userID         string
		query          string
		generatedCode  sql.NullString
		videoURL       sql.NullString
		version        int
		qualityStr     string
		success        int
		errorMessage   sql.NullString
		statusStr      string
		progress       float64
		statusMessage  sql.NullString
		createdRaw     string
	)
	if err := scanner.Scan(
		&id, &conversationID, &userID, &query, &generatedCode, &videoURL,
		&version, &qualityStr, &success, &errorMessage, &statusStr,
		&progress, &statusMessage, &createdRaw,
	); err != nil {
		return nil, err
	}

	animation := &Animation{
		ID:             id,
		ConversationID: conversationID,
		UserID:         userID,
		Query:          query,
		GeneratedCode:  generatedCode.String,
		VideoURL:       videoURL.String,
		Version:        version,
		Quality:        quality.ParseTier(qualityStr),
		Success:        success != 0,
		ErrorMessage:   errorMessage.String,
		Status:         AnimationStatus(statusStr),
		Progress:       progress,
		StatusMessage:  statusMessage.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		animation.CreatedAt = created
	}
	return animation, nil
}
