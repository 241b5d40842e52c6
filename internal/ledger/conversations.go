package ledger

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelforge/internal/textutil"
)

const conversationColumns = "id, user_id, title, created_at, updated_at"

// CreateConversation inserts a fresh conversation. An empty title is derived
// from seedPrompt (first five words) or replaced with a generated name.
func (s *Store) CreateConversation(ctx context.Context, userID, title, seedPrompt string) (*Conversation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user id required")
	}

	id := uuid.New()
	title = strings.TrimSpace(title)
	if title == "" {
		title = textutil.DeriveTitle(seedPrompt)
	}
	if title == "" {
		title = textutil.FallbackName(binary.BigEndian.Uint64(id[:8]))
	}

	now := time.Now().UTC()
	timestamp := formatTime(now)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO conversations (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id.String(), userID, title, timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}

	return &Conversation{ID: id.String(), UserID: userID, Title: title, CreatedAt: now, UpdatedAt: now}, nil
}

// GetConversation fetches a conversation by id, filtered by owner.
func (s *Store) GetConversation(ctx context.Context, id, userID string) (*Conversation, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

// GetOrCreateConversation resolves the conversation a job belongs to. A
// non-empty id must exist and be owned by userID; an empty id creates a new
// conversation titled from seedPrompt.
func (s *Store) GetOrCreateConversation(ctx context.Context, id, userID, seedPrompt string) (*Conversation, error) {
	if strings.TrimSpace(id) != "" {
		return s.GetConversation(ctx, id, userID)
	}
	return s.CreateConversation(ctx, userID, "", seedPrompt)
}

// ListConversations returns a user's conversations ordered by most recent
// activity. limit <= 0 defaults to 100.
func (s *Store) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*Conversation, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+conversationColumns+` FROM conversations WHERE user_id = ? ORDER BY updated_at DESC LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

// RenameConversation updates the title after re-verifying ownership.
func (s *Store) RenameConversation(ctx context.Context, id, userID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("title must not be empty")
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE conversations SET title = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		title, formatTime(time.Now()), id, userID,
	)
	if err != nil {
		return fmt.Errorf("rename conversation: %w", err)
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

// TouchConversation bumps updated_at to reflect new activity.
func (s *Store) TouchConversation(ctx context.Context, id string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

// DeleteConversation removes a conversation and everything it owns, in
// dependency order: messages, then animations, then the conversation row.
// Ownership is re-verified inside the transaction.
func (s *Store) DeleteConversation(ctx context.Context, id, userID string) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin delete tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		var owner string
		err = tx.QueryRowContext(ctx, `SELECT user_id FROM conversations WHERE id = ?`, id).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != userID) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("verify conversation owner: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM animations WHERE conversation_id = ?`, id); err != nil {
			return fmt.Errorf("delete animations: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit delete: %w", err)
		}
		return nil
	})
}

func scanConversation(scanner interface{ Scan(dest ...any) error }) (*Conversation, error) {
	var (
		id         string
		userID     string
		title      sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &userID, &title, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	conv := &Conversation{ID: id, UserID: userID, Title: title.String}
	if created, err := parseTimeString(createdRaw); err == nil {
		conv.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		conv.UpdatedAt = updated
	}
	return conv, nil
}
