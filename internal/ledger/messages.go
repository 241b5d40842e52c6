package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const messageColumns = "id, conversation_id, user_id, content, type, animation_id, created_at"

// NewMessage describes the row CreateMessage inserts.
type NewMessage struct {
	ConversationID string
	UserID         string
	Content        string
	Type           MessageType
	AnimationID    string
}

// CreateMessage appends a chat message to a conversation and bumps the
// conversation's updated_at so listings surface recent activity first.
func (s *Store) CreateMessage(ctx context.Context, input NewMessage) (*Message, error) {
	if strings.TrimSpace(input.ConversationID) == "" {
		return nil, errors.New("conversation id required")
	}
	if _, ok := ParseMessageType(string(input.Type)); !ok {
		return nil, fmt.Errorf("unknown message type %q", input.Type)
	}

	message := &Message{
		ID:             uuid.NewString(),
		ConversationID: input.ConversationID,
		UserID:         input.UserID,
		Content:        input.Content,
		Type:           input.Type,
		AnimationID:    input.AnimationID,
		CreatedAt:      time.Now().UTC(),
	}

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO messages (id, conversation_id, user_id, content, type, animation_id, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		message.ID,
		message.ConversationID,
		message.UserID,
		message.Content,
		string(message.Type),
		nullableString(message.AnimationID),
		formatTime(message.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if err := s.TouchConversation(ctx, message.ConversationID); err != nil {
		return nil, err
	}
	return message, nil
}

// MessagesByConversation returns a conversation's messages in chronological
// order. A non-positive limit falls back to 100.
func (s *Store) MessagesByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*Message, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.queryMessages(ctx, conversationID, limit, offset)
}

// queryMessages runs the message listing query. A limit of -1 is SQLite's
// unbounded limit.
func (s *Store) queryMessages(ctx context.Context, conversationID string, limit, offset int) ([]*Message, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+messageColumns+` FROM messages
         WHERE conversation_id = ? ORDER BY created_at LIMIT ? OFFSET ?`,
		conversationID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

// ConversationHistory assembles a conversation with its animations and all
// of its messages; history is never truncated to a page. Ownership is
// enforced once, on the conversation lookup.
func (s *Store) ConversationHistory(ctx context.Context, conversationID, userID string) (*History, error) {
	conversation, err := s.GetConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	animations, err := s.AnimationsByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	messages, err := s.queryMessages(ctx, conversationID, -1, 0)
	if err != nil {
		return nil, err
	}
	return &History{
		Conversation: conversation,
		Animations:   animations,
		Messages:     messages,
	}, nil
}

func scanMessage(scanner interface{ Scan(dest ...any) error }) (*Message, error) {
	var (
		id             string
		conversationID string
		userID         string
		content        string
		messageType    string
		animationID    sql.NullString
		createdRaw     string
	)
	if err := scanner.Scan(&id, &conversationID, &userID, &content, &messageType, &animationID, &createdRaw); err != nil {
		return nil, err
	}
	message := &Message{
		ID:             id,
		ConversationID: conversationID,
		UserID:         userID,
		Content:        content,
		Type:           MessageType(messageType),
		AnimationID:    animationID.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		message.CreatedAt = created
	}
	return message, nil
}
