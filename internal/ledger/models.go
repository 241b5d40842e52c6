package ledger

import (
	"strings"
	"time"

	"reelforge/internal/quality"
)

// AnimationStatus represents the lifecycle of one animation job.
type AnimationStatus string

const (
	StatusPending    AnimationStatus = "pending"
	StatusProcessing AnimationStatus = "processing"
	StatusCompleted  AnimationStatus = "completed"
	StatusFailed     AnimationStatus = "failed"
)

var allStatuses = []AnimationStatus{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []AnimationStatus {
	cp := make([]AnimationStatus, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseAnimationStatus converts a string into a known AnimationStatus.
func ParseAnimationStatus(value string) (AnimationStatus, bool) {
	normalized := AnimationStatus(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transitions are permitted.
func (s AnimationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// MessageType distinguishes user prompts from ai responses.
type MessageType string

const (
	MessageUser MessageType = "user"
	MessageAI   MessageType = "ai"
)

// ParseMessageType converts a string into a known MessageType.
func ParseMessageType(value string) (MessageType, bool) {
	switch MessageType(strings.ToLower(strings.TrimSpace(value))) {
	case MessageUser:
		return MessageUser, true
	case MessageAI:
		return MessageAI, true
	}
	return "", false
}

// Conversation is a persistent thread grouping related animation jobs and
// their user/ai messages.
type Conversation struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Animation is one versioned render job within a conversation.
type Animation struct {
	ID             string
	ConversationID string
	UserID         string
	Query          string
	GeneratedCode  string
	VideoURL       string
	Version        int
	Quality        quality.Tier
	Success        bool
	ErrorMessage   string
	Status         AnimationStatus
	Progress       float64
	StatusMessage  string
	CreatedAt      time.Time
}

// Message is one immutable conversation entry. AnimationID is set only on ai
// messages reporting a render outcome.
type Message struct {
	ID             string
	ConversationID string
	UserID         string
	Content        string
	Type           MessageType
	AnimationID    string
	CreatedAt      time.Time
}

// History is a conversation's full ordered record.
type History struct {
	Conversation *Conversation
	Animations   []*Animation
	Messages     []*Message
}
