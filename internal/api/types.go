package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ConversationView describes a conversation in a transport-friendly format.
type ConversationView struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// AnimationView describes one animation version.
type AnimationView struct {
	ID             string  `json:"id"`
	ConversationID string  `json:"conversation_id"`
	Query          string  `json:"query"`
	GeneratedCode  string  `json:"generated_code,omitempty"`
	VideoURL       string  `json:"video_url,omitempty"`
	Version        int     `json:"version"`
	Quality        string  `json:"quality"`
	Success        bool    `json:"success"`
	ErrorMessage   string  `json:"error_message,omitempty"`
	Status         string  `json:"status"`
	Progress       float64 `json:"progress"`
	StatusMessage  string  `json:"status_message,omitempty"`
	CreatedAt      string  `json:"created_at,omitempty"`
}

// MessageView describes one conversation entry.
type MessageView struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
	Type           string `json:"type"`
	AnimationID    string `json:"animation_id,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// StatusView is the polling payload for an in-flight or finished animation.
// VideoURL is populated only once the animation completed.
type StatusView struct {
	AnimationID   string  `json:"animation_id"`
	Status        string  `json:"status"`
	Progress      float64 `json:"progress"`
	StatusMessage string  `json:"status_message,omitempty"`
	VideoURL      string  `json:"video_url,omitempty"`
	ErrorMessage  string  `json:"error_message,omitempty"`
}

// GenerateRequest is the payload starting one animation job.
type GenerateRequest struct {
	Query          string `json:"query"`
	Quality        string `json:"quality,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id"`
	PreviousSource string `json:"previous_source,omitempty"`
}

// GenerateResponse reports a finished animation job. Success false means the
// job itself failed; transport-level problems surface as HTTP errors instead.
type GenerateResponse struct {
	Success        bool   `json:"success"`
	VideoURL       string `json:"video_url,omitempty"`
	Message        string `json:"message"`
	AnimationID    string `json:"animation_id"`
	ConversationID string `json:"conversation_id"`
	Version        int    `json:"version"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// RenameRequest updates a conversation title.
type RenameRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
}

// MessageRequest appends a message to a conversation.
type MessageRequest struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Content        string `json:"content"`
	Type           string `json:"type"`
	AnimationID    string `json:"animation_id,omitempty"`
}

// ConversationListResponse wraps a collection of conversations.
type ConversationListResponse struct {
	Conversations []ConversationView `json:"conversations"`
}

// ConversationDetailResponse bundles a conversation with its animations and
// messages.
type ConversationDetailResponse struct {
	Conversation ConversationView `json:"conversation"`
	Animations   []AnimationView  `json:"animations"`
	Messages     []MessageView    `json:"messages"`
}

// MessageListResponse wraps a conversation's messages.
type MessageListResponse struct {
	Messages []MessageView `json:"messages"`
}

// DeleteResponse acknowledges a conversation removal.
type DeleteResponse struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// HealthResponse reports daemon liveness.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
