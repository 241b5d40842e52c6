package api

import (
	"time"

	"reelforge/internal/ledger"
)

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromConversation converts a ledger row to its API view.
func FromConversation(conv *ledger.Conversation) ConversationView {
	if conv == nil {
		return ConversationView{}
	}
	return ConversationView{
		ID:        conv.ID,
		UserID:    conv.UserID,
		Title:     conv.Title,
		CreatedAt: formatTimestamp(conv.CreatedAt),
		UpdatedAt: formatTimestamp(conv.UpdatedAt),
	}
}

// FromConversations converts a slice of ledger rows.
func FromConversations(convs []*ledger.Conversation) []ConversationView {
	views := make([]ConversationView, 0, len(convs))
	for _, conv := range convs {
		views = append(views, FromConversation(conv))
	}
	return views
}

// FromAnimation converts a ledger row to its API view.
func FromAnimation(animation *ledger.Animation) AnimationView {
	if animation == nil {
		return AnimationView{}
	}
	return AnimationView{
		ID:             animation.ID,
		ConversationID: animation.ConversationID,
		Query:          animation.Query,
		GeneratedCode:  animation.GeneratedCode,
		VideoURL:       animation.VideoURL,
		Version:        animation.Version,
		Quality:        string(animation.Quality),
		Success:        animation.Success,
		ErrorMessage:   animation.ErrorMessage,
		Status:         string(animation.Status),
		Progress:       animation.Progress,
		StatusMessage:  animation.StatusMessage,
		CreatedAt:      formatTimestamp(animation.CreatedAt),
	}
}

// FromAnimations converts a slice of ledger rows.
func FromAnimations(animations []*ledger.Animation) []AnimationView {
	views := make([]AnimationView, 0, len(animations))
	for _, animation := range animations {
		views = append(views, FromAnimation(animation))
	}
	return views
}

// FromMessage converts a ledger row to its API view.
func FromMessage(message *ledger.Message) MessageView {
	if message == nil {
		return MessageView{}
	}
	return MessageView{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		Content:        message.Content,
		Type:           string(message.Type),
		AnimationID:    message.AnimationID,
		CreatedAt:      formatTimestamp(message.CreatedAt),
	}
}

// FromMessages converts a slice of ledger rows.
func FromMessages(messages []*ledger.Message) []MessageView {
	views := make([]MessageView, 0, len(messages))
	for _, message := range messages {
		views = append(views, FromMessage(message))
	}
	return views
}

// StatusViewOf builds the polling view. The video URL is withheld until the
// animation reaches the completed state so clients never fetch a partial
// artifact.
func StatusViewOf(animation *ledger.Animation) StatusView {
	if animation == nil {
		return StatusView{}
	}
	view := StatusView{
		AnimationID:   animation.ID,
		Status:        string(animation.Status),
		Progress:      animation.Progress,
		StatusMessage: animation.StatusMessage,
		ErrorMessage:  animation.ErrorMessage,
	}
	if animation.Status == ledger.StatusCompleted {
		view.VideoURL = animation.VideoURL
	}
	return view
}
