package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reelforge/internal/ledger"
	"reelforge/internal/pipeline"
	"reelforge/internal/quality"
)

// ErrInvalidRequest marks caller mistakes handlers should report as 400s.
var ErrInvalidRequest = errors.New("invalid request")

// JobRunner abstracts pipeline execution so tests can substitute outcomes.
type JobRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Service exposes the operations shared by the daemon handlers and the CLI.
type Service struct {
	store  *ledger.Store
	runner JobRunner
}

// NewService constructs a Service. The runner may be nil for read-only use.
func NewService(store *ledger.Store, runner JobRunner) *Service {
	return &Service{store: store, runner: runner}
}

// Generate runs one animation job to completion.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if s.runner == nil {
		return nil, errors.New("generation unavailable")
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, invalidRequest("user_id is required")
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, invalidRequest("query is required")
	}

	result, err := s.runner.Run(ctx, pipeline.Request{
		UserID:         req.UserID,
		ConversationID: strings.TrimSpace(req.ConversationID),
		Query:          req.Query,
		Quality:        quality.ParseTier(req.Quality),
		PreviousSource: req.PreviousSource,
	})
	if err != nil {
		return nil, err
	}

	message := "Animation generated successfully!"
	if !result.Success {
		message = result.Error
	}
	return &GenerateResponse{
		Success:        result.Success,
		VideoURL:       result.VideoURL,
		Message:        message,
		AnimationID:    result.AnimationID,
		ConversationID: result.ConversationID,
		Version:        result.Version,
		CreatedAt:      formatTimestamp(result.CreatedAt),
	}, nil
}

// AnimationStatus returns the polling view for one animation.
func (s *Service) AnimationStatus(ctx context.Context, animationID, userID string) (*StatusView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalidRequest("user_id is required")
	}
	animation, err := s.store.GetAnimation(ctx, animationID, userID)
	if err != nil {
		return nil, err
	}
	view := StatusViewOf(animation)
	return &view, nil
}

// ListConversations returns a user's conversations, most recent first.
func (s *Service) ListConversations(ctx context.Context, userID string, limit, offset int) (*ConversationListResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalidRequest("user_id is required")
	}
	convs, err := s.store.ListConversations(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &ConversationListResponse{Conversations: FromConversations(convs)}, nil
}

// ConversationDetail returns a conversation with its animations and messages.
func (s *Service) ConversationDetail(ctx context.Context, conversationID, userID string) (*ConversationDetailResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalidRequest("user_id is required")
	}
	history, err := s.store.ConversationHistory(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	return &ConversationDetailResponse{
		Conversation: FromConversation(history.Conversation),
		Animations:   FromAnimations(history.Animations),
		Messages:     FromMessages(history.Messages),
	}, nil
}

// RenameConversation updates a conversation title.
func (s *Service) RenameConversation(ctx context.Context, conversationID string, req RenameRequest) (*ConversationView, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, invalidRequest("user_id is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, invalidRequest("title is required")
	}
	if err := s.store.RenameConversation(ctx, conversationID, req.UserID, req.Title); err != nil {
		return nil, err
	}
	conv, err := s.store.GetConversation(ctx, conversationID, req.UserID)
	if err != nil {
		return nil, err
	}
	view := FromConversation(conv)
	return &view, nil
}

// DeleteConversation removes a conversation and everything it owns.
func (s *Service) DeleteConversation(ctx context.Context, conversationID, userID string) (*DeleteResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalidRequest("user_id is required")
	}
	if err := s.store.DeleteConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return &DeleteResponse{Deleted: true, ID: conversationID}, nil
}

// Messages returns a conversation's messages after verifying ownership.
func (s *Service) Messages(ctx context.Context, conversationID, userID string, limit, offset int) (*MessageListResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalidRequest("user_id is required")
	}
	if _, err := s.store.GetConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	messages, err := s.store.MessagesByConversation(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &MessageListResponse{Messages: FromMessages(messages)}, nil
}

// PostMessage appends a message to a conversation the user owns.
func (s *Service) PostMessage(ctx context.Context, req MessageRequest) (*MessageView, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, invalidRequest("user_id is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, invalidRequest("content is required")
	}
	messageType, ok := ledger.ParseMessageType(req.Type)
	if !ok {
		return nil, invalidRequest("type must be user or ai")
	}
	if _, err := s.store.GetConversation(ctx, req.ConversationID, req.UserID); err != nil {
		return nil, err
	}
	message, err := s.store.CreateMessage(ctx, ledger.NewMessage{
		ConversationID: req.ConversationID,
		UserID:         req.UserID,
		Content:        req.Content,
		Type:           messageType,
		AnimationID:    req.AnimationID,
	})
	if err != nil {
		return nil, err
	}
	view := FromMessage(message)
	return &view, nil
}

func invalidRequest(detail string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, detail)
}
