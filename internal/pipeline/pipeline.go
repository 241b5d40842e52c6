package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reelforge/internal/artifacts"
	"reelforge/internal/config"
	"reelforge/internal/ledger"
	"reelforge/internal/logging"
	"reelforge/internal/provider"
	"reelforge/internal/quality"
	"reelforge/internal/render"
	"reelforge/internal/workspace"
)

// Progress milestones reported while a job moves through the stages.
const (
	progressGenerating = 10
	progressRendering  = 40
	progressPublishing = 90
)

// Request describes one animation job.
type Request struct {
	UserID string
	// ConversationID continues an existing thread when set; empty starts a
	// new conversation titled from Query.
	ConversationID string
	Query          string
	Quality        quality.Tier
	// PreviousSource overrides the conversation's latest generated code as
	// the revision baseline when set.
	PreviousSource string
}

// Result reports a finished job. Success false carries the failure text that
// was also persisted on the animation row.
type Result struct {
	AnimationID    string
	ConversationID string
	Version        int
	Success        bool
	VideoURL       string
	Error          string
	CreatedAt      time.Time
}

// Pipeline drives a request through code generation, rendering, artifact
// publication, and ledger bookkeeping.
type Pipeline struct {
	cfg        *config.Config
	store      *ledger.Store
	provider   provider.CodeProvider
	renderer   render.Client
	artifacts  *artifacts.Store
	workspaces *workspace.Manager
	logger     *slog.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithProvider overrides the code provider.
func WithProvider(p provider.CodeProvider) Option {
	return func(pl *Pipeline) {
		if p != nil {
			pl.provider = p
		}
	}
}

// WithRenderer overrides the render client.
func WithRenderer(r render.Client) Option {
	return func(pl *Pipeline) {
		if r != nil {
			pl.renderer = r
		}
	}
}

// New wires a Pipeline from config. The default provider and renderer come
// from the config; tests swap them via options.
func New(cfg *config.Config, store *ledger.Store, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	pl := &Pipeline{
		cfg:        cfg,
		store:      store,
		provider:   provider.FromConfig(cfg),
		renderer:   render.FromConfig(cfg),
		artifacts:  artifacts.NewStore(cfg),
		workspaces: workspace.NewManager(cfg.Paths.WorkspaceDir),
		logger:     logging.WithComponent(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(pl)
	}
	return pl
}

// Run executes one job to a terminal state. The animation row always ends
// completed or failed; failures are reported in the Result, not as an error.
// The returned error covers ledger-level problems only.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, errors.New("user id required")
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, errors.New("query required")
	}
	// A client hanging up must not kill a render already in flight.
	ctx = context.WithoutCancel(ctx)

	conversation, err := p.store.GetOrCreateConversation(ctx, req.ConversationID, req.UserID, req.Query)
	if err != nil {
		return nil, fmt.Errorf("resolve conversation: %w", err)
	}

	previousSource := req.PreviousSource
	if previousSource == "" {
		previousSource = p.previousSource(ctx, conversation.ID, req.UserID)
	}

	animation, err := p.store.CreateAnimation(ctx, ledger.NewAnimation{
		ConversationID: conversation.ID,
		UserID:         req.UserID,
		Query:          req.Query,
		Quality:        req.Quality,
	})
	if err != nil {
		return nil, fmt.Errorf("create animation: %w", err)
	}

	logger := p.logger.With(
		logging.String(logging.FieldAnimationID, animation.ID),
		logging.String(logging.FieldConversationID, conversation.ID),
		logging.String(logging.FieldUserID, req.UserID),
	)
	logger.Info("animation job accepted",
		logging.Int("version", animation.Version),
		logging.String("quality", string(req.Quality)))

	var result *Result
	if _, err := p.store.CreateMessage(ctx, ledger.NewMessage{
		ConversationID: conversation.ID,
		UserID:         req.UserID,
		Content:        req.Query,
		Type:           ledger.MessageUser,
	}); err != nil {
		// The animation row exists already, so it has to reach a terminal
		// state instead of sitting pending forever.
		logger.Error("recording user message failed", logging.Error(err))
		result = p.fail(ctx, logger, animation, fmt.Sprintf("record user message: %v", err))
	} else {
		result = p.execute(ctx, logger, animation, req.Query, req.Quality, previousSource)
	}
	result.ConversationID = conversation.ID
	result.Version = animation.Version
	result.CreatedAt = animation.CreatedAt
	return result, nil
}

// previousSource fetches the newest generated code in the conversation so a
// follow-up request revises the prior scene instead of starting over.
func (p *Pipeline) previousSource(ctx context.Context, conversationID, userID string) string {
	latest, err := p.store.LatestAnimation(ctx, conversationID, userID)
	if err != nil {
		return ""
	}
	return latest.GeneratedCode
}

func (p *Pipeline) execute(ctx context.Context, logger *slog.Logger, animation *ledger.Animation, query string, tier quality.Tier, previousSource string) *Result {
	if err := p.store.UpdateAnimationStatus(ctx, animation.ID, ledger.StatusProcessing, progressGenerating, "Generating animation code"); err != nil {
		return p.fail(ctx, logger, animation, fmt.Sprintf("update status: %v", err))
	}

	source, err := p.provider.GenerateSource(ctx, query, previousSource)
	if err != nil {
		logger.Error("code generation failed", logging.Error(err))
		return p.fail(ctx, logger, animation, fmt.Sprintf("Failed to generate animation code: %v", err))
	}
	if err := p.store.SetGeneratedCode(ctx, animation.ID, source); err != nil {
		return p.fail(ctx, logger, animation, fmt.Sprintf("persist generated code: %v", err))
	}

	ws, err := p.workspaces.Acquire()
	if err != nil {
		return p.fail(ctx, logger, animation, fmt.Sprintf("acquire workspace: %v", err))
	}
	defer ws.Release(logger)

	if err := ws.WriteScript(source); err != nil {
		return p.fail(ctx, logger, animation, fmt.Sprintf("write scene script: %v", err))
	}

	if err := p.store.UpdateAnimationStatus(ctx, animation.ID, ledger.StatusProcessing, progressRendering, "Rendering animation"); err != nil {
		return p.fail(ctx, logger, animation, fmt.Sprintf("update status: %v", err))
	}

	if err := p.renderer.Render(ctx, ws.ScriptPath(), ws.MediaDir, tier); err != nil {
		logger.Error("render failed", logging.Error(err))
		return p.fail(ctx, logger, animation, renderFailureMessage(err))
	}

	artifactPath, err := render.FindArtifact(ws.MediaDir, ws.ScriptPath(), tier, p.cfg.Renderer.SceneName, p.cfg.Renderer.OutputFormat)
	if err != nil {
		logger.Error("artifact discovery failed", logging.Error(err))
		return p.fail(ctx, logger, animation, "Renderer completed but no video file was produced")
	}

	if err := p.store.UpdateAnimationStatus(ctx, animation.ID, ledger.StatusProcessing, progressPublishing, "Publishing video"); err != nil {
		return p.fail(ctx, logger, animation, fmt.Sprintf("update status: %v", err))
	}

	videoURL, err := p.artifacts.Publish(artifactPath, animation.ID+"."+p.cfg.Renderer.OutputFormat)
	if err != nil {
		logger.Error("artifact publish failed", logging.Error(err))
		return p.fail(ctx, logger, animation, fmt.Sprintf("Failed to publish video: %v", err))
	}

	if err := p.store.CompleteAnimation(ctx, animation.ID, videoURL, source, "Animation ready"); err != nil {
		logger.Error("ledger completion failed", logging.Error(err))
		return p.fail(ctx, logger, animation, fmt.Sprintf("record completion: %v", err))
	}
	if _, err := p.store.CreateMessage(ctx, ledger.NewMessage{
		ConversationID: animation.ConversationID,
		UserID:         animation.UserID,
		Content:        "Animation generated successfully!",
		Type:           ledger.MessageAI,
		AnimationID:    animation.ID,
	}); err != nil {
		logger.Warn("recording ai message failed", logging.Error(err))
	}

	logger.Info("animation job completed", logging.String("video_url", videoURL))
	return &Result{
		AnimationID: animation.ID,
		Success:     true,
		VideoURL:    videoURL,
	}
}

// fail drives the animation to its failed terminal state and records the ai
// failure message. Persistence errors here are logged, not returned, so the
// caller still receives the original failure.
func (p *Pipeline) fail(ctx context.Context, logger *slog.Logger, animation *ledger.Animation, message string) *Result {
	if err := p.store.FailAnimation(ctx, animation.ID, message); err != nil {
		logger.Error("marking animation failed", logging.Error(err))
	}
	if _, err := p.store.CreateMessage(ctx, ledger.NewMessage{
		ConversationID: animation.ConversationID,
		UserID:         animation.UserID,
		Content:        "Animation generation failed: " + message,
		Type:           ledger.MessageAI,
		AnimationID:    animation.ID,
	}); err != nil {
		logger.Warn("recording ai failure message failed", logging.Error(err))
	}
	return &Result{
		AnimationID: animation.ID,
		Success:     false,
		Error:       message,
	}
}

func renderFailureMessage(err error) string {
	var renderErr *render.Error
	if errors.As(err, &renderErr) {
		detail := strings.TrimSpace(renderErr.Stderr)
		if len(detail) > 600 {
			detail = detail[len(detail)-600:]
		}
		if detail != "" {
			return fmt.Sprintf("Renderer failed (exit %d): %s", renderErr.ExitCode, detail)
		}
		return fmt.Sprintf("Renderer failed (exit %d)", renderErr.ExitCode)
	}
	return fmt.Sprintf("Renderer failed: %v", err)
}
