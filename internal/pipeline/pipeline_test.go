package pipeline_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"reelforge/internal/ledger"
	"reelforge/internal/logging"
	"reelforge/internal/pipeline"
	"reelforge/internal/testsupport"
)

type failingProvider struct{}

func (failingProvider) GenerateSource(context.Context, string, string) (string, error) {
	return "", errors.New("model unavailable")
}

func TestRunSuccess(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubRenderer(testsupport.RendererSucceeds))
	store := testsupport.MustOpenStore(t, cfg)
	pl := pipeline.New(cfg, store, logging.NewNop())
	ctx := context.Background()

	result, err := pl.Run(ctx, pipeline.Request{
		UserID:  "user-1",
		Query:   "draw a circle",
		Quality: "low",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Version != 1 {
		t.Fatalf("expected version 1, got %d", result.Version)
	}
	if result.ConversationID == "" || result.AnimationID == "" {
		t.Fatalf("expected ids assigned: %+v", result)
	}
	wantURL := "/videos/" + result.AnimationID + ".mp4"
	if result.VideoURL != wantURL {
		t.Fatalf("expected video url %q, got %q", wantURL, result.VideoURL)
	}

	published := filepath.Join(cfg.Paths.VideosDir, result.AnimationID+".mp4")
	if _, err := os.Stat(published); err != nil {
		t.Fatalf("expected published artifact at %s: %v", published, err)
	}

	animation, err := store.GetAnimation(ctx, result.AnimationID, "user-1")
	if err != nil {
		t.Fatalf("GetAnimation: %v", err)
	}
	if animation.Status != ledger.StatusCompleted || animation.Progress != 100 {
		t.Fatalf("expected completed at 100, got %s/%v", animation.Status, animation.Progress)
	}
	if animation.GeneratedCode == "" {
		t.Fatal("expected generated code persisted")
	}

	conversation, err := store.GetConversation(ctx, result.ConversationID, "user-1")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if conversation.Title != "Draw a circle" {
		t.Fatalf("unexpected conversation title %q", conversation.Title)
	}

	messages, err := store.MessagesByConversation(ctx, result.ConversationID, 0, 0)
	if err != nil {
		t.Fatalf("MessagesByConversation: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected user and ai messages, got %d", len(messages))
	}
	if messages[0].Type != ledger.MessageUser || messages[1].Type != ledger.MessageAI {
		t.Fatalf("unexpected message types [%s %s]", messages[0].Type, messages[1].Type)
	}
	if messages[1].AnimationID != result.AnimationID {
		t.Fatalf("expected ai message linked to animation, got %q", messages[1].AnimationID)
	}

	entries, err := os.ReadDir(cfg.Paths.WorkspaceDir)
	if err != nil {
		t.Fatalf("read workspace dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected workspace cleaned up, found %d entries", len(entries))
	}
}

func TestRunStrayArtifactIsDiscovered(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubRenderer(testsupport.RendererStraysArtifact))
	store := testsupport.MustOpenStore(t, cfg)
	pl := pipeline.New(cfg, store, logging.NewNop())

	result, err := pl.Run(context.Background(), pipeline.Request{
		UserID:  "user-1",
		Query:   "draw a circle",
		Quality: "low",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected stray artifact to be found, got error %q", result.Error)
	}
}

func TestRunRenderFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubRenderer(testsupport.RendererFails))
	store := testsupport.MustOpenStore(t, cfg)
	pl := pipeline.New(cfg, store, logging.NewNop())
	ctx := context.Background()

	result, err := pl.Run(ctx, pipeline.Request{
		UserID:  "user-1",
		Query:   "draw a circle",
		Quality: "low",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "Renderer failed") {
		t.Fatalf("unexpected error %q", result.Error)
	}
	if !strings.Contains(result.Error, "NameError") {
		t.Fatalf("expected stderr detail in error, got %q", result.Error)
	}

	animation, err := store.GetAnimation(ctx, result.AnimationID, "user-1")
	if err != nil {
		t.Fatalf("GetAnimation: %v", err)
	}
	if animation.Status != ledger.StatusFailed || animation.Progress != 0 {
		t.Fatalf("expected failed at 0, got %s/%v", animation.Status, animation.Progress)
	}
	if animation.Success {
		t.Fatal("expected success flag cleared")
	}

	messages, err := store.MessagesByConversation(ctx, result.ConversationID, 0, 0)
	if err != nil {
		t.Fatalf("MessagesByConversation: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected user and ai failure messages, got %d", len(messages))
	}
	if !strings.Contains(messages[1].Content, "failed") {
		t.Fatalf("expected failure notice, got %q", messages[1].Content)
	}

	entries, err := os.ReadDir(cfg.Paths.WorkspaceDir)
	if err != nil {
		t.Fatalf("read workspace dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected workspace cleaned up after failure, found %d entries", len(entries))
	}
}

func TestRunMissingArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubRenderer(testsupport.RendererSilent))
	store := testsupport.MustOpenStore(t, cfg)
	pl := pipeline.New(cfg, store, logging.NewNop())

	result, err := pl.Run(context.Background(), pipeline.Request{
		UserID:  "user-1",
		Query:   "draw a circle",
		Quality: "low",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure for missing artifact")
	}
	if !strings.Contains(result.Error, "no video file") {
		t.Fatalf("unexpected error %q", result.Error)
	}
}

func TestRunProviderFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubRenderer(testsupport.RendererSucceeds))
	store := testsupport.MustOpenStore(t, cfg)
	pl := pipeline.New(cfg, store, logging.NewNop(), pipeline.WithProvider(failingProvider{}))
	ctx := context.Background()

	result, err := pl.Run(ctx, pipeline.Request{
		UserID:  "user-1",
		Query:   "draw a circle",
		Quality: "low",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "Failed to generate animation code") {
		t.Fatalf("unexpected error %q", result.Error)
	}

	animation, err := store.GetAnimation(ctx, result.AnimationID, "user-1")
	if err != nil {
		t.Fatalf("GetAnimation: %v", err)
	}
	if animation.Status != ledger.StatusFailed {
		t.Fatalf("expected failed status, got %s", animation.Status)
	}
}

func TestRunUserMessageFailureStillFailsAnimation(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubRenderer(testsupport.RendererSucceeds))
	store := testsupport.MustOpenStore(t, cfg)
	pl := pipeline.New(cfg, store, logging.NewNop())
	ctx := context.Background()

	// Break message persistence underneath the store so the user-message
	// write fails after the animation row exists.
	db, err := sql.Open("sqlite", store.Path())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec("DROP TABLE messages"); err != nil {
		t.Fatalf("drop messages table: %v", err)
	}

	result, err := pl.Run(ctx, pipeline.Request{
		UserID:  "user-1",
		Query:   "draw a circle",
		Quality: "low",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "record user message") {
		t.Fatalf("unexpected error %q", result.Error)
	}

	animation, err := store.GetAnimation(ctx, result.AnimationID, "user-1")
	if err != nil {
		t.Fatalf("GetAnimation: %v", err)
	}
	if animation.Status != ledger.StatusFailed {
		t.Fatalf("expected animation driven to failed, got %s", animation.Status)
	}
}

func TestRunContinuesConversationWithPreviousSource(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubRenderer(testsupport.RendererSucceeds))
	store := testsupport.MustOpenStore(t, cfg)
	pl := pipeline.New(cfg, store, logging.NewNop())
	ctx := context.Background()

	first, err := pl.Run(ctx, pipeline.Request{
		UserID:  "user-1",
		Query:   "draw a circle",
		Quality: "low",
	})
	if err != nil {
		t.Fatalf("Run first: %v", err)
	}
	if !first.Success {
		t.Fatalf("first run failed: %q", first.Error)
	}

	second, err := pl.Run(ctx, pipeline.Request{
		UserID:         "user-1",
		ConversationID: first.ConversationID,
		Query:          "make it blue",
		Quality:        "low",
	})
	if err != nil {
		t.Fatalf("Run second: %v", err)
	}
	if !second.Success {
		t.Fatalf("second run failed: %q", second.Error)
	}
	if second.ConversationID != first.ConversationID {
		t.Fatal("expected conversation continued")
	}
	if second.Version != 2 {
		t.Fatalf("expected version 2, got %d", second.Version)
	}

	// The simulated provider echoes previous source back, so revisions carry
	// the first version's scene forward.
	firstAnim, err := store.GetAnimation(ctx, first.AnimationID, "user-1")
	if err != nil {
		t.Fatalf("GetAnimation first: %v", err)
	}
	secondAnim, err := store.GetAnimation(ctx, second.AnimationID, "user-1")
	if err != nil {
		t.Fatalf("GetAnimation second: %v", err)
	}
	if secondAnim.GeneratedCode != firstAnim.GeneratedCode {
		t.Fatal("expected second version derived from first version's source")
	}
}

func TestRunRejectsForeignConversation(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubRenderer(testsupport.RendererSucceeds))
	store := testsupport.MustOpenStore(t, cfg)
	pl := pipeline.New(cfg, store, logging.NewNop())
	ctx := context.Background()

	conv := testsupport.NewConversation(t, store, "user-1", "draw a circle")

	_, err := pl.Run(ctx, pipeline.Request{
		UserID:         "user-2",
		ConversationID: conv.ID,
		Query:          "draw a circle",
		Quality:        "low",
	})
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign conversation, got %v", err)
	}
}

func TestRunValidatesInput(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubRenderer(testsupport.RendererSucceeds))
	store := testsupport.MustOpenStore(t, cfg)
	pl := pipeline.New(cfg, store, logging.NewNop())

	if _, err := pl.Run(context.Background(), pipeline.Request{Query: "x"}); err == nil {
		t.Fatal("expected error for missing user id")
	}
	if _, err := pl.Run(context.Background(), pipeline.Request{UserID: "u"}); err == nil {
		t.Fatal("expected error for missing query")
	}
}
