package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelforge/internal/api"
	"reelforge/internal/config"
	"reelforge/internal/ledger"
	"reelforge/internal/logging"
	"reelforge/internal/pipeline"
	"reelforge/internal/testsupport"
)

func newTestDaemon(t *testing.T, cfg *config.Config, store *ledger.Store) *Daemon {
	t.Helper()
	pl := pipeline.New(cfg, store, logging.NewNop())
	d, err := New(cfg, store, pl, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func postJSON(t *testing.T, client *http.Client, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestGenerateStatusAndVideoRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubRenderer(testsupport.RendererSucceeds))
	store := testsupport.MustOpenStore(t, cfg)
	d := newTestDaemon(t, cfg, store)

	srv := httptest.NewServer(d.routes())
	defer srv.Close()

	resp := postJSON(t, srv.Client(), srv.URL+"/api/generate-animation", api.GenerateRequest{
		Query:   "draw a circle",
		Quality: "low",
		UserID:  "user-1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status %d", resp.StatusCode)
	}
	generated := decodeBody[api.GenerateResponse](t, resp)
	if !generated.Success || generated.Version != 1 {
		t.Fatalf("unexpected generate response %+v", generated)
	}

	resp, err := srv.Client().Get(srv.URL + "/api/animations/" + generated.AnimationID + "/status?user_id=user-1")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status endpoint returned %d", resp.StatusCode)
	}
	status := decodeBody[api.StatusView](t, resp)
	if status.Status != "completed" || status.VideoURL != generated.VideoURL {
		t.Fatalf("unexpected status view %+v", status)
	}

	resp, err = srv.Client().Get(srv.URL + generated.VideoURL)
	if err != nil {
		t.Fatalf("GET video: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("video fetch returned %d", resp.StatusCode)
	}

	resp, err = srv.Client().Get(srv.URL + "/api/conversations?user_id=user-1")
	if err != nil {
		t.Fatalf("GET conversations: %v", err)
	}
	listed := decodeBody[api.ConversationListResponse](t, resp)
	if len(listed.Conversations) != 1 || listed.Conversations[0].ID != generated.ConversationID {
		t.Fatalf("unexpected conversation list %+v", listed)
	}

	resp, err = srv.Client().Get(srv.URL + "/api/conversations/" + generated.ConversationID + "?user_id=user-1")
	if err != nil {
		t.Fatalf("GET conversation detail: %v", err)
	}
	detail := decodeBody[api.ConversationDetailResponse](t, resp)
	if len(detail.Animations) != 1 || len(detail.Messages) != 2 {
		t.Fatalf("unexpected detail %+v", detail)
	}
}

func TestGenerateFailureReturnsEnvelope(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubRenderer(testsupport.RendererFails))
	store := testsupport.MustOpenStore(t, cfg)
	d := newTestDaemon(t, cfg, store)

	srv := httptest.NewServer(d.routes())
	defer srv.Close()

	resp := postJSON(t, srv.Client(), srv.URL+"/api/generate-animation", api.GenerateRequest{
		Query:  "draw a circle",
		UserID: "user-1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected job failure as 200 envelope, got %d", resp.StatusCode)
	}
	generated := decodeBody[api.GenerateResponse](t, resp)
	if generated.Success {
		t.Fatal("expected success=false")
	}
	if generated.Message == "" {
		t.Fatal("expected failure message in envelope")
	}
}

func TestErrorMapping(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubRenderer(testsupport.RendererSucceeds))
	store := testsupport.MustOpenStore(t, cfg)
	d := newTestDaemon(t, cfg, store)

	srv := httptest.NewServer(d.routes())
	defer srv.Close()
	client := srv.Client()

	resp, err := client.Get(srv.URL + "/api/animations/whatever/status")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing user_id should be 400, got %d", resp.StatusCode)
	}

	resp, err = client.Get(srv.URL + "/api/animations/missing-id/status?user_id=user-1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown animation should be 404, got %d", resp.StatusCode)
	}

	resp, err = client.Post(srv.URL+"/api/generate-animation", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed body should be 400, got %d", resp.StatusCode)
	}

	resp = postJSON(t, client, srv.URL+"/api/generate-animation", api.GenerateRequest{
		Query:          "draw a circle",
		UserID:         "user-1",
		ConversationID: "no-such-conversation",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown conversation should be 404, got %d", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubRenderer(testsupport.RendererSucceeds))
	store := testsupport.MustOpenStore(t, cfg)
	d := newTestDaemon(t, cfg, store)

	srv := httptest.NewServer(d.routes())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health returned %d", resp.StatusCode)
	}
	health := decodeBody[api.HealthResponse](t, resp)
	if health.Status != "healthy" || health.Version == "" {
		t.Fatalf("unexpected health payload %+v", health)
	}
}

func TestStartEnforcesSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubRenderer(testsupport.RendererSucceeds))
	store := testsupport.MustOpenStore(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := newTestDaemon(t, cfg, store)
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()
	if first.Addr() == "" {
		t.Fatal("expected bound address")
	}

	second := newTestDaemon(t, cfg, store)
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected second instance to be refused")
	}

	first.Stop()
	third := newTestDaemon(t, cfg, store)
	if err := third.Start(ctx); err != nil {
		t.Fatalf("Start after Stop: %v", err)
	}
	third.Stop()
}

func TestStartFailsPreflight(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Renderer.Binary = "definitely-not-a-binary-9931"
	store := testsupport.MustOpenStore(t, cfg)
	d := newTestDaemon(t, cfg, store)

	if err := d.Start(context.Background()); err == nil {
		d.Stop()
		t.Fatal("expected preflight failure")
	}
}
