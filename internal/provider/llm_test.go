package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/provider"
)

func newLLMServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, config.LLM) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := config.LLM{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	}
	return server, cfg
}

func completionBody(content string) []byte {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	body, _ := json.Marshal(payload)
	return body
}

func TestLLMProviderGeneratesSource(t *testing.T) {
	var gotAuth string
	_, cfg := newLLMServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		w.Write(completionBody("from manim import *\n\nclass GeneratedScene(Scene): pass\n"))
	})

	p := provider.NewLLMProvider(cfg)
	source, err := p.GenerateSource(context.Background(), "draw a dot", "")
	if err != nil {
		t.Fatalf("GenerateSource failed: %v", err)
	}
	if source == "" {
		t.Fatal("expected non-empty source")
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
}

func TestLLMProviderStripsCodeFences(t *testing.T) {
	_, cfg := newLLMServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionBody("```python\nclass GeneratedScene(Scene): pass\n```"))
	})

	p := provider.NewLLMProvider(cfg)
	source, err := p.GenerateSource(context.Background(), "draw a dot", "")
	if err != nil {
		t.Fatalf("GenerateSource failed: %v", err)
	}
	if source != "class GeneratedScene(Scene): pass" {
		t.Fatalf("fences not stripped: %q", source)
	}
}

func TestLLMProviderRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	_, cfg := newLLMServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write(completionBody("class GeneratedScene(Scene): pass"))
	})

	p := provider.NewLLMProvider(cfg,
		provider.WithSleeper(func(time.Duration) {}),
	)
	if _, err := p.GenerateSource(context.Background(), "draw a dot", ""); err != nil {
		t.Fatalf("GenerateSource failed after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestLLMProviderDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	_, cfg := newLLMServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	p := provider.NewLLMProvider(cfg, provider.WithSleeper(func(time.Duration) {}))
	if _, err := p.GenerateSource(context.Background(), "draw a dot", ""); err == nil {
		t.Fatal("expected error from 400 response")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 attempt, got %d", calls.Load())
	}
}

func TestLLMProviderRequiresQueryAndKey(t *testing.T) {
	p := provider.NewLLMProvider(config.LLM{APIKey: "k", BaseURL: "http://unused"})
	if _, err := p.GenerateSource(context.Background(), "   ", ""); err == nil {
		t.Fatal("expected error for empty query")
	}
	p = provider.NewLLMProvider(config.LLM{BaseURL: "http://unused"})
	if _, err := p.GenerateSource(context.Background(), "draw", ""); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestFromConfigSelectsProvider(t *testing.T) {
	cfg := config.Default()
	if _, ok := provider.FromConfig(&cfg).(*provider.Simulated); !ok {
		t.Fatal("expected simulated provider without api key")
	}
	cfg.LLM.APIKey = "key"
	if _, ok := provider.FromConfig(&cfg).(*provider.LLMProvider); !ok {
		t.Fatal("expected llm provider with api key")
	}
}
