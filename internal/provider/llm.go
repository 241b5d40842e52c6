package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"reelforge/internal/config"
)

const (
	defaultHTTPTimeout   = 120 * time.Second
	defaultRetryAttempts = 5
	retryBaseDelay       = 1 * time.Second
	retryMaxDelay        = 10 * time.Second
)

const systemPrompt = `You write Manim community-edition scenes. Respond with a single
complete Python module defining exactly one Scene subclass named GeneratedScene.
Respond with code only, no prose and no markdown fences.`

// LLMProvider generates scene source through an OpenRouter-style chat
// completion endpoint.
type LLMProvider struct {
	cfg        config.LLM
	httpClient *http.Client

	retryMaxAttempts int
	sleeper          func(time.Duration)
}

// LLMOption customizes the provider.
type LLMOption func(*LLMProvider)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) LLMOption {
	return func(p *LLMProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count.
func WithRetryMaxAttempts(attempts int) LLMOption {
	return func(p *LLMProvider) {
		p.retryMaxAttempts = attempts
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) LLMOption {
	return func(p *LLMProvider) {
		p.sleeper = sleeper
	}
}

// NewLLMProvider constructs an LLM-backed provider from config.
func NewLLMProvider(cfg config.LLM, opts ...LLMOption) *LLMProvider {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	p := &LLMProvider{
		cfg:              cfg,
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GenerateSource implements CodeProvider.
func (p *LLMProvider) GenerateSource(ctx context.Context, query, previousSource string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("llm generate: query required")
	}
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return "", errors.New("llm generate: api key required")
	}

	userPrompt := query
	if previousSource != "" {
		userPrompt = fmt.Sprintf(
			"Revise the following scene so that: %s\n\nCurrent scene source:\n%s",
			query, previousSource,
		)
	}

	payload := chatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0,
	}

	content, err := p.completionContentWithRetry(ctx, payload)
	if err != nil {
		return "", err
	}
	source := stripCodeFences(content)
	if source == "" {
		return "", errors.New("llm generate: model returned empty source")
	}
	return source, nil
}

var _ CodeProvider = (*LLMProvider)(nil)

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (p *LLMProvider) HealthCheck(ctx context.Context) error {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return errors.New("llm health: api key required")
	}
	payload := chatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "Respond with the single word ok."},
			{Role: "user", Content: "ping"},
		},
		Temperature: 0,
	}
	_, err := p.completionContentWithRetry(ctx, payload)
	return err
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers mistakenly return the streaming schema (delta) even
		// when stream=false, so tolerate it as a fallback.
		Delta chatCompletionMessage `json:"delta"`
		// Legacy "text" field (completion-style responses).
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (p *LLMProvider) completionContentWithRetry(ctx context.Context, payload chatCompletionRequest) (string, error) {
	attempts := p.retryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := p.sendChatRequestOnce(ctx, payload)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if attempt == attempts || !isRetryable(err) {
			return "", err
		}
		if sleepErr := p.sleep(ctx, backoffDelay(attempt)); sleepErr != nil {
			return "", sleepErr
		}
	}
	return "", fmt.Errorf("llm generate: failed after %d attempts: %w", attempts, lastErr)
}

func (p *LLMProvider) sendChatRequestOnce(ctx context.Context, payload chatCompletionRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("llm request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", p.cfg.Referer)
		req.Header.Set("Referer", p.cfg.Referer)
	}
	if p.cfg.Title != "" {
		req.Header.Set("X-Title", p.cfg.Title)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("llm request: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("llm request: api error: %s", strings.TrimSpace(completion.Error.Message))
	}

	for _, choice := range completion.Choices {
		if content := firstNonEmpty(choice.Message.Content, choice.Delta.Content, choice.Text); content != "" {
			return content, nil
		}
	}
	return "", errors.New("llm request: empty completion content")
}

func (p *LLMProvider) sleep(ctx context.Context, delay time.Duration) error {
	if p.sleeper != nil {
		p.sleeper(delay)
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay << (attempt - 1)
	if delay > retryMaxDelay {
		return retryMaxDelay
	}
	return delay
}

func isRetryable(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// stripCodeFences removes a surrounding markdown code fence when the model
// ignores the no-fence instruction.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
