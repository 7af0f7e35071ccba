// Package llm provides language-model completion backends.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned by New when no API key is set.
var ErrNotConfigured = errors.New("llm: api key not configured")

// CompletionRequest is a single-shot completion.
type CompletionRequest struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Completer produces text from a system instruction and a user prompt.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Config holds backend settings.
type Config struct {
	Provider   string // anthropic or openrouter
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// New builds the completer for cfg.Provider.
func New(cfg Config) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	switch strings.ToLower(cfg.Provider) {
	case "", "anthropic":
		return NewAnthropicClient(cfg), nil
	case "openrouter":
		return NewOpenRouterClient(cfg), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// APIError is a non-2xx response from a backend.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

func httpClient(cfg Config) *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func readAPIError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{Provider: provider, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
