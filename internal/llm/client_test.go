package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	c, err := New(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, c)

	c, err = New(Config{APIKey: "k", Provider: "openrouter"})
	require.NoError(t, err)
	assert.IsType(t, &OpenRouterClient{}, c)

	_, err = New(Config{APIKey: "k", Provider: "other"})
	assert.Error(t, err)
}

func TestAnthropicClient_Complete(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"Tuna is "},{"type":"text","text":"fine in moderation."}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(Config{APIKey: "secret", BaseURL: srv.URL})
	out, err := c.Complete(context.Background(), CompletionRequest{System: "sys", Prompt: "q", MaxTokens: 1024})
	require.NoError(t, err)

	assert.Equal(t, "Tuna is fine in moderation.", out)
	assert.Equal(t, anthropicModel, got.Model)
	assert.Equal(t, 1024, got.MaxTokens)
	assert.Equal(t, "sys", got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "q", got.Messages[0].Content)
}

func TestAnthropicClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(Config{APIKey: "secret", BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), CompletionRequest{Prompt: "q", MaxTokens: 10})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "rate_limit_error")
}

func TestOpenRouterClient_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"answer"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewOpenRouterClient(Config{APIKey: "or-key", BaseURL: srv.URL, Model: "claude-3-5-sonnet-20241022"})
	out, err := c.Complete(context.Background(), CompletionRequest{System: "sys", Prompt: "q", MaxTokens: 50})
	require.NoError(t, err)

	assert.Equal(t, "answer", out)
	assert.Equal(t, openRouterModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, 50, got.MaxTokens)
}

func TestOpenRouterClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenRouterClient(Config{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), CompletionRequest{Prompt: "q"})
	assert.Error(t, err)
}

func TestMockClient(t *testing.T) {
	m := NewMockClient("ok")
	out, err := m.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	m.Err = errors.New("down")
	_, err = m.Complete(context.Background(), CompletionRequest{Prompt: "p2"})
	assert.EqualError(t, err, "down")

	calls := m.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "p2", calls[1].Prompt)
}
