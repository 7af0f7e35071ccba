package llm

import (
	"context"
	"sync"
)

// MockClient is a scripted Completer for tests and offline runs.
type MockClient struct {
	Answer string
	Err    error

	mu    sync.Mutex
	calls []CompletionRequest
}

var _ Completer = (*MockClient)(nil)

// NewMockClient creates a mock that always answers with answer.
func NewMockClient(answer string) *MockClient {
	return &MockClient{Answer: answer}
}

// Complete records the request and returns the scripted result.
func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Answer, nil
}

// Calls returns the recorded requests.
func (m *MockClient) Calls() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.calls))
	copy(out, m.calls)
	return out
}
