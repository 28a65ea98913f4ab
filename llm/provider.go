// Package llm provides LLM provider adapters whose API calls run through
// the retry executor with an explicit retryable-kind set. Providers share
// one retry profile and one classification path, so transient API
// failures (429s, 5xx, connection resets) behave identically regardless
// of vendor.
package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mindloop/resilience/retry"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// Request represents a chat request to the LLM.
type Request struct {
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// Response represents a chat response from the LLM.
type Response struct {
	Content      string `json:"content"`
	StopReason   string `json:"stop_reason"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	Model        string `json:"model"`
}

// Provider is the interface for LLM providers.
type Provider interface {
	// Chat sends a chat request and returns the response.
	Chat(ctx context.Context, req Request) (*Response, error)
}

// DefaultPolicy is the retry profile for LLM generation calls. Generation
// is idempotent, so the full transient set retries; billing and auth
// failures stay fatal.
func DefaultPolicy() retry.Policy {
	return retry.MustPolicy(
		retry.WithMaxRetries(5),
		retry.WithInitialDelay(time.Second),
		retry.WithMaxDelay(60*time.Second),
		retry.WithRetryOn(retry.TransientKinds()...),
	)
}

// splitSystem separates the system prompt from conversational messages.
func splitSystem(messages []Message) (system string, rest []Message) {
	rest = make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" && system == "" {
			system = m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}

// --- Mock Provider for Testing ---

// MockProvider is a mock LLM provider for tests.
type MockProvider struct {
	mu          sync.Mutex
	response    string
	err         error
	callCount   int
	lastRequest *Request

	// ChatFunc can be overridden for custom behavior.
	ChatFunc func(ctx context.Context, req Request) (*Response, error)
}

// NewMockProvider creates a new mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// SetResponse sets the content returned from Chat.
func (p *MockProvider) SetResponse(content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.response = content
}

// SetError sets an error to return from Chat.
func (p *MockProvider) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// CallCount returns the number of Chat invocations.
func (p *MockProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.callCount
}

// LastRequest returns the most recent request.
func (p *MockProvider) LastRequest() *Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRequest
}

// Chat implements the Provider interface.
func (p *MockProvider) Chat(ctx context.Context, req Request) (*Response, error) {
	p.mu.Lock()
	p.callCount++
	p.lastRequest = &req
	chatFunc := p.ChatFunc
	err := p.err
	response := p.response
	p.mu.Unlock()

	if chatFunc != nil {
		return chatFunc(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return &Response{
		Content:    response,
		StopReason: "end_turn",
		Model:      "mock",
	}, nil
}

// Ensure MockProvider implements Provider.
var _ Provider = (*MockProvider)(nil)

// requireConfig validates the common provider configuration fields.
func requireConfig(provider, apiKey, model string, maxTokens int) error {
	if apiKey == "" {
		return fmt.Errorf("api_key is required for %s", provider)
	}
	if model == "" {
		return fmt.Errorf("model is required for %s", provider)
	}
	if maxTokens == 0 {
		return fmt.Errorf("max_tokens is required for %s", provider)
	}
	return nil
}
