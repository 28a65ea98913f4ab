package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/mindloop/resilience/retry"
)

// GoogleProvider implements the Provider interface using the official
// Google Gemini SDK. API calls run through the retry executor.
type GoogleProvider struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	executor  *retry.Executor
}

// GoogleConfig holds configuration for the Google provider.
type GoogleConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	Retry     *retry.Policy // nil means DefaultPolicy
}

// NewGoogleProvider creates a new Google Gemini provider.
func NewGoogleProvider(cfg GoogleConfig) (*GoogleProvider, error) {
	if err := requireConfig("google", cfg.APIKey, cfg.Model, cfg.MaxTokens); err != nil {
		return nil, err
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	maxTokens := int32(cfg.MaxTokens)
	model.MaxOutputTokens = &maxTokens

	policy := DefaultPolicy()
	if cfg.Retry != nil {
		policy = *cfg.Retry
	}

	return &GoogleProvider{
		client:    client,
		model:     model,
		modelName: cfg.Model,
		executor:  retry.NewExecutor("llm.google.chat", policy),
	}, nil
}

// Close closes the underlying client.
func (p *GoogleProvider) Close() error {
	return p.client.Close()
}

// requestModel returns a per-call copy of the generative model. The shared
// model is never mutated, so concurrent Chat calls cannot race on the
// system instruction.
func (p *GoogleProvider) requestModel(systemPrompt string) *genai.GenerativeModel {
	model := *p.model
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}
	return &model
}

// Chat implements the Provider interface.
func (p *GoogleProvider) Chat(ctx context.Context, req Request) (*Response, error) {
	systemPrompt, rest := splitSystem(req.Messages)
	model := p.requestModel(systemPrompt)

	cs := model.StartChat()
	for _, m := range rest {
		switch m.Role {
		case "user":
			cs.History = append(cs.History, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(m.Content)},
			})
		case "assistant":
			cs.History = append(cs.History, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(m.Content)},
			})
		}
	}

	// The last user message is sent as the prompt, not carried as history.
	var prompt string
	if n := len(cs.History); n > 0 && cs.History[n-1].Role == "user" {
		last := cs.History[n-1]
		cs.History = cs.History[:n-1]
		if len(last.Parts) > 0 {
			if text, ok := last.Parts[0].(genai.Text); ok {
				prompt = string(text)
			}
		}
	}

	resp, err := retry.Do(ctx, p.executor, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		r, err := cs.SendMessage(ctx, genai.Text(prompt))
		if err != nil {
			return nil, classifyAPIError(err)
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	result := &Response{
		Model: p.modelName,
	}
	if len(resp.Candidates) > 0 {
		candidate := resp.Candidates[0]
		if candidate.FinishReason != 0 {
			result.StopReason = candidate.FinishReason.String()
		}
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					result.Content += string(text)
				}
			}
		}
	}
	if resp.UsageMetadata != nil {
		result.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return result, nil
}

// Ensure GoogleProvider implements Provider.
var _ Provider = (*GoogleProvider)(nil)
