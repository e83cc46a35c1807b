package provider

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rowlate/rowlate/internal/prompt"
)

// OpenAIProvider calls the OpenAI chat completions API through the
// go-openai client. A custom base URL targets any OpenAI-compatible server.
type OpenAIProvider struct {
	apiKey string
	client *openai.Client
}

func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		apiKey: apiKey,
		client: openai.NewClientWithConfig(cfg),
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Result, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key required")
	}

	result := &Result{ProviderName: p.Name(), Model: req.Model}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	result.Text = resp.Choices[0].Message.Content
	result.PromptTokens = resp.Usage.PromptTokens
	result.CompletionTokens = resp.Usage.CompletionTokens
	return result, nil
}

func (p *OpenAIProvider) IsAvailable(ctx context.Context) error {
	if p.apiKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}
	return nil
}

func toOpenAIMessages(msgs []prompt.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case prompt.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case prompt.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
