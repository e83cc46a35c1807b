// Package provider implements the LLM and machine-translation backends a
// translation run can target. Chat providers take a full message list and
// return raw model text; the engine owns parsing and validation.
package provider

import (
	"context"
	"time"

	"github.com/rowlate/rowlate/internal/prompt"
)

// Request carries one chat completion call.
type Request struct {
	Messages    []prompt.Message
	Model       string
	Temperature float32
	MaxTokens   int
	TopP        float32
}

// Result is the raw outcome of a completion call.
type Result struct {
	ProviderName     string        `json:"provider_name"`
	Model            string        `json:"model"`
	Text             string        `json:"text"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	Latency          time.Duration `json:"latency"`
}

// Provider is a chat-completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Result, error)
	IsAvailable(ctx context.Context) error
}

// LineTranslator is implemented by non-LLM backends that translate lines
// directly, bypassing prompt assembly and response parsing.
type LineTranslator interface {
	TranslateLines(ctx context.Context, lines []string, sourceLang, targetLang string) ([]string, error)
}

// ModelConfig tunes a named model on a provider.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider" json:"provider"`
	Model       string  `mapstructure:"model" json:"model"`
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`
	TopP        float32 `mapstructure:"top_p" json:"top_p"`
}

// DefaultModelConfig returns the stock tuning for a provider's default model.
func DefaultModelConfig(providerName string) ModelConfig {
	cfg := ModelConfig{
		Provider:    providerName,
		Temperature: 0.7,
		MaxTokens:   4096,
		TopP:        0.95,
	}
	switch providerName {
	case "gemini":
		cfg.Model = "gemini-2.0-flash-exp"
		cfg.Temperature = 0.2
		cfg.MaxTokens = 8192
	case "openai":
		cfg.Model = "gpt-4o"
	case "anthropic":
		cfg.Model = "claude-3-5-sonnet-20241022"
	case "ollama":
		cfg.Model = "llama3.2"
	}
	return cfg
}
