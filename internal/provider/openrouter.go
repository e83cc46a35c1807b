package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

var DefaultOpenRouterModels = []string{
	"google/gemini-2.0-flash-exp:free",
	"qwen/qwen2.5-72b-instruct:free",
	"mistralai/mistral-nemo:free",
	"meta-llama/llama-3.1-8b-instruct:free",
}

// OpenRouterProvider calls the OpenRouter chat completions API, rotating
// through a model list when the request does not pin one.
type OpenRouterProvider struct {
	apiKey  string
	baseURL string
	models  []string
	client  *http.Client
}

func NewOpenRouterProvider(apiKey, baseURL string, models []string) *OpenRouterProvider {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if len(models) == 0 {
		models = DefaultOpenRouterModels
	}
	return &OpenRouterProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		models:  models,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

func (p *OpenRouterProvider) pickModel(requested string) string {
	if requested != "" {
		return requested
	}
	return p.models[rand.Intn(len(p.models))]
}

func (p *OpenRouterProvider) Complete(ctx context.Context, req Request) (*Result, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("OpenRouter API key required")
	}

	model := p.pickModel(req.Model)
	result := &Result{ProviderName: p.Name(), Model: model}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	type wireMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	messages := make([]wireMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, wireMessage{Role: m.Role, Content: m.Content})
	}

	body := map[string]interface{}{
		"model":      model,
		"messages":   messages,
		"max_tokens": req.MaxTokens,
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/chat/completions", p.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))
	httpReq.Header.Set("HTTP-Referer", "https://rowlate.local")
	httpReq.Header.Set("X-Title", "rowlate")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("API returned status %d: %v", resp.StatusCode, errResp)
	}

	var routerResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&routerResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(routerResp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	result.Text = routerResp.Choices[0].Message.Content
	result.PromptTokens = routerResp.Usage.PromptTokens
	result.CompletionTokens = routerResp.Usage.CompletionTokens
	return result, nil
}

func (p *OpenRouterProvider) IsAvailable(ctx context.Context) error {
	if p.apiKey == "" {
		return fmt.Errorf("OpenRouter API key not configured")
	}
	return nil
}
