package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OllamaProvider calls a local Ollama server's chat endpoint.
type OllamaProvider struct {
	baseURL string
	client  *http.Client
}

func NewOllamaProvider(baseURL string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) Complete(ctx context.Context, req Request) (*Result, error) {
	model := req.Model
	if model == "" {
		model = "llama3.2"
	}

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
		"model":    model,
		"messages": messages,
		"stream":   false,
		"options": map[string]interface{}{
			"temperature": req.Temperature,
			"top_p":       req.TopP,
		},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/api/chat", p.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var ollamaResp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		PromptEvalCount int `json:"prompt_eval_count"`
		EvalCount       int `json:"eval_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	result.Text = ollamaResp.Message.Content
	result.PromptTokens = ollamaResp.PromptEvalCount
	result.CompletionTokens = ollamaResp.EvalCount
	return result, nil
}

func (p *OllamaProvider) IsAvailable(ctx context.Context) error {
	req, _ := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/api/tags", p.baseURL), nil)
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("Ollama not available: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}
	return nil
}
