/*
Copyright © 2025 The rowlate authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/rowlate/rowlate/internal/provider"
)

// buildProvider constructs a provider from its name. API keys and base URLs
// come from viper, so they can be set via flags, config file, .env, or
// ROWLATE_* environment variables.
func buildProvider(name string) (provider.Provider, error) {
	switch name {
	case "gemini":
		return provider.NewGeminiProvider(viper.GetString("gemini_api_key"), viper.GetString("gemini_base_url")), nil
	case "openai":
		return provider.NewOpenAIProvider(viper.GetString("openai_api_key"), viper.GetString("openai_base_url")), nil
	case "anthropic":
		return provider.NewAnthropicProvider(viper.GetString("anthropic_api_key"), viper.GetString("anthropic_base_url")), nil
	case "openrouter":
		return provider.NewOpenRouterProvider(viper.GetString("openrouter_api_key"), viper.GetString("openrouter_base_url"), viper.GetStringSlice("openrouter_models")), nil
	case "ollama":
		url := viper.GetString("ollama_url")
		if url == "" {
			url = "http://localhost:11434"
		}
		return provider.NewOllamaProvider(url), nil
	case "googlemt":
		return provider.NewGoogleMTProvider(viper.GetString("google_credentials")), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s (available: gemini, openai, anthropic, openrouter, ollama, googlemt)", name)
	}
}

// modelConfig starts from a provider's default tuning and applies any
// overrides given on the command line.
func modelConfig(providerName, model string, temperature float64, maxTokens int) provider.ModelConfig {
	cfg := provider.DefaultModelConfig(providerName)
	if model != "" {
		cfg.Model = model
	}
	if temperature >= 0 {
		cfg.Temperature = float32(temperature)
	}
	if maxTokens > 0 {
		cfg.MaxTokens = maxTokens
	}
	return cfg
}
