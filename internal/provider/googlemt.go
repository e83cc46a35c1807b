package provider

import (
	"context"
	"fmt"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleMTProvider fills the "Machine translation" tier through the Google
// Cloud Translate v2 API. It is not a chat provider: lines are translated
// directly, without prompt assembly or response parsing.
type GoogleMTProvider struct {
	credentials string
}

func NewGoogleMTProvider(credentials string) *GoogleMTProvider {
	return &GoogleMTProvider{credentials: credentials}
}

func (p *GoogleMTProvider) Name() string { return "googlemt" }

func (p *GoogleMTProvider) TranslateLines(ctx context.Context, lines []string, sourceLang, targetLang string) ([]string, error) {
	targetTag, err := language.Parse(targetLang)
	if err != nil {
		return nil, fmt.Errorf("invalid target language: %w", err)
	}

	var opts []option.ClientOption
	if p.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(p.credentials))
	}
	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	var translateOpts *translate.Options
	if sourceLang != "" && sourceLang != "auto" {
		sourceTag, err := language.Parse(sourceLang)
		if err != nil {
			return nil, fmt.Errorf("invalid source language: %w", err)
		}
		translateOpts = &translate.Options{Source: sourceTag}
	}

	translations, err := client.Translate(ctx, lines, targetTag, translateOpts)
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	if len(translations) != len(lines) {
		return nil, fmt.Errorf("expected %d translations, got %d", len(lines), len(translations))
	}

	out := make([]string, len(translations))
	for i, t := range translations {
		out[i] = t.Text
	}
	return out, nil
}

// Complete is unsupported; GoogleMTProvider only implements line translation.
func (p *GoogleMTProvider) Complete(ctx context.Context, req Request) (*Result, error) {
	return nil, fmt.Errorf("googlemt does not support chat completion")
}

func (p *GoogleMTProvider) IsAvailable(ctx context.Context) error {
	return nil
}
