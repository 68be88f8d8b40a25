package gemini

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// ClientConfig holds the connection settings shared by the generators
type ClientConfig struct {
	APIKey     string
	BaseURL    string       // Optional endpoint override
	HTTPClient *http.Client // Optional, defaults to the genai client
}

func newClient(ctx context.Context, cfg ClientConfig) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}
