package gemini

import (
	"context"
	"net/http"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// Ensure Factory implements GeneratorFactory
var _ driven.GeneratorFactory = (*Factory)(nil)

// Factory creates Gemini generators from settings
type Factory struct {
	httpClient *http.Client
}

// NewFactory creates a new generator factory.
// httpClient may be nil.
func NewFactory(httpClient *http.Client) *Factory {
	return &Factory{httpClient: httpClient}
}

// CreateTextGenerator creates a text generator from settings
func (f *Factory) CreateTextGenerator(ctx context.Context, settings *domain.GenerationSettings) (driven.TextGenerator, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}
	gen, err := NewTextGenerator(ctx, f.clientConfig(settings), settings.TextModel)
	if err != nil {
		return nil, err
	}
	return gen, nil
}

// CreateImageGenerator creates an image generator from settings
func (f *Factory) CreateImageGenerator(ctx context.Context, settings *domain.GenerationSettings) (driven.ImageGenerator, error) {
	if !settings.ImageConfigured() {
		return nil, nil
	}
	gen, err := NewImageGenerator(ctx, f.clientConfig(settings), settings.ImageModel)
	if err != nil {
		return nil, err
	}
	return gen, nil
}

func (f *Factory) clientConfig(settings *domain.GenerationSettings) ClientConfig {
	return ClientConfig{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		HTTPClient: f.httpClient,
	}
}
