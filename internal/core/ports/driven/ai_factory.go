package driven

import (
	"context"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
)

// GeneratorFactory creates generation providers based on configuration
type GeneratorFactory interface {
	// CreateTextGenerator creates a text generator from settings.
	// Returns nil, nil if settings are not configured.
	CreateTextGenerator(ctx context.Context, settings *domain.GenerationSettings) (TextGenerator, error)

	// CreateImageGenerator creates an image generator from settings.
	// Returns nil, nil if no image model is configured.
	CreateImageGenerator(ctx context.Context, settings *domain.GenerationSettings) (ImageGenerator, error)
}
