package driven

import (
	"context"
	"iter"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
)

// TextGenerator produces streamed answers from a generation provider
type TextGenerator interface {
	// StreamAnswer requests a streamed answer.
	// The returned sequence is lazy, finite and can be ranged over once.
	// A failure is yielded as the final element; text yielded before it stays valid.
	StreamAnswer(ctx context.Context, req domain.GenerationRequest) iter.Seq2[string, error]

	// Model returns the model name being used
	Model() string

	// Ping verifies the provider is reachable
	Ping(ctx context.Context) error

	// Close releases resources held by the generator
	Close() error
}

// ImageGenerator produces an illustrative image for a question
type ImageGenerator interface {
	// GenerateImage returns at most one image; there are no partial results
	GenerateImage(ctx context.Context, req domain.ImageRequest) (*domain.Image, error)

	// Model returns the model name being used
	Model() string

	// Close releases resources held by the generator
	Close() error
}
