package runtime

import (
	"context"
	"sync"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// Services holds references to dynamically configurable generators.
// The text and image providers can be swapped at runtime without restarting.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	// Dynamic services (can be nil, updated at runtime)
	textGenerator  driven.TextGenerator
	imageGenerator driven.ImageGenerator
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// TextGenerator returns the current text generator (may be nil)
func (s *Services) TextGenerator() driven.TextGenerator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.textGenerator
}

// ImageGenerator returns the current image generator (may be nil)
func (s *Services) ImageGenerator() driven.ImageGenerator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.imageGenerator
}

// SetTextGenerator updates the text generator.
// Closes the old generator if present. Updates config flags.
func (s *Services) SetTextGenerator(gen driven.TextGenerator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.textGenerator != nil {
		_ = s.textGenerator.Close()
	}

	s.textGenerator = gen
	s.config.SetTextAvailable(gen != nil)
}

// SetImageGenerator updates the image generator.
// Closes the old generator if present. Updates config flags.
func (s *Services) SetImageGenerator(gen driven.ImageGenerator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.imageGenerator != nil {
		_ = s.imageGenerator.Close()
	}

	s.imageGenerator = gen
	s.config.SetImageAvailable(gen != nil)
}

// Close shuts down all generators
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.textGenerator != nil {
		_ = s.textGenerator.Close()
		s.textGenerator = nil
	}
	if s.imageGenerator != nil {
		_ = s.imageGenerator.Close()
		s.imageGenerator = nil
	}

	s.config.SetTextAvailable(false)
	s.config.SetImageAvailable(false)

	return nil
}

// ValidateAndSetText validates connectivity before setting the text generator
func (s *Services) ValidateAndSetText(ctx context.Context, gen driven.TextGenerator) error {
	if gen == nil {
		s.SetTextGenerator(nil)
		return nil
	}

	if err := gen.Ping(ctx); err != nil {
		_ = gen.Close()
		return err
	}

	s.SetTextGenerator(gen)
	return nil
}
