package mocks

import (
	"context"
	"iter"
	"sync"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

var (
	_ driven.TextGenerator  = (*MockTextGenerator)(nil)
	_ driven.ImageGenerator = (*MockImageGenerator)(nil)
)

// Stream yields the given pieces in order, then err when it is non-nil.
// It stops early when the consumer stops ranging.
func Stream(pieces []string, err error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range pieces {
			if !yield(p, nil) {
				return
			}
		}
		if err != nil {
			yield("", err)
		}
	}
}

// BlockingStream yields the given pieces and then waits until ctx is done,
// finally yielding ctx.Err(). Useful for cancellation and timeout tests.
func BlockingStream(ctx context.Context, pieces ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range pieces {
			if !yield(p, nil) {
				return
			}
		}
		<-ctx.Done()
		yield("", ctx.Err())
	}
}

// MockTextGenerator is a mock implementation of TextGenerator for testing.
// By default it streams the configured pieces.
type MockTextGenerator struct {
	StreamFn func(ctx context.Context, req domain.GenerationRequest) iter.Seq2[string, error]
	PingErr  error

	pieces []string

	mu       sync.Mutex
	requests []domain.GenerationRequest
}

// NewMockTextGenerator creates a generator that streams pieces
func NewMockTextGenerator(pieces ...string) *MockTextGenerator {
	return &MockTextGenerator{pieces: pieces}
}

func (m *MockTextGenerator) StreamAnswer(ctx context.Context, req domain.GenerationRequest) iter.Seq2[string, error] {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.StreamFn != nil {
		return m.StreamFn(ctx, req)
	}
	return Stream(m.pieces, nil)
}

func (m *MockTextGenerator) Model() string {
	return "mock-text-model"
}

func (m *MockTextGenerator) Ping(ctx context.Context) error {
	return m.PingErr
}

func (m *MockTextGenerator) Close() error {
	return nil
}

// Requests returns the requests received so far
func (m *MockTextGenerator) Requests() []domain.GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.GenerationRequest(nil), m.requests...)
}

// MockImageGenerator is a mock implementation of ImageGenerator for testing
type MockImageGenerator struct {
	GenerateFn func(ctx context.Context, req domain.ImageRequest) (*domain.Image, error)

	mu       sync.Mutex
	requests []domain.ImageRequest
}

// NewMockImageGenerator creates a generator returning a tiny PNG payload
func NewMockImageGenerator() *MockImageGenerator {
	return &MockImageGenerator{}
}

func (m *MockImageGenerator) GenerateImage(ctx context.Context, req domain.ImageRequest) (*domain.Image, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, req)
	}
	return &domain.Image{MimeType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}, nil
}

func (m *MockImageGenerator) Model() string {
	return "mock-image-model"
}

func (m *MockImageGenerator) Close() error {
	return nil
}

// Requests returns the requests received so far
func (m *MockImageGenerator) Requests() []domain.ImageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ImageRequest(nil), m.requests...)
}
