package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

var _ driven.KnowledgeStore = (*MockKnowledgeStore)(nil)

// MockKnowledgeStore is a mock implementation of KnowledgeStore for testing
type MockKnowledgeStore struct {
	IngestFn func(ctx context.Context, fileID string, chunks []*domain.DocumentChunk) error

	mu      sync.RWMutex
	chunks  []*domain.DocumentChunk
	ingests int
}

// NewMockKnowledgeStore creates a store preloaded with chunks
func NewMockKnowledgeStore(chunks ...*domain.DocumentChunk) *MockKnowledgeStore {
	return &MockKnowledgeStore{chunks: chunks}
}

func (m *MockKnowledgeStore) Ingest(ctx context.Context, fileID string, chunks []*domain.DocumentChunk) error {
	if m.IngestFn != nil {
		if err := m.IngestFn(ctx, fileID, chunks); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, chunks...)
	m.ingests++
	return nil
}

func (m *MockKnowledgeStore) Snapshot(ctx context.Context) ([]*domain.DocumentChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.DocumentChunk(nil), m.chunks...), nil
}

func (m *MockKnowledgeStore) ByFile(ctx context.Context, fileID string) ([]*domain.DocumentChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.DocumentChunk
	for _, c := range m.chunks {
		if c.FileID == fileID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *MockKnowledgeStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// Ingests returns how many batches were accepted
func (m *MockKnowledgeStore) Ingests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ingests
}
