package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// Ensure KnowledgeStore implements driven.KnowledgeStore
var _ driven.KnowledgeStore = (*KnowledgeStore)(nil)

// KnowledgeStore is the process-scoped, append-only chunk table.
// Writers append whole chunks under the write lock; readers take a snapshot of
// the slice header, which later appends never modify.
type KnowledgeStore struct {
	mu     sync.RWMutex
	chunks []*domain.DocumentChunk
	ids    map[string]struct{}
	byFile map[string][]int
}

// NewKnowledgeStore creates an empty knowledge store
func NewKnowledgeStore() *KnowledgeStore {
	return &KnowledgeStore{
		ids:    make(map[string]struct{}),
		byFile: make(map[string][]int),
	}
}

// Ingest appends chunks for a file. The batch is validated as a whole and
// either appended completely or rejected.
func (s *KnowledgeStore) Ingest(ctx context.Context, fileID string, chunks []*domain.DocumentChunk) error {
	if fileID == "" {
		return fmt.Errorf("%w: file id required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		if c == nil || c.ID == "" {
			return fmt.Errorf("%w: chunk id required", domain.ErrInvalidInput)
		}
		if c.FileID != fileID {
			return fmt.Errorf("%w: chunk %s belongs to file %s, not %s", domain.ErrInvalidInput, c.ID, c.FileID, fileID)
		}
		if _, dup := s.ids[c.ID]; dup {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateChunk, c.ID)
		}
		if _, dup := batch[c.ID]; dup {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateChunk, c.ID)
		}
		batch[c.ID] = struct{}{}
	}

	for _, c := range chunks {
		stored := *c
		stored.Keywords = append([]string(nil), c.Keywords...)
		s.ids[c.ID] = struct{}{}
		s.byFile[fileID] = append(s.byFile[fileID], len(s.chunks))
		s.chunks = append(s.chunks, &stored)
	}
	return nil
}

// Snapshot returns all chunks in insertion order.
// The returned chunks are shared and must not be modified.
func (s *KnowledgeStore) Snapshot(ctx context.Context) ([]*domain.DocumentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks[:len(s.chunks):len(s.chunks)], nil
}

// ByFile returns the chunks owned by fileID in insertion order.
func (s *KnowledgeStore) ByFile(ctx context.Context, fileID string) ([]*domain.DocumentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.byFile[fileID]
	result := make([]*domain.DocumentChunk, len(idx))
	for i, n := range idx {
		result[i] = s.chunks[n]
	}
	return result, nil
}

// Count returns the number of stored chunks
func (s *KnowledgeStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}
