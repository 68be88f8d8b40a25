package driven

import (
	"context"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
)

// KnowledgeStore holds ingested chunks.
// The store is append-only: chunks are never rewritten or removed once ingested,
// so a reader never observes a partially written chunk.
type KnowledgeStore interface {
	// Ingest appends chunks produced for a completed file.
	// Every chunk must belong to fileID and carry an id not already stored.
	Ingest(ctx context.Context, fileID string, chunks []*domain.DocumentChunk) error

	// Snapshot returns all chunks in insertion order
	Snapshot(ctx context.Context) ([]*domain.DocumentChunk, error)

	// ByFile returns the chunks owned by a file in insertion order
	ByFile(ctx context.Context, fileID string) ([]*domain.DocumentChunk, error)

	// Count returns the number of stored chunks.
	// Because the store only grows, the count doubles as a version stamp.
	Count() int
}
