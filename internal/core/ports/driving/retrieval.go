package driving

import (
	"context"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
)

// RetrievalService answers relevance queries over the knowledge store
type RetrievalService interface {
	// Retrieve returns, in store order, every chunk whose content or topic
	// contains the query case-insensitively. An empty query matches nothing.
	Retrieve(ctx context.Context, query string) ([]*domain.DocumentChunk, error)

	// Context returns the matched contents joined by blank lines
	Context(ctx context.Context, query string) (string, error)
}
