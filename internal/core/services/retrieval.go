package services

import (
	"context"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driving"
)

// Ensure retrievalService implements RetrievalService
var _ driving.RetrievalService = (*retrievalService)(nil)

// DefaultRetrievalCacheSize is the number of query results kept in memory
const DefaultRetrievalCacheSize = 256

// contextSeparator joins matched chunk contents into grounding text
const contextSeparator = "\n\n"

// retrievalService implements exact substring retrieval over the knowledge store.
// Results are cached per (store length, query); the store is append-only so its
// length identifies the version a result was computed against.
type retrievalService struct {
	store driven.KnowledgeStore
	cache *lru.Cache[string, []*domain.DocumentChunk]
}

// NewRetrievalService creates a new RetrievalService.
// A cacheSize of zero or less selects DefaultRetrievalCacheSize.
func NewRetrievalService(store driven.KnowledgeStore, cacheSize int) driving.RetrievalService {
	if cacheSize <= 0 {
		cacheSize = DefaultRetrievalCacheSize
	}
	cache, _ := lru.New[string, []*domain.DocumentChunk](cacheSize)

	return &retrievalService{
		store: store,
		cache: cache,
	}
}

// Retrieve returns every chunk whose content or topic contains the query,
// ignoring case, in store order. An empty query matches nothing.
func (s *retrievalService) Retrieve(ctx context.Context, query string) ([]*domain.DocumentChunk, error) {
	if query == "" {
		return []*domain.DocumentChunk{}, nil
	}

	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	key := strconv.Itoa(len(snapshot)) + "\x00" + needle
	if cached, ok := s.cache.Get(key); ok {
		return append([]*domain.DocumentChunk(nil), cached...), nil
	}

	matches := make([]*domain.DocumentChunk, 0)
	for _, c := range snapshot {
		if strings.Contains(strings.ToLower(c.Content), needle) ||
			strings.Contains(strings.ToLower(c.Topic), needle) {
			matches = append(matches, c)
		}
	}

	s.cache.Add(key, matches)
	return append([]*domain.DocumentChunk(nil), matches...), nil
}

// Context returns the matched contents joined by a blank line.
// An empty string means nothing relevant was found.
func (s *retrievalService) Context(ctx context.Context, query string) (string, error) {
	chunks, err := s.Retrieve(ctx, query)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, contextSeparator), nil
}
