package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.ArchiveStore = (*ArchiveStore)(nil)

// ArchiveStore implements driven.ArchiveStore using a single Redis string.
// The whole vault lives under one key as the textual array-of-records payload,
// so a Save replaces the collection atomically.
type ArchiveStore struct {
	client *redis.Client
	key    string
}

// NewArchiveStore creates a new Redis-backed ArchiveStore under driven.ArchiveKey
func NewArchiveStore(client *redis.Client) *ArchiveStore {
	return &ArchiveStore{client: client, key: driven.ArchiveKey}
}

// Load reads and decodes the archive. A missing key is an empty vault.
func (s *ArchiveStore) Load(ctx context.Context) ([]*domain.VaultEntry, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []*domain.VaultEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archive: %w", err)
	}

	return domain.DecodeArchive(data)
}

// Save replaces the archive with entries
func (s *ArchiveStore) Save(ctx context.Context, entries []*domain.VaultEntry) error {
	data, err := domain.EncodeVaultPayload(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal archive: %w", err)
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save archive: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable
func (s *ArchiveStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
