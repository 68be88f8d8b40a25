package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// Ensure ArchiveStore implements driven.ArchiveStore
var _ driven.ArchiveStore = (*ArchiveStore)(nil)

// ArchiveStore keeps the serialised vault payload in memory.
// It stores the same textual payload the durable stores write so decoding
// behaves identically in development and tests.
type ArchiveStore struct {
	mu      sync.RWMutex
	payload []byte
}

// NewArchiveStore creates an empty in-memory archive
func NewArchiveStore() *ArchiveStore {
	return &ArchiveStore{}
}

// Load decodes the stored payload
func (s *ArchiveStore) Load(ctx context.Context) ([]*domain.VaultEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.DecodeArchive(s.payload)
}

// Save replaces the stored payload
func (s *ArchiveStore) Save(ctx context.Context, entries []*domain.VaultEntry) error {
	data, err := domain.EncodeVaultPayload(entries)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = data
	return nil
}

// SetRaw replaces the stored payload with arbitrary bytes
func (s *ArchiveStore) SetRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = append([]byte(nil), data...)
}
