package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

var _ driven.ArchiveStore = (*MockArchiveStore)(nil)

// MockArchiveStore is a mock implementation of ArchiveStore for testing.
// It keeps copies of saved entries and counts saves.
type MockArchiveStore struct {
	LoadErr error
	SaveErr error

	mu      sync.Mutex
	entries []*domain.VaultEntry
	saves   int
}

// NewMockArchiveStore creates a store preloaded with entries
func NewMockArchiveStore(entries ...*domain.VaultEntry) *MockArchiveStore {
	return &MockArchiveStore{entries: cloneEntries(entries)}
}

func (m *MockArchiveStore) Load(ctx context.Context) ([]*domain.VaultEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return cloneEntries(m.entries), nil
}

func (m *MockArchiveStore) Save(ctx context.Context, entries []*domain.VaultEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.entries = cloneEntries(entries)
	m.saves++
	return nil
}

// Entries returns the last saved collection
func (m *MockArchiveStore) Entries() []*domain.VaultEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneEntries(m.entries)
}

// Saves returns how many times Save succeeded
func (m *MockArchiveStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func cloneEntries(entries []*domain.VaultEntry) []*domain.VaultEntry {
	out := make([]*domain.VaultEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
