package driven

import (
	"context"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
)

// ArchiveKey is the fixed namespace the vault collection is stored under
const ArchiveKey = "galaxy_vault_entries"

// ArchiveStore persists the whole vault collection as one blob (Redis, PostgreSQL, memory)
type ArchiveStore interface {
	// Load returns the stored collection.
	// A missing archive yields an empty collection; an unreadable one returns an
	// error wrapping domain.ErrCorruptArchive.
	Load(ctx context.Context) ([]*domain.VaultEntry, error)

	// Save replaces the stored collection wholesale
	Save(ctx context.Context, entries []*domain.VaultEntry) error
}
