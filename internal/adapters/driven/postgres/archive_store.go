package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ArchiveStore = (*ArchiveStore)(nil)

// ErrSealedArchive is returned when a sealed archive is read without a key
var ErrSealedArchive = errors.New("archive is sealed and no encryption key is configured")

// ArchiveStore implements driven.ArchiveStore as a single row keyed by namespace.
// When a sealer is configured the payload is encrypted at rest.
type ArchiveStore struct {
	db     *DB
	key    string
	sealer *PayloadSealer
}

// NewArchiveStore creates a PostgreSQL-backed ArchiveStore under driven.ArchiveKey.
// sealer may be nil to store the payload in clear text.
func NewArchiveStore(db *DB, sealer *PayloadSealer) *ArchiveStore {
	return &ArchiveStore{db: db, key: driven.ArchiveKey, sealer: sealer}
}

// Load reads and decodes the archive. A missing row is an empty vault.
// Sealed payloads that cannot be opened are an error, not an empty vault,
// so a wrong key never leads to the archive being overwritten.
func (s *ArchiveStore) Load(ctx context.Context) ([]*domain.VaultEntry, error) {
	var (
		payload []byte
		sealed  bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, sealed FROM archives WHERE key = $1`, s.key,
	).Scan(&payload, &sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return []*domain.VaultEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archive: %w", err)
	}

	payload, err = s.open(payload, sealed)
	if err != nil {
		return nil, err
	}
	return domain.DecodeArchive(payload)
}

// Save replaces the archive with entries
func (s *ArchiveStore) Save(ctx context.Context, entries []*domain.VaultEntry) error {
	payload, err := domain.EncodeVaultPayload(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal archive: %w", err)
	}

	sealed := s.sealer != nil
	if sealed {
		if payload, err = s.sealer.Seal(payload); err != nil {
			return fmt.Errorf("failed to seal archive: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO archives (key, payload, sealed, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			sealed = EXCLUDED.sealed,
			updated_at = EXCLUDED.updated_at
	`, s.key, payload, sealed)
	if err != nil {
		return fmt.Errorf("failed to save archive: %w", err)
	}
	return nil
}

func (s *ArchiveStore) open(payload []byte, sealed bool) ([]byte, error) {
	if !sealed {
		return payload, nil
	}
	if s.sealer == nil {
		return nil, ErrSealedArchive
	}
	opened, err := s.sealer.Open(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return opened, nil
}
