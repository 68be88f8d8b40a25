package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driving"
)

// Ensure VaultService implements driving.VaultService
var _ driving.VaultService = (*VaultService)(nil)

const (
	archiveLockName  = "vault"
	archiveLockTTL   = 30 * time.Second
	archiveLockWait  = 5 * time.Second
	archiveLockRetry = 50 * time.Millisecond
)

// VaultService archives settled turns and reconciles imported archives.
// Every change replaces the persisted collection as a whole. mu serialises
// writers in this process and the optional lock serialises them across processes.
type VaultService struct {
	store  driven.ArchiveStore
	lock   driven.DistributedLock
	config *domain.RuntimeConfig
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	mu sync.Mutex
}

// VaultConfig holds configuration for the vault service.
type VaultConfig struct {
	Store  driven.ArchiveStore
	Lock   driven.DistributedLock // Optional: guards rewrites shared with other processes
	Config *domain.RuntimeConfig // Tracking flag and merge key (default: tracking off, title key)
	Logger *slog.Logger

	// Now overrides the clock (default: time.Now)
	Now func() time.Time

	// NewID generates ids for imported records without one (default: domain.GenerateID)
	NewID func() string
}

// NewVaultService creates a new vault service.
func NewVaultService(cfg VaultConfig) *VaultService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	config := cfg.Config
	if config == nil {
		config = domain.NewRuntimeConfig("memory")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	newID := cfg.NewID
	if newID == nil {
		newID = domain.GenerateID
	}

	return &VaultService{
		store:  cfg.Store,
		lock:   cfg.Lock,
		config: config,
		logger: logger,
		now:    now,
		newID:  newID,
	}
}

// Record archives a settled turn when tracking is enabled.
func (s *VaultService) Record(ctx context.Context, title, content string) (*domain.VaultEntry, error) {
	if !s.config.TrackingEnabled() {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lockArchive(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	entry := domain.NewVaultEntry(title, content, s.now())
	entries = append([]*domain.VaultEntry{entry}, entries...)

	if err := s.store.Save(ctx, entries); err != nil {
		return nil, fmt.Errorf("save vault: %w", err)
	}

	s.logger.Info("turn archived", "entry_id", entry.ID, "size", entry.Size)
	return entry.Clone(), nil
}

// List returns all entries, newest first
func (s *VaultService) List(ctx context.Context) ([]*domain.VaultEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(entries)
	return entries, nil
}

// Get retrieves an entry by ID
func (s *VaultService) Get(ctx context.Context, id string) (*domain.VaultEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("vault entry %s: %w", id, domain.ErrNotFound)
}

// Import validates an untrusted payload and merges it into the vault.
// Validation covers every record before anything is merged.
func (s *VaultService) Import(ctx context.Context, payload []byte) (*domain.MergeReport, error) {
	incoming, err := domain.ParseImport(payload, s.newID)
	if err != nil {
		s.logger.Warn("vault import rejected", "error", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lockArchive(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	merged, report := MergeEntries(current, incoming, s.config.MergeKey)
	if err := s.store.Save(ctx, merged); err != nil {
		return nil, fmt.Errorf("save vault: %w", err)
	}

	s.logger.Info("vault imported",
		"imported", report.Imported,
		"added", report.Added,
		"updated", report.Updated,
		"total", report.Total,
	)
	return &report, nil
}

// Export serialises the vault, newest first, named after the given day
func (s *VaultService) Export(ctx context.Context, now time.Time) (*domain.VaultExport, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	data, err := domain.EncodeVaultPayload(entries)
	if err != nil {
		return nil, fmt.Errorf("encode vault: %w", err)
	}

	return &domain.VaultExport{
		FileName: domain.ExportFileName(now),
		Data:     data,
		Count:    len(entries),
	}, nil
}

// MarkSynced marks every entry archived-remote and returns how many changed
func (s *VaultService) MarkSynced(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lockArchive(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, e := range entries {
		if e.Status != domain.SyncStatusArchivedRemote {
			e.Status = domain.SyncStatusArchivedRemote
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}

	if err := s.store.Save(ctx, entries); err != nil {
		return 0, fmt.Errorf("save vault: %w", err)
	}
	return changed, nil
}

// Restore rebuilds conversation turns from an archived entry:
// a restoration notice, the original question and the archived answer.
func (s *VaultService) Restore(ctx context.Context, id string) ([]*domain.ConversationTurn, error) {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return []*domain.ConversationTurn{
		{
			ID:        "start",
			Role:      domain.RoleAssistant,
			Content:   restoredWelcome,
			CreatedAt: s.now(),
			Settled:   true,
		},
		{
			ID:        "restored-user-" + entry.ID,
			Role:      domain.RoleUser,
			Content:   entry.Title,
			CreatedAt: entry.CreatedAt,
			Settled:   true,
		},
		{
			ID:        "restored-assistant-" + entry.ID,
			Role:      domain.RoleAssistant,
			Content:   restoredPrefix + entry.Content,
			CreatedAt: entry.CreatedAt,
			Grounded:  true,
			Settled:   true,
		},
	}, nil
}

// SetTracking toggles automatic archival of settled turns
func (s *VaultService) SetTracking(enabled bool) {
	s.config.SetTrackingEnabled(enabled)
	s.logger.Info("vault tracking changed", "enabled", enabled)
}

// Tracking reports whether automatic archival is enabled
func (s *VaultService) Tracking() bool {
	return s.config.TrackingEnabled()
}

// lockArchive takes the cross-process archive lock, waiting up to archiveLockWait.
// The returned function releases it.
func (s *VaultService) lockArchive(ctx context.Context) (func(), error) {
	if s.lock == nil {
		return func() {}, nil
	}

	deadline := time.Now().Add(archiveLockWait)
	for {
		acquired, err := s.lock.Acquire(ctx, archiveLockName, archiveLockTTL)
		if err != nil {
			return nil, fmt.Errorf("lock archive: %w", err)
		}
		if acquired {
			return func() {
				if err := s.lock.Release(context.WithoutCancel(ctx), archiveLockName); err != nil {
					s.logger.Warn("failed to release archive lock", "error", err)
				}
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, domain.ErrArchiveBusy
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(archiveLockRetry):
		}
	}
}

// load reads the persisted collection. A corrupt archive is treated as empty.
func (s *VaultService) load(ctx context.Context) ([]*domain.VaultEntry, error) {
	entries, err := s.store.Load(ctx)
	if errors.Is(err, domain.ErrCorruptArchive) {
		s.logger.Warn("archive unreadable, starting from an empty vault", "error", err)
		return []*domain.VaultEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load vault: %w", err)
	}
	return entries, nil
}
