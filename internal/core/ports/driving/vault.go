package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
)

// VaultService manages the archive of settled turns
type VaultService interface {
	// Record archives a settled turn when tracking is enabled.
	// Returns nil without error when tracking is off.
	Record(ctx context.Context, title, content string) (*domain.VaultEntry, error)

	// List returns all entries, newest first
	List(ctx context.Context) ([]*domain.VaultEntry, error)

	// Get retrieves an entry by ID
	Get(ctx context.Context, id string) (*domain.VaultEntry, error)

	// Import validates an untrusted payload and merges it into the vault.
	// Nothing is committed when validation fails.
	Import(ctx context.Context, payload []byte) (*domain.MergeReport, error)

	// Export serialises the vault, named after the given day
	Export(ctx context.Context, now time.Time) (*domain.VaultExport, error)

	// MarkSynced marks every entry archived-remote and returns how many changed
	MarkSynced(ctx context.Context) (int, error)

	// Restore rebuilds conversation turns from an archived entry
	Restore(ctx context.Context, id string) ([]*domain.ConversationTurn, error)

	// SetTracking toggles automatic archival of settled turns
	SetTracking(enabled bool)

	// Tracking reports whether automatic archival is enabled
	Tracking() bool
}
