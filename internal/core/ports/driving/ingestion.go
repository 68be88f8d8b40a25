package driving

import (
	"context"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
)

// IngestionService turns uploaded files into searchable knowledge
type IngestionService interface {
	// Submit registers a new file with progress 0 and status processing
	Submit(ctx context.Context, upload domain.FileUpload) (*domain.UploadedFile, error)

	// List returns all known files, newest first
	List(ctx context.Context) []*domain.UploadedFile

	// Get retrieves a file by ID
	Get(ctx context.Context, id string) (*domain.UploadedFile, error)

	// Remove forgets a file. Chunks it already produced stay in the knowledge store.
	Remove(ctx context.Context, id string) error

	// Progress returns the rounded mean progress of processing files.
	// The boolean is false when no file is processing.
	Progress() (int, bool)

	// Subscribe returns a channel of ingestion events and a cancel function
	Subscribe() (<-chan domain.IngestionEvent, func())
}
