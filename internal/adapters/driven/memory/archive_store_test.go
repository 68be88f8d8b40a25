package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
)

func TestArchiveStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := NewArchiveStore()

	entries, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("empty archive should load: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty archive, got %d", len(entries))
	}

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	in := []*domain.VaultEntry{{ID: "1", Title: "A", Content: "x", CreatedAt: now, Size: "0.0 KB", Status: domain.SyncStatusPendingUpload}}
	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Title != "A" || !out[0].CreatedAt.Equal(now) {
		t.Errorf("unexpected round trip result %+v", out)
	}
}

func TestArchiveStore_CorruptPayload(t *testing.T) {
	store := NewArchiveStore()
	store.SetRaw([]byte(`[{"title": 1}`))

	_, err := store.Load(context.Background())
	if !errors.Is(err, domain.ErrCorruptArchive) {
		t.Errorf("expected ErrCorruptArchive, got %v", err)
	}
}
