package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// connectTestDB connects to GALAXY_TEST_DATABASE_URL or skips the test
func connectTestDB(t *testing.T) *DB {
	t.Helper()

	url := os.Getenv("GALAXY_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("GALAXY_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, DefaultConfig(url))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM archives WHERE key = $1`, driven.ArchiveKey); err != nil {
		t.Fatalf("reset archive: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testEntries() []*domain.VaultEntry {
	return []*domain.VaultEntry{{
		ID:        "entry-1",
		Title:     "Delta soils",
		Content:   "Alluvial deposits make the delta fertile.",
		CreatedAt: time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC),
		Size:      "0.0 KB",
		Status:    domain.SyncStatusArchivedRemote,
	}}
}

func TestHashLockName(t *testing.T) {
	if hashLockName("vault") != hashLockName("vault") {
		t.Error("expected stable hash")
	}
	if hashLockName("vault") == hashLockName("uploads") {
		t.Error("expected distinct names to hash differently")
	}
}

func TestArchiveStore_Integration(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()
	store := NewArchiveStore(db, nil)

	entries, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty archive, got %d", len(entries))
	}

	if err := store.Save(ctx, testEntries()); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Delta soils" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestArchiveStore_Sealed(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	sealer, err := NewPayloadSealer(testKey)
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}
	sealed := NewArchiveStore(db, sealer)
	if err := sealed.Save(ctx, testEntries()); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := sealed.Load(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected sealed round trip, got %v, %v", entries, err)
	}

	if _, err := NewArchiveStore(db, nil).Load(ctx); !errors.Is(err, ErrSealedArchive) {
		t.Errorf("expected ErrSealedArchive, got %v", err)
	}
}

func TestAdvisoryLock_Integration(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	server := NewAdvisoryLock(db)
	cli := NewAdvisoryLock(db)

	acquired, err := server.Acquire(ctx, "vault", time.Minute)
	if err != nil || !acquired {
		t.Fatalf("expected to acquire, got %v, %v", acquired, err)
	}
	if acquired, _ := cli.Acquire(ctx, "vault", time.Minute); acquired {
		t.Error("expected lock to be held")
	}

	if err := server.Release(ctx, "vault"); err != nil {
		t.Fatalf("release: %v", err)
	}
	acquired, err = cli.Acquire(ctx, "vault", time.Minute)
	if err != nil || !acquired {
		t.Errorf("expected to acquire after release, got %v, %v", acquired, err)
	}
	_ = cli.Release(ctx, "vault")
}
