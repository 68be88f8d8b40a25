package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, func() {
		client.Close()
		mr.Close()
	}
}

func TestNewLock_UniqueOwners(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	server := NewLock(client)
	cli := NewLock(client)

	if server.OwnerID() == "" {
		t.Error("expected non-empty owner ID")
	}
	if server.OwnerID() == cli.OwnerID() {
		t.Errorf("expected unique owner IDs, got same: %s", server.OwnerID())
	}
}

func TestLock_ArchiveWriters(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	server := NewLock(client)
	cli := NewLock(client)
	ctx := context.Background()

	acquired, err := server.Acquire(ctx, "vault", 10*time.Second)
	if err != nil || !acquired {
		t.Fatalf("expected server to acquire, got %v, %v", acquired, err)
	}

	// Neither the holder nor another process can take it again
	for name, l := range map[string]*Lock{"server": server, "cli": cli} {
		acquired, err := l.Acquire(ctx, "vault", 10*time.Second)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if acquired {
			t.Errorf("%s: expected lock to be held", name)
		}
	}

	// A foreign release leaves the lock in place
	if err := cli.Release(ctx, "vault"); err != nil {
		t.Fatalf("unexpected release error: %v", err)
	}
	if acquired, _ := cli.Acquire(ctx, "vault", 10*time.Second); acquired {
		t.Error("expected foreign release to be ignored")
	}

	if err := server.Release(ctx, "vault"); err != nil {
		t.Fatalf("unexpected release error: %v", err)
	}
	if acquired, _ := cli.Acquire(ctx, "vault", 10*time.Second); !acquired {
		t.Error("expected cli to acquire after release")
	}
}

func TestLock_Release_NotHeld(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	if err := NewLock(client).Release(context.Background(), "vault"); err != nil {
		t.Errorf("expected no error releasing unheld lock, got %v", err)
	}
}

func TestLock_Expires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	server := NewLock(client)
	cli := NewLock(client)
	ctx := context.Background()

	if acquired, _ := server.Acquire(ctx, "vault", time.Second); !acquired {
		t.Fatal("expected to acquire lock")
	}
	if !mr.Exists(lockPrefix + "vault") {
		t.Fatalf("expected key %s", lockPrefix+"vault")
	}

	mr.FastForward(2 * time.Second)

	if acquired, _ := cli.Acquire(ctx, "vault", time.Second); !acquired {
		t.Error("expected expired lock to be acquirable")
	}
}

func TestLock_ConcurrentAcquire(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acquired, err := NewLock(client).Acquire(ctx, "vault", 10*time.Second)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if acquired {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("expected exactly one winner, got %d", winners)
	}
}

func TestLock_Ping(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	if err := NewLock(client).Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}
}
