package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates archive writers across processes.
// The server and the CLI may rewrite the same archive, so every
// read-modify-write of the vault runs under a named lock.
type DistributedLock interface {
	// Acquire attempts to acquire a named lock with the given TTL.
	// Returns true if the lock was acquired, false if already held by another holder.
	// The lock may expire after TTL (implementation dependent).
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release releases a named lock.
	// Safe to call even if the lock is not held or has expired.
	Release(ctx context.Context, name string) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
