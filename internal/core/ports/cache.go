package ports

import (
	"context"
	"time"
)

// Cache is the byte-level second tier used in front of the cache store.
// Callers treat every error as a miss and fall through to Postgres.
type Cache interface {
	// Get reports ok=false on a miss
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetIfAbsent writes only when key does not exist and reports whether it did
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// Delete of an absent key succeeds
	Delete(ctx context.Context, key string) error
}
