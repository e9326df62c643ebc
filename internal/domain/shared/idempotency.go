package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers client-supplied idempotency keys so a retried
// mutation is not applied twice.
type IdempotencyStore interface {
	// MarkProcessed claims a key for ttl.
	// Returns true if the key was newly claimed, false if it was already taken.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the key is currently claimed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release frees a key so the request can be retried (used after a failed request)
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
