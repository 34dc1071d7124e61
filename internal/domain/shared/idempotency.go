package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers client-supplied request keys so a repeated
// submission can be recognised within a TTL.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been marked
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release forgets a key so the request may be submitted again,
	// used when the guarded operation failed.
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a key blocks repeated submissions. Default: 24 hours
	TTL time.Duration

	// Enabled determines whether the Idempotency-Key header is honoured
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
