package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed keys so at-least-once delivery does
// not execute a side effect twice. Used for event handling and to
// single-flight external calls (charge retries, tax authority submissions).
type IdempotencyStore interface {
	// MarkProcessed records the key with a TTL. It reports true when the key
	// was newly recorded and false when it had been seen before.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the key has been recorded already.
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	Close() error
}

// IdempotencyConfig controls duplicate suppression.
type IdempotencyConfig struct {
	// TTL bounds how long a processed key is remembered; after it expires the
	// same key is treated as new again.
	TTL time.Duration

	Enabled bool
}

// DefaultIdempotencyConfig remembers keys for 24 hours.
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
