// Package idempotency defines the external key store that makes webhook
// side effects at-most-once across redeliveries and process restarts.
package idempotency

import (
	"context"
	"time"
)

// Store reserves idempotency keys.
type Store interface {
	// Acquire claims key for ttl. It returns false when the key is already
	// held, either by a completed effect or one still in flight.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees key so a later attempt can claim it again.
	Release(ctx context.Context, key string) error
}
