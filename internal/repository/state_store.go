package repository

import (
	"context"
	"time"
)

// StateStore abstracts ephemeral key-value state with optional TTL.
// Implementations: Redis (shared across instances) or in-memory (single instance).
type StateStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// Get returns nil, nil for a missing or expired key.
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
