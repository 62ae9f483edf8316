package ports

import (
	"context"
	"time"
)

// KeyValueStore is the generic keyed store every repository is built on.
// Values are opaque bytes; a ttl of 0 means the key never expires.
type KeyValueStore interface {
	// Get returns nil, nil when the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Update reads key, hands the current value (nil if missing) to fn and
	// writes fn's result with ttl, atomically with respect to other Updates
	// on the same key. A nil result from fn skips the write. fn may be
	// invoked more than once when the backend retries on contention.
	Update(ctx context.Context, key string, ttl time.Duration, fn func(current []byte) ([]byte, error)) error
}

// RateLimitStore counts requests in fixed windows.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}
