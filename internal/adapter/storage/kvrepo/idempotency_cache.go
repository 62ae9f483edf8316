package kvrepo

import (
	"context"
	"fmt"
	"time"

	"lightning-payment-gateway/internal/core/ports"
)

// IdempotencyCache implements ports.IdempotencyCache over the keyed store.
type IdempotencyCache struct {
	store ports.KeyValueStore
}

// NewIdempotencyCache creates a new idempotency cache.
func NewIdempotencyCache(store ports.KeyValueStore) *IdempotencyCache {
	return &IdempotencyCache{store: store}
}

// Get retrieves a cached response by idempotency key.
// Returns nil, nil if the key does not exist.
func (c *IdempotencyCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.store.Get(ctx, idempotencyPrefix+key)
	if err != nil {
		return nil, fmt.Errorf("idempotency get: %w", err)
	}
	return val, nil
}

// Set stores a response in the idempotency cache with TTL.
func (c *IdempotencyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.store.Set(ctx, idempotencyPrefix+key, value, ttl); err != nil {
		return fmt.Errorf("idempotency set: %w", err)
	}
	return nil
}
