package kvrepo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"lightning-payment-gateway/internal/core/ports"
)

// RateLimitStore implements ports.RateLimitStore with fixed-window counters
// kept in the keyed store, for backends without native counters.
type RateLimitStore struct {
	store ports.KeyValueStore
	now   func() time.Time
}

// NewRateLimitStore creates a counter-based rate limit store over store.
func NewRateLimitStore(store ports.KeyValueStore) *RateLimitStore {
	return &RateLimitStore{store: store, now: time.Now}
}

func (s *RateLimitStore) Allow(ctx context.Context, key string, limit int64, window time.Duration) (*ports.RateLimitResult, error) {
	secs := int64(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	windowID := s.now().Unix() / secs
	counterKey := fmt.Sprintf("%s%s:%d", rateLimitPrefix, key, windowID)

	var count int64
	err := s.store.Update(ctx, counterKey, time.Duration(secs+1)*time.Second, func(cur []byte) ([]byte, error) {
		count = 0
		if cur != nil {
			n, err := strconv.ParseInt(string(cur), 10, 64)
			if err == nil {
				count = n
			}
		}
		count++
		return []byte(strconv.FormatInt(count, 10)), nil
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit counter: %w", err)
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return &ports.RateLimitResult{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   (windowID + 1) * secs,
	}, nil
}
