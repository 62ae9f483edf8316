package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultMaxRetries = 50

// ErrConflict is returned when an Update keeps losing its WATCH race.
var ErrConflict = errors.New("redis: too many concurrent updates")

// Store implements ports.KeyValueStore on plain Redis strings.
type Store struct {
	client     *goredis.Client
	maxRetries int
}

// NewStore creates a new Redis-backed keyed store.
func NewStore(client *goredis.Client) *Store {
	return &Store{client: client, maxRetries: defaultMaxRetries}
}

// Get returns nil, nil if the key does not exist.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Set writes value; a zero ttl keeps the key forever.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys; missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Update runs fn under WATCH and commits its result in MULTI/EXEC,
// retrying when another client touched key in between.
func (s *Store) Update(ctx context.Context, key string, ttl time.Duration, fn func(current []byte) ([]byte, error)) error {
	txf := func(tx *goredis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			cur, err = nil, nil
		}
		if err != nil {
			return fmt.Errorf("redis get %s: %w", key, err)
		}

		next, err := fn(cur)
		if err != nil || next == nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, next, ttl)
			return nil
		})
		return err
	}

	for i := 0; i < s.maxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: %s", ErrConflict, key)
}
