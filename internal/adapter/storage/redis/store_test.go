package redis_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"lightning-payment-gateway/internal/adapter/storage/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewStore(client), mr
}

func TestStore_GetSetDelete(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	val, err := store.Get(ctx, "merchant:m_1")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, store.Set(ctx, "merchant:m_1", []byte(`{"id":"m_1"}`), 0))
	require.NoError(t, store.Set(ctx, "apikey:gp_1", []byte("m_1"), 0))

	val, err = store.Get(ctx, "merchant:m_1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"m_1"}`, string(val))
	assert.Zero(t, mr.TTL("merchant:m_1"), "zero ttl keeps the key forever")

	require.NoError(t, store.Delete(ctx, "merchant:m_1", "apikey:gp_1", "apikey:missing"))
	assert.False(t, mr.Exists("merchant:m_1"))
	assert.False(t, mr.Exists("apikey:gp_1"))
	assert.NoError(t, store.Delete(ctx))
}

func TestStore_SetWithTTL(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "payment:p1", []byte("{}"), 24*time.Hour))
	assert.Equal(t, 24*time.Hour, mr.TTL("payment:p1"))

	mr.FastForward(24*time.Hour + time.Second)
	val, err := store.Get(ctx, "payment:p1")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestStore_Update(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	t.Run("creates missing key", func(t *testing.T) {
		err := store.Update(ctx, "addr_usage:m_1", 0, func(cur []byte) ([]byte, error) {
			assert.Nil(t, cur)
			return []byte(`{"0":1}`), nil
		})
		require.NoError(t, err)
		got, _ := mr.Get("addr_usage:m_1")
		assert.Equal(t, `{"0":1}`, got)
	})

	t.Run("sees current value", func(t *testing.T) {
		err := store.Update(ctx, "addr_usage:m_1", time.Hour, func(cur []byte) ([]byte, error) {
			assert.Equal(t, `{"0":1}`, string(cur))
			return []byte(`{"0":2}`), nil
		})
		require.NoError(t, err)
		got, _ := mr.Get("addr_usage:m_1")
		assert.Equal(t, `{"0":2}`, got)
		assert.Equal(t, time.Hour, mr.TTL("addr_usage:m_1"))
	})

	t.Run("nil result skips the write", func(t *testing.T) {
		err := store.Update(ctx, "addr_usage:m_1", 0, func(cur []byte) ([]byte, error) {
			return nil, nil
		})
		require.NoError(t, err)
		got, _ := mr.Get("addr_usage:m_1")
		assert.Equal(t, `{"0":2}`, got)
	})

	t.Run("fn error is returned as is", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.Update(ctx, "addr_usage:m_1", 0, func(cur []byte) ([]byte, error) {
			return []byte("x"), boom
		})
		assert.ErrorIs(t, err, boom)
		got, _ := mr.Get("addr_usage:m_1")
		assert.Equal(t, `{"0":2}`, got)
	})
}

func TestStore_Update_ConcurrentWritersAllApply(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	const writers = 10

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Update(ctx, "counter", 0, func(cur []byte) ([]byte, error) {
				n := 0
				if cur != nil {
					n, _ = strconv.Atoi(string(cur))
				}
				return []byte(strconv.Itoa(n + 1)), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := mr.Get("counter")
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(writers), got)
}
