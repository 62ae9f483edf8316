package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "lpg.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestStore_GetSetDelete(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	val, err := s.Get(ctx, "merchant:m_1")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Set(ctx, "merchant:m_1", []byte(`{"id":"m_1"}`), 0))
	require.NoError(t, s.Set(ctx, "apikey:gp_1", []byte("m_1"), 0))

	val, err = s.Get(ctx, "merchant:m_1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"m_1"}`, string(val))

	require.NoError(t, s.Delete(ctx, "merchant:m_1", "apikey:gp_1", "apikey:missing"))
	val, err = s.Get(ctx, "apikey:gp_1")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestStore_TTL(t *testing.T) {
	s, now := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "payment:p1", []byte("{}"), time.Hour))
	require.NoError(t, s.Set(ctx, "merchant:m_1", []byte("{}"), 0))

	*now = now.Add(59 * time.Minute)
	val, err := s.Get(ctx, "payment:p1")
	require.NoError(t, err)
	assert.NotNil(t, val)

	*now = now.Add(time.Minute)
	val, err = s.Get(ctx, "payment:p1")
	require.NoError(t, err)
	assert.Nil(t, val, "expired at exactly the deadline")

	removed, err := s.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	val, err = s.Get(ctx, "merchant:m_1")
	require.NoError(t, err)
	assert.NotNil(t, val, "keys without ttl survive a sweep")
}

func TestStore_Update(t *testing.T) {
	s, now := openTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, "payment:p1", time.Hour, func(cur []byte) ([]byte, error) {
		assert.Nil(t, cur)
		return []byte("pending"), nil
	})
	require.NoError(t, err)

	err = s.Update(ctx, "payment:p1", time.Hour, func(cur []byte) ([]byte, error) {
		assert.Equal(t, "pending", string(cur))
		return nil, nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.Update(ctx, "payment:p1", time.Hour, func(cur []byte) ([]byte, error) {
		return []byte("completed"), boom
	})
	assert.ErrorIs(t, err, boom)

	val, _ := s.Get(ctx, "payment:p1")
	assert.Equal(t, "pending", string(val), "failed fn rolls back")

	*now = now.Add(2 * time.Hour)
	err = s.Update(ctx, "payment:p1", time.Hour, func(cur []byte) ([]byte, error) {
		assert.Nil(t, cur, "expired value is not visible to fn")
		return nil, nil
	})
	require.NoError(t, err)
}

func TestStore_Update_Concurrent(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, "counter", 0, func(cur []byte) ([]byte, error) {
				n, _ := strconv.Atoi(string(cur))
				return []byte(strconv.Itoa(n + 1)), nil
			})
		}()
	}
	wg.Wait()

	val, err := s.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "20", string(val))
}

func TestStore_Health(t *testing.T) {
	s, _ := openTestStore(t)
	assert.Equal(t, "bolt", s.Name())
	assert.NoError(t, s.Ping(context.Background()))
}

func TestStore_RunJanitor(t *testing.T) {
	s, now := openTestStore(t)
	require.NoError(t, s.Set(context.Background(), "k", []byte("v"), time.Second))
	*now = now.Add(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	swept := make(chan int, 1)
	go s.RunJanitor(ctx, 10*time.Millisecond, func(n int, err error) {
		if n > 0 {
			select {
			case swept <- n:
			default:
			}
		}
	})
	defer cancel()

	select {
	case n := <-swept:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not sweep")
	}
}
