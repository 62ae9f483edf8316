package bolt

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var bucketKV = []byte("kv")

// headerSize is the expiry prefix stored before every value.
const headerSize = 8

// Store implements ports.KeyValueStore on a single bbolt bucket. Each value
// is prefixed with its expiry as big-endian Unix nanoseconds (0 = never).
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the bbolt database at path.
// The parent directory is created if it does not exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("bolt: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketKV)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt: create bucket: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Get returns nil, nil for missing and expired keys.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		out = s.live(tx.Bucket(bucketKV).Get([]byte(key)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bolt get %s: %w", key, err)
	}
	return out, nil
}

// Set writes value with an optional ttl.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketKV).Put([]byte(key), s.encode(value, ttl))
	})
	if err != nil {
		return fmt.Errorf("bolt set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys; missing keys are ignored.
func (s *Store) Delete(_ context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketKV)
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bolt delete: %w", err)
	}
	return nil
}

// Update runs fn inside a single write transaction. bbolt serializes
// writers, so fn runs exactly once.
func (s *Store) Update(_ context.Context, key string, ttl time.Duration, fn func(current []byte) ([]byte, error)) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketKV)
		next, err := fn(s.live(b.Get([]byte(key))))
		if err != nil || next == nil {
			return err
		}
		return b.Put([]byte(key), s.encode(next, ttl))
	})
}

// Sweep deletes expired entries and reports how many were removed.
func (s *Store) Sweep() (int, error) {
	now := s.now().UnixNano()
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketKV)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			if expired(v, now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("bolt sweep: %w", err)
	}
	return removed, nil
}

// RunJanitor sweeps every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration, onSweep func(removed int, err error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep()
			if onSweep != nil {
				onSweep(n, err)
			}
		}
	}
}

// Ping implements ports.HealthChecker.
func (s *Store) Ping(_ context.Context) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketKV) == nil {
			return fmt.Errorf("bolt: bucket %q missing", bucketKV)
		}
		return nil
	})
}

// Name returns the dependency name.
func (s *Store) Name() string { return "bolt" }

func (s *Store) encode(value []byte, ttl time.Duration) []byte {
	buf := make([]byte, headerSize+len(value))
	if ttl > 0 {
		binary.BigEndian.PutUint64(buf, uint64(s.now().Add(ttl).UnixNano()))
	}
	copy(buf[headerSize:], value)
	return buf
}

// live copies the payload of raw out of the transaction, or returns nil
// when raw is absent or expired.
func (s *Store) live(raw []byte) []byte {
	if raw == nil || len(raw) < headerSize || expired(raw, s.now().UnixNano()) {
		return nil
	}
	out := make([]byte, len(raw)-headerSize)
	copy(out, raw[headerSize:])
	return out
}

func expired(raw []byte, now int64) bool {
	if len(raw) < headerSize {
		return true
	}
	exp := int64(binary.BigEndian.Uint64(raw))
	return exp != 0 && exp <= now
}
