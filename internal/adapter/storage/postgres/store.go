package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Store implements ports.KeyValueStore on the kv_store table.
type Store struct {
	pool Pool
	now  func() time.Time
}

// NewStore creates a PostgreSQL-backed keyed store.
func NewStore(pool Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

// Get returns nil, nil for missing and expired keys.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM kv_store
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)`

	var value []byte
	err := s.pool.QueryRow(ctx, query, key, s.now().UTC()).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return value, nil
}

// Set upserts value; a zero ttl stores it without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.upsert(ctx, s.pool, key, value, ttl); err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys; missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM kv_store WHERE key = ANY($1)`, keys); err != nil {
		return fmt.Errorf("postgres delete: %w", err)
	}
	return nil
}

// Update serializes writers on key with a transaction-scoped advisory lock,
// which also covers keys that do not exist yet.
func (s *Store) Update(ctx context.Context, key string, ttl time.Duration, fn func(current []byte) ([]byte, error)) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("postgres lock %s: %w", key, err)
	}

	var (
		current   []byte
		expiresAt *time.Time
	)
	err = tx.QueryRow(ctx, `SELECT value, expires_at FROM kv_store WHERE key = $1 FOR UPDATE`, key).
		Scan(&current, &expiresAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		current = nil
	case err != nil:
		return fmt.Errorf("postgres get %s: %w", key, err)
	case expiresAt != nil && !expiresAt.After(s.now()):
		current = nil
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}

	if err := s.upsert(ctx, tx, key, next, ttl); err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres commit: %w", err)
	}
	committed = true
	return nil
}

// Sweep deletes expired rows.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM kv_store WHERE expires_at IS NOT NULL AND expires_at <= $1`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("postgres sweep: %w", err)
	}
	return tag.RowsAffected(), nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *Store) upsert(ctx context.Context, db execer, key string, value []byte, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := s.now().Add(ttl).UTC()
		expiresAt = &t
	}
	_, err := db.Exec(ctx,
		`INSERT INTO kv_store (key, value, expires_at, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (key) DO UPDATE
		 SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = NOW()`,
		key, value, expiresAt,
	)
	return err
}
