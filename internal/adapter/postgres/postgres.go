// Package postgres implements the durable record store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang/snappy"
	_ "github.com/lib/pq"

	"fertility/internal/domain"
)

// Store wraps a *sql.DB and implements the record-store port over a single
// key-value table. Values are snappy-compressed JSON; the day-record blob
// grows with history, so compression keeps row size in check.
type Store struct {
	sql *sql.DB
}

// Ensure the interface is met.
var _ domain.RecordStore = (*Store)(nil)

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*Store, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	st := &Store{sql: s}
	if err := st.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return st, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.sql.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS engine_store (key TEXT PRIMARY KEY, value BYTEA NOT NULL, updated_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_engine_store_updated_at ON engine_store(updated_at);",
	}
	for _, stmt := range stmts {
		if _, err := s.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// GetItem returns the decompressed value stored under key, with ok=false
// when the key is absent.
func (s *Store) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	row := s.sql.QueryRowContext(ctx, "SELECT value FROM engine_store WHERE key=$1;", key)

	var compressed []byte
	if err := row.Scan(&compressed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	value, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, false, fmt.Errorf("decode %q: %w", key, err)
	}
	return value, true, nil
}

// SetItem compresses and upserts value under key.
func (s *Store) SetItem(ctx context.Context, key string, value []byte) error {
	compressed := snappy.Encode(nil, value)
	_, err := s.sql.ExecContext(ctx,
		"INSERT INTO engine_store(key, value, updated_at) VALUES($1, $2, $3) ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at;",
		key, compressed, time.Now().UTC(),
	)
	return err
}

// RemoveItem deletes key. Removing an absent key is not an error.
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	_, err := s.sql.ExecContext(ctx, "DELETE FROM engine_store WHERE key=$1;", key)
	return err
}
