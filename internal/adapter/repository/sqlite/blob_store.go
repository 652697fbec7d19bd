// Package sqlite stores ledger blobs in a SQLite key/value table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iho/edufinance/internal/domain"
)

// BlobStore implements usecase.BlobStore on the kv_store table.
type BlobStore struct {
	db *sql.DB
}

// NewBlobStore wraps an open database with the kv_store schema applied.
func NewBlobStore(db *sql.DB) *BlobStore {
	return &BlobStore{db: db}
}

// Get returns the value stored under key.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrBlobNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}

	return []byte(value), nil
}

// Put upserts the value under key.
func (s *BlobStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("put blob %s: %w", key, err)
	}

	return nil
}

// Ping checks the database connection.
func (s *BlobStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
