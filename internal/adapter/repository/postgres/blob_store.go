// Package postgres stores ledger blobs in a PostgreSQL key/value table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/edufinance/internal/domain"
)

const (
	getBlobQuery = `SELECT value::text FROM kv_store WHERE key = $1`
	putBlobQuery = `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()`
)

// BlobStore implements usecase.BlobStore on the kv_store table. Values
// must be JSON documents.
type BlobStore struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewBlobStore creates a new BlobStore.
func NewBlobStore(pool *pgxpool.Pool, retrier *Retrier) *BlobStore {
	if retrier == nil {
		retrier = NewRetrier(DefaultRetryPolicy())
	}

	return &BlobStore{
		pool:    pool,
		retrier: retrier,
	}
}

// Get returns the value stored under key.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.pool.QueryRow(ctx, getBlobQuery, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrBlobNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}

	return []byte(value), nil
}

// Put upserts the value under key.
func (s *BlobStore) Put(ctx context.Context, key string, value []byte) error {
	err := s.retrier.Retry(ctx, key, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, putBlobQuery, key, string(value))
		return err
	})
	if err != nil {
		return fmt.Errorf("put blob %s: %w", key, err)
	}

	return nil
}

// Ping checks the database connection.
func (s *BlobStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
