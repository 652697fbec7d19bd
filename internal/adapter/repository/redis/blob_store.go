// Package redis implements storage adapters on Redis.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iho/edufinance/internal/domain"
)

// keyPrefix namespaces every key this service writes.
const keyPrefix = "edufinance:"

// BlobStore implements usecase.BlobStore with plain Redis strings.
type BlobStore struct {
	client *redis.Client
	prefix string
}

// NewBlobStore creates a new BlobStore.
func NewBlobStore(client *redis.Client) *BlobStore {
	return &BlobStore{
		client: client,
		prefix: keyPrefix,
	}
}

// Get retrieves a value by key.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", domain.ErrBlobNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}

	return value, nil
}

// Put stores a value without expiry.
func (s *BlobStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("put blob %s: %w", key, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *BlobStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
