// Package memory holds blobs in process memory. Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/iho/edufinance/internal/domain"
)

// BlobStore implements usecase.BlobStore with a map.
type BlobStore struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewBlobStore creates an empty BlobStore.
func NewBlobStore() *BlobStore {
	return &BlobStore{data: make(map[string][]byte)}
}

func (s *BlobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBlobNotFound, key)
	}

	return append([]byte(nil), value...), nil
}

func (s *BlobStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *BlobStore) Ping(context.Context) error { return nil }
