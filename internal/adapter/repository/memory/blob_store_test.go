package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/edufinance/internal/domain"
)

func TestBlobStore(t *testing.T) {
	ctx := context.Background()
	store := NewBlobStore()

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)

	value := []byte("v1")
	require.NoError(t, store.Put(ctx, "k", value))
	value[0] = 'X'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	got[0] = 'Y'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(again))

	assert.NoError(t, store.Ping(ctx))
}
