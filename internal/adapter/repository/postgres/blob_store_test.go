package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/edufinance/internal/domain"
	infrapg "github.com/iho/edufinance/internal/infrastructure/postgres"
)

// newTestBlobStore connects to TEST_DATABASE_URL, skipping when it is unset.
func newTestBlobStore(t *testing.T) *BlobStore {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	require.NoError(t, infrapg.RunMigrations(dbURL))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := infrapg.NewPool(ctx, dbURL, 2, 0)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `DELETE FROM kv_store WHERE key LIKE 'test:%'`)
	require.NoError(t, err)

	return NewBlobStore(pool, nil)
}

func TestBlobStore_RoundTrip(t *testing.T) {
	store := newTestBlobStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "test:ledger")
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)

	require.NoError(t, store.Put(ctx, "test:ledger", []byte(`[{"id":"a"}]`)))
	require.NoError(t, store.Put(ctx, "test:ledger", []byte(`[]`)))

	got, err := store.Get(ctx, "test:ledger")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(got))

	assert.NoError(t, store.Ping(ctx))
}
