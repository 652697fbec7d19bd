package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/edufinance/internal/domain"
	"github.com/iho/edufinance/internal/usecase/mocks"
)

func TestReconciliationUseCase_InSync(t *testing.T) {
	blobs := newFakeBlobStore()
	store := NewLedgerStore(LedgerStoreConfig{Blobs: blobs})
	require.NoError(t, store.Add(context.Background(), income("a", "2024-01-01", 5, domain.PaymentMethodCash)))

	uc := NewReconciliationUseCase(store)
	result, err := uc.Reconcile(context.Background())
	require.NoError(t, err)

	assert.True(t, result.IsReconciled)
	assert.Equal(t, 1, result.LiveCount)
	assert.Equal(t, 1, result.StoredCount)
}

func TestReconciliationUseCase_DetectsDrift(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	store := NewLedgerStore(LedgerStoreConfig{Blobs: blobs})
	require.NoError(t, store.Add(ctx, income("a", "2024-01-01", 5, domain.PaymentMethodCash)))
	require.NoError(t, store.Add(ctx, income("b", "2024-01-02", 5, domain.PaymentMethodCash)))

	// someone else rewrote the stored ledger
	drifted := []domain.Transaction{
		income("a", "2024-01-01", 6, domain.PaymentMethodCash),
		income("c", "2024-01-03", 1, domain.PaymentMethodCash),
	}
	data, err := json.Marshal(drifted)
	require.NoError(t, err)
	blobs.data[DefaultLedgerKey] = data

	uc := NewReconciliationUseCase(store)
	result, err := uc.Reconcile(ctx)
	require.NoError(t, err)

	assert.False(t, result.IsReconciled)
	assert.Equal(t, []string{"a"}, result.Changed)
	assert.Equal(t, []string{"b"}, result.MissingStored)
	assert.Equal(t, []string{"c"}, result.MissingLive)
}

func TestReconciliationUseCase_NoDriftDuringConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	store := NewLedgerStore(LedgerStoreConfig{Blobs: blobs})
	uc := NewReconciliationUseCase(store)

	const writes = 50

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			_ = store.Add(ctx, income(fmt.Sprintf("w%d", i), "2024-03-01", 1, domain.PaymentMethodCash))
		}
	}()

	for i := 0; i < writes; i++ {
		result, err := uc.Reconcile(ctx)
		require.NoError(t, err)
		assert.True(t, result.IsReconciled, "reconcile %d saw drift: %+v", i, result)
	}

	wg.Wait()

	result, err := uc.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, result.IsReconciled)
	assert.Equal(t, writes, result.LiveCount)
}

func TestReconciliationUseCase_StorageError(t *testing.T) {
	blobs := newFakeBlobStore()
	store := NewLedgerStore(LedgerStoreConfig{Blobs: blobs})
	require.NoError(t, store.Load(context.Background()))

	blobs.getErr = errors.New("disk gone")

	_, err := NewReconciliationUseCase(store).Reconcile(context.Background())
	assert.ErrorIs(t, err, blobs.getErr)
}

func TestReconciliationUseCase_Snapshots(t *testing.T) {
	tests := []struct {
		name        string
		snap        *domain.LedgerSnapshot
		wantErr     bool
		wantMissing []string
	}{
		{
			name:        "nothing stored yet",
			snap:        &domain.LedgerSnapshot{Live: []domain.Transaction{income("a", "2024-01-01", 1, domain.PaymentMethodCash)}},
			wantMissing: []string{"a"},
		},
		{
			name:    "stored ledger is corrupt",
			snap:    &domain.LedgerSnapshot{Stored: []byte("{not json")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ledger := mocks.NewMockLedgerSnapshotter(ctrl)
			ledger.EXPECT().Snapshot(gomock.Any()).Return(tt.snap, nil)

			result, err := NewReconciliationUseCase(ledger).Reconcile(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.False(t, result.IsReconciled)
			assert.Equal(t, tt.wantMissing, result.MissingStored)
		})
	}
}
