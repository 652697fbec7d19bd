package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/edufinance/internal/domain"
)

func seededStore(t *testing.T, txs ...domain.Transaction) *LedgerStore {
	t.Helper()

	store := NewLedgerStore(LedgerStoreConfig{Blobs: newFakeBlobStore()})
	for _, tx := range txs {
		require.NoError(t, store.Add(context.Background(), tx))
	}
	return store
}

func TestViewUseCase_View(t *testing.T) {
	store := seededStore(t,
		income("a", "2024-03-01", 100, domain.PaymentMethodCash),
		expense("b", "2024-03-31", 30, domain.PaymentMethodTransfer),
		income("c", "2024-04-01", 500, domain.PaymentMethodCash),
	)
	uc := NewViewUseCase(store)

	result, err := uc.View(context.Background(), domain.ForMonth("2024-03"))
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a"}, txIDs(result.View.Transactions))
	assert.Equal(t, "period: 2024-03", result.View.Label)
	assert.True(t, result.Summary.NetBalance.Equal(decimal.NewFromInt(70)))
	assert.True(t, result.Summary.TransferBalance.Equal(decimal.NewFromInt(-30)))
	assert.Equal(t, 2, result.Summary.Count)
}

func TestViewUseCase_View_IncompleteRange(t *testing.T) {
	uc := NewViewUseCase(seededStore(t))

	_, err := uc.View(context.Background(), domain.Between("2024-01-01", ""))
	assert.ErrorIs(t, err, domain.ErrIncompleteRange)
}

func TestViewUseCase_Summary(t *testing.T) {
	store := seededStore(t,
		income("a", "2024-01-10", 100, domain.PaymentMethodCash),
		income("b", "2024-01-20", 50, domain.PaymentMethodOther),
		expense("c", "2024-01-21", 30, domain.PaymentMethodCash),
	)
	uc := NewViewUseCase(store)

	result, err := uc.Summary(context.Background(), domain.Between("2024-01-10", "2024-01-20"))
	require.NoError(t, err)

	assert.Equal(t, "from 2024-01-10 to 2024-01-20", result.Label)
	assert.True(t, result.Active)
	assert.True(t, result.Summary.TotalIncome.Equal(decimal.NewFromInt(150)))
	assert.True(t, result.Summary.TotalExpense.IsZero())
	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, "Sala 3", result.Breakdown[0].Label)
}

func TestViewUseCase_Dashboard(t *testing.T) {
	txs := make([]domain.Transaction, 0, 6)
	for _, id := range []string{"1", "2", "3", "4", "5", "6"} {
		txs = append(txs, income(id, "2024-01-0"+id, 10, domain.PaymentMethodCash))
	}
	uc := NewViewUseCase(seededStore(t, txs...))

	result, err := uc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, result.Summary.Count)
	assert.True(t, result.Summary.TotalIncome.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, []string{"6", "5", "4", "3", "2"}, txIDs(result.Recent))
}
