package usecase

import (
	"context"
	"time"

	"github.com/iho/edufinance/internal/domain"
)

// ReconciliationUseCase compares the live ledger with what is stored.
type ReconciliationUseCase struct {
	ledger LedgerSnapshotter
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(ledger LedgerSnapshotter) *ReconciliationUseCase {
	return &ReconciliationUseCase{ledger: ledger}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	CheckedAt     time.Time
	MissingStored []string // in memory, not in storage
	MissingLive   []string // in storage, not in memory
	Changed       []string // present in both with different content
	LiveCount     int
	StoredCount   int
	IsReconciled  bool
}

// Reconcile reads the stored ledger and reports every difference from the
// in-memory one.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context) (*ReconciliationResult, error) {
	snap, err := uc.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	live := snap.Live
	stored, err := DecodeLedger(snap.Stored)
	if err != nil {
		return nil, err
	}

	storedByID := make(map[string]domain.Transaction, len(stored))
	for _, t := range stored {
		storedByID[t.ID] = t
	}

	result := &ReconciliationResult{
		CheckedAt:     time.Now().UTC(),
		MissingStored: []string{},
		MissingLive:   []string{},
		Changed:       []string{},
		LiveCount:     len(live),
		StoredCount:   len(stored),
	}

	for _, t := range live {
		s, ok := storedByID[t.ID]
		if !ok {
			result.MissingStored = append(result.MissingStored, t.ID)
			continue
		}
		delete(storedByID, t.ID)

		if !sameTransaction(t, s) {
			result.Changed = append(result.Changed, t.ID)
		}
	}

	for _, t := range stored {
		if _, ok := storedByID[t.ID]; ok {
			result.MissingLive = append(result.MissingLive, t.ID)
		}
	}

	result.IsReconciled = len(result.MissingStored) == 0 &&
		len(result.MissingLive) == 0 &&
		len(result.Changed) == 0

	return result, nil
}

func sameTransaction(a, b domain.Transaction) bool {
	return a.ID == b.ID &&
		a.Date == b.Date &&
		a.Type() == b.Type() &&
		a.Label() == b.Label() &&
		a.Method == b.Method &&
		a.Description == b.Description &&
		a.Amount.Equal(b.Amount)
}
