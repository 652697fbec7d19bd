package usecase

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/iho/edufinance/internal/domain"
)

// fakeBlobStore is an in-memory BlobStore whose writes can be made to fail.
type fakeBlobStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	putErr error
	getErr error
	puts   int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{data: make(map[string][]byte)}
}

func (f *fakeBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	return append([]byte(nil), v...), nil
}

func (f *fakeBlobStore) Put(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	f.data[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeBlobStore) Ping(context.Context) error { return nil }

func (f *fakeBlobStore) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

// recordingSink collects published events.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.LedgerEvent
}

func (s *recordingSink) Publish(_ context.Context, event domain.LedgerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

func income(id, date string, amount int64, method domain.PaymentMethod) domain.Transaction {
	return domain.Transaction{
		ID:          id,
		Date:        date,
		Class:       domain.Income{Course: "Sala 3"},
		Amount:      decimal.NewFromInt(amount),
		Method:      method,
		Description: "Tuition payment",
	}
}

func expense(id, date string, amount int64, method domain.PaymentMethod) domain.Transaction {
	return domain.Transaction{
		ID:          id,
		Date:        date,
		Class:       domain.Expense{Category: "Otros"},
		Amount:      decimal.NewFromInt(amount),
		Method:      method,
		Description: "Miscellaneous expense",
	}
}

func txIDs(txs []domain.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}
