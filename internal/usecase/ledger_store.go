package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/iho/edufinance/internal/domain"
	"github.com/iho/edufinance/internal/infrastructure/metrics"
)

// Ledger operations, used as metric labels.
const (
	opAdd    = "add"
	opUpdate = "update"
	opRemove = "remove"
)

// LedgerStore keeps the ledger in memory and mirrors every change to a
// BlobStore under a single key. The whole collection is rewritten on each
// mutation; memory only changes once the write succeeded.
type LedgerStore struct {
	blobs        BlobStore
	events       EventSink
	metrics      *metrics.Metrics
	now          func() time.Time
	key          string
	transactions []domain.Transaction
	mu           sync.Mutex
	loaded       bool
}

// LedgerStoreConfig configures a LedgerStore.
type LedgerStoreConfig struct {
	Blobs   BlobStore
	Events  EventSink        // optional
	Metrics *metrics.Metrics // optional
	Now     func() time.Time // optional, defaults to time.Now
	Key     string           // defaults to DefaultLedgerKey
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(cfg LedgerStoreConfig) *LedgerStore {
	if cfg.Key == "" {
		cfg.Key = DefaultLedgerKey
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &LedgerStore{
		blobs:   cfg.Blobs,
		events:  cfg.Events,
		metrics: cfg.Metrics,
		now:     cfg.Now,
		key:     cfg.Key,
	}
}

// Key returns the blob key the ledger is stored under.
func (s *LedgerStore) Key() string {
	return s.key
}

// Load reads the stored ledger. Only the first call touches the blob store;
// a missing key is an empty ledger.
func (s *LedgerStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked(ctx)
}

func (s *LedgerStore) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	data, err := s.blobs.Get(ctx, s.key)
	if err != nil && !errors.Is(err, domain.ErrBlobNotFound) {
		return fmt.Errorf("load ledger: %w", err)
	}

	transactions, err := DecodeLedger(data)
	if err != nil {
		return err
	}

	s.transactions = transactions
	s.loaded = true
	s.observeSize()

	return nil
}

// DecodeLedger parses a stored ledger into insertion order, oldest first.
// Stored ledgers are newest first, the layout the browser app wrote.
// Empty input is an empty ledger.
func DecodeLedger(data []byte) ([]domain.Transaction, error) {
	transactions := []domain.Transaction{}
	if len(bytes.TrimSpace(data)) == 0 {
		return transactions, nil
	}

	if err := json.Unmarshal(data, &transactions); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}

	if transactions == nil {
		return []domain.Transaction{}, nil
	}

	slices.Reverse(transactions)

	return transactions, nil
}

// EncodeLedger writes transactions, given oldest first, in the stored
// newest-first layout.
func EncodeLedger(transactions []domain.Transaction) ([]byte, error) {
	stored := slices.Clone(transactions)
	slices.Reverse(stored)

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}

	return data, nil
}

// Snapshot reads the live ledger and the stored blob while holding the
// mutation lock, so no write can land between the two reads.
func (s *LedgerStore) Snapshot(ctx context.Context) (*domain.LedgerSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}

	data, err := s.blobs.Get(ctx, s.key)
	if err != nil && !errors.Is(err, domain.ErrBlobNotFound) {
		return nil, fmt.Errorf("read stored ledger: %w", err)
	}

	return &domain.LedgerSnapshot{
		Live:   slices.Clone(s.transactions),
		Stored: data,
	}, nil
}

// Add appends a transaction and persists the ledger.
func (s *LedgerStore) Add(ctx context.Context, t domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return err
	}

	next := append(slices.Clone(s.transactions), t)
	if err := s.commit(ctx, opAdd, next); err != nil {
		return err
	}

	s.emit(ctx, domain.EventTypeTransactionCreated, t.ID, &t)

	return nil
}

// Update replaces the transaction with the same ID. It reports false and
// writes nothing when the ID is unknown.
func (s *LedgerStore) Update(ctx context.Context, t domain.Transaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return false, err
	}

	idx := s.indexOf(t.ID)
	if idx < 0 {
		return false, nil
	}

	next := slices.Clone(s.transactions)
	next[idx] = t
	if err := s.commit(ctx, opUpdate, next); err != nil {
		return false, err
	}

	s.emit(ctx, domain.EventTypeTransactionUpdated, t.ID, &t)

	return true, nil
}

// Remove deletes the transaction with the given ID. It reports false and
// writes nothing when the ID is unknown.
func (s *LedgerStore) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return false, err
	}

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}

	next := slices.Delete(slices.Clone(s.transactions), idx, idx+1)
	if err := s.commit(ctx, opRemove, next); err != nil {
		return false, err
	}

	s.emit(ctx, domain.EventTypeTransactionDeleted, id, nil)

	return true, nil
}

// List returns a copy of all transactions in insertion order.
func (s *LedgerStore) List(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}

	return slices.Clone(s.transactions), nil
}

// Get returns the transaction with the given ID.
func (s *LedgerStore) Get(ctx context.Context, id string) (domain.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return domain.Transaction{}, false, err
	}

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Transaction{}, false, nil
	}

	return s.transactions[idx], true, nil
}

// Recent returns up to n of the most recently added transactions, newest
// first. Ledgers loaded from storage keep their stored order, newest first.
func (s *LedgerStore) Recent(ctx context.Context, n int) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}

	if n <= 0 {
		return []domain.Transaction{}, nil
	}

	n = min(n, len(s.transactions))
	recent := make([]domain.Transaction, 0, n)
	for i := len(s.transactions) - 1; i >= len(s.transactions)-n; i-- {
		recent = append(recent, s.transactions[i])
	}

	return recent, nil
}

func (s *LedgerStore) indexOf(id string) int {
	return slices.IndexFunc(s.transactions, func(t domain.Transaction) bool {
		return t.ID == id
	})
}

// commit persists next and only then makes it the live ledger.
func (s *LedgerStore) commit(ctx context.Context, op string, next []domain.Transaction) error {
	if err := s.persist(ctx, next); err != nil {
		s.recordMutation(op, metrics.OutcomeError)
		return err
	}

	s.transactions = next
	s.recordMutation(op, metrics.OutcomeSuccess)
	s.observeSize()

	return nil
}

func (s *LedgerStore) persist(ctx context.Context, transactions []domain.Transaction) error {
	data, err := EncodeLedger(transactions)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultPersistTimeout)
	defer cancel()

	start := time.Now()
	err = s.blobs.Put(ctx, s.key, data)
	if s.metrics != nil {
		s.metrics.PersistDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}

	return nil
}

func (s *LedgerStore) emit(ctx context.Context, eventType, id string, t *domain.Transaction) {
	if s.events == nil {
		return
	}

	s.events.Publish(ctx, domain.LedgerEvent{
		OccurredAt:    s.now().UTC(),
		Transaction:   t,
		Type:          eventType,
		TransactionID: id,
	})
}

func (s *LedgerStore) recordMutation(op, outcome string) {
	if s.metrics != nil {
		s.metrics.LedgerMutations.WithLabelValues(op, outcome).Inc()
	}
}

func (s *LedgerStore) observeSize() {
	if s.metrics != nil {
		s.metrics.LedgerSize.Set(float64(len(s.transactions)))
	}
}
