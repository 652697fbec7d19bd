package domain

import "time"

// Event types
const (
	EventTypeTransactionCreated = "transaction.created"
	EventTypeTransactionUpdated = "transaction.updated"
	EventTypeTransactionDeleted = "transaction.deleted"
)

// LedgerEvent describes a committed ledger mutation.
type LedgerEvent struct {
	OccurredAt    time.Time    `json:"occurred_at"`
	Transaction   *Transaction `json:"transaction,omitempty"`
	Type          string       `json:"type"`
	TransactionID string       `json:"transaction_id"`
}

// LedgerSnapshot is the live ledger and its stored copy, read without a
// mutation in between.
type LedgerSnapshot struct {
	Live   []Transaction
	Stored []byte // nil when nothing was stored yet
}
