package usecase

import (
	"context"
	"time"

	"github.com/iho/edufinance/internal/domain"
)

// BlobStore persists opaque values under string keys. Get returns
// domain.ErrBlobNotFound for a key that was never written.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}

// LedgerRepository is the persisted, ordered collection of transactions.
// Update and Remove report false for an unknown ID.
type LedgerRepository interface {
	Add(ctx context.Context, t domain.Transaction) error
	Update(ctx context.Context, t domain.Transaction) (bool, error)
	Remove(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]domain.Transaction, error)
	Get(ctx context.Context, id string) (domain.Transaction, bool, error)
	Recent(ctx context.Context, n int) ([]domain.Transaction, error)
}

// LedgerSnapshotter reads the live ledger and its stored copy atomically.
type LedgerSnapshotter interface {
	Snapshot(ctx context.Context) (*domain.LedgerSnapshot, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// EventSink receives ledger events after a mutation was persisted.
// Publish must not block the caller for long and never fails the mutation.
type EventSink interface {
	Publish(ctx context.Context, event domain.LedgerEvent)
}

// AIClient is the generative AI provider behind the assistant.
type AIClient interface {
	ExtractReceipt(ctx context.Context, image []byte, mimeType string) (*domain.ReceiptDraft, error)
	Chat(ctx context.Context, message string) (string, error)
	SearchChat(ctx context.Context, message string) (string, error)
	Analyze(ctx context.Context, query, ledgerContext string) (string, error)
	Speak(ctx context.Context, text string) ([]byte, error)
	GenerateImage(ctx context.Context, prompt string, size domain.ImageSize) ([]byte, error)
	EditImage(ctx context.Context, image []byte, prompt string) ([]byte, error)
}

// ReportRenderer renders a report into one file format.
type ReportRenderer interface {
	Render(report domain.Report) ([]byte, error)
	ContentType() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a reserved key so a failed request can be retried.
	Release(ctx context.Context, key string) error
}
