package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PostgreSQL error codes a blob upsert may hit transiently.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrAdminShutdown        = "57P01"
)

// RetryPolicy bounds how long a write is retried.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy returns the policy used by NewBlobStore.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
		MaxElapsedTime:  10 * time.Second,
	}
}

// Retrier re-runs a blob write while PostgreSQL reports a transient failure.
type Retrier struct {
	policy RetryPolicy
	logger zerolog.Logger
}

// NewRetrier creates a Retrier logging through the global logger.
func NewRetrier(policy RetryPolicy) *Retrier {
	return &Retrier{policy: policy, logger: log.Logger}
}

// WithLogger returns a copy of r logging through logger.
func (r *Retrier) WithLogger(logger zerolog.Logger) *Retrier {
	cp := *r
	cp.logger = logger
	return &cp
}

// Retry runs write until it succeeds, fails permanently or the policy is
// exhausted. The last error is returned unwrapped.
func (r *Retrier) Retry(ctx context.Context, key string, write func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval
	b.MaxElapsedTime = r.policy.MaxElapsedTime

	attempt := 0
	operation := func() error {
		attempt++
		err := write(ctx)
		if err != nil && !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Warn().
			Err(err).
			Str("key", key).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("blob write failed, retrying")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, r.policy.MaxRetries), ctx)

	return backoff.RetryNotify(operation, policy, notify)
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure, pgErrAdminShutdown:
			return true
		}
		return false
	}

	// Connection failures that happened before the statement reached the server.
	return pgconn.SafeToRetry(err)
}
