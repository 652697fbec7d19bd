package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(maxRetries uint64) RetryPolicy {
	return RetryPolicy{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsedTime:  time.Second,
	}
}

func TestRetrier_Retry(t *testing.T) {
	permanent := errors.New("syntax error")

	tests := []struct {
		name         string
		maxRetries   uint64
		failures     []error
		wantAttempts int
		wantErr      error
		wantPgCode   string
	}{
		{
			name:         "succeeds first time",
			maxRetries:   3,
			wantAttempts: 1,
		},
		{
			name:         "recovers after deadlock",
			maxRetries:   3,
			failures:     []error{&pgconn.PgError{Code: pgErrDeadlock}},
			wantAttempts: 2,
		},
		{
			name:         "permanent error is not retried",
			maxRetries:   3,
			failures:     []error{permanent},
			wantAttempts: 1,
			wantErr:      permanent,
		},
		{
			name:       "gives up after max retries",
			maxRetries: 2,
			failures: []error{
				&pgconn.PgError{Code: pgErrSerializationFailure},
				&pgconn.PgError{Code: pgErrSerializationFailure},
				&pgconn.PgError{Code: pgErrSerializationFailure},
				&pgconn.PgError{Code: pgErrSerializationFailure},
			},
			wantAttempts: 3,
			wantPgCode:   pgErrSerializationFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetrier(fastPolicy(tt.maxRetries)).WithLogger(zerolog.Nop())

			attempts := 0
			err := r.Retry(context.Background(), "test:ledger", func(context.Context) error {
				attempts++
				if attempts <= len(tt.failures) {
					return tt.failures[attempts-1]
				}
				return nil
			})

			assert.Equal(t, tt.wantAttempts, attempts)

			switch {
			case tt.wantPgCode != "":
				var pgErr *pgconn.PgError
				require.ErrorAs(t, err, &pgErr)
				assert.Equal(t, tt.wantPgCode, pgErr.Code)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetrier_StopsWhenContextCanceled(t *testing.T) {
	r := NewRetrier(fastPolicy(10)).WithLogger(zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := r.Retry(ctx, "test:ledger", func(context.Context) error {
		attempts++
		cancel()
		return &pgconn.PgError{Code: pgErrDeadlock}
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"deadlock", &pgconn.PgError{Code: pgErrDeadlock}, true},
		{"serialization failure", &pgconn.PgError{Code: pgErrSerializationFailure}, true},
		{"admin shutdown", &pgconn.PgError{Code: pgErrAdminShutdown}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain error", errors.New("other"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}
