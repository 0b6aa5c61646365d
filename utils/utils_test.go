package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	errBad := PermError("bad input")
	err := Retry(context.Background(), time.Second, func(ctx context.Context) error {
		calls++
		return fmt.Errorf("wrapped: %w", errBad)
	})
	assert.True(t, errors.Is(err, errBad))
	assert.Equal(t, 1, calls)
}

func TestRetryRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), time.Second, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryDoesNotRetrySyntaxErrors(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), time.Second, func(ctx context.Context) error {
		calls++
		return &pgconn.PgError{Code: "42601"}
	})
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	assert.Equal(t, 1, calls)
}

func TestRetryDoesNotRetryReadOnlyViolations(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), time.Second, func(ctx context.Context) error {
		calls++
		return fmt.Errorf("error in tx.Query: %w", &pgconn.PgError{Code: "25006"})
	})
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "25006", pgErr.Code)
	assert.Equal(t, 1, calls)
}

func TestDeref(t *testing.T) {
	assert.Equal(t, int64(60), Deref[int64](nil, 60))
	assert.Equal(t, int64(5), Deref(Ptr[int64](5), 60))
}

func TestPermanentKeepsChain(t *testing.T) {
	errBase := errors.New("base")
	calls := 0
	err := Retry(context.Background(), time.Second, func(ctx context.Context) error {
		calls++
		return Permanent(fmt.Errorf("context: %w", errBase))
	})
	assert.True(t, errors.Is(err, errBase))
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 1, calls)
}
