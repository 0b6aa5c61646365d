package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UltimateTournament/backoff/v4"
	"github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgx"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

var (
	// MaxRetryElapsed bounds the total time spent retrying one operation
	MaxRetryElapsed = 30 * time.Second
)

// Retry runs f until it succeeds, returns a permanent error, or ctx is done. Each
// attempt gets its own context bounded by tryTimeout.
func Retry(ctx context.Context, tryTimeout time.Duration, f func(ctx context.Context) error) error {
	logger := zerolog.Ctx(ctx)
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = MaxRetryElapsed

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		tryCtx, cancel := context.WithTimeout(ctx, tryTimeout)
		defer cancel()

		err := f(tryCtx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !isRetryable(err) {
			return backoff.Permanent(err)
		}
		logger.Warn().Err(err).Int("attempt", attempt).Msg("retrying")
		return err
	}, backoff.WithContext(b, ctx))
}

func isRetryable(err error) bool {
	if IsPermanent(err) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization failure and deadlock are the only server errors worth another try
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return true
}

// ReliableExec acquires a connection from pool and runs f on it, retrying transient
// failures.
func ReliableExec(ctx context.Context, pool *pgxpool.Pool, tryTimeout time.Duration, f func(ctx context.Context, conn *pgxpool.Conn) error) error {
	return Retry(ctx, tryTimeout, func(ctx context.Context) error {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("error acquiring pool connection: %w", err)
		}
		defer conn.Release()
		return f(ctx, conn)
	})
}

// ReliableExecInTx is ReliableExec inside a transaction. CockroachDB restarts are
// handled by crdbpgx.ExecuteTx, so f may be called more than once.
func ReliableExecInTx(ctx context.Context, pool *pgxpool.Pool, tryTimeout time.Duration, f func(ctx context.Context, tx pgx.Tx) error) error {
	return ReliableExecInTxWithOptions(ctx, pool, tryTimeout, pgx.TxOptions{}, f)
}

// ReliableExecInTxWithOptions is ReliableExecInTx with explicit transaction options.
func ReliableExecInTxWithOptions(ctx context.Context, pool *pgxpool.Pool, tryTimeout time.Duration, opts pgx.TxOptions, f func(ctx context.Context, tx pgx.Tx) error) error {
	return ReliableExec(ctx, pool, tryTimeout, func(ctx context.Context, conn *pgxpool.Conn) error {
		return crdbpgx.ExecuteTx(ctx, conn, opts, func(tx pgx.Tx) error {
			return f(ctx, tx)
		})
	})
}
