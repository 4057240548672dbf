package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cinehub/booking-engine/internal/domain"
)

const (
	txRetryAttempts = 3
	txRetryBackoff  = 100 * time.Millisecond
)

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}

// runInTxRetry runs fn in a transaction and retries the whole transaction on
// deadlocks, serialization failures and lock timeouts, doubling the backoff
// between attempts. Once the attempts are spent the caller sees
// domain.ErrTransientStorage.
func runInTxRetry(ctx context.Context, db *pgxpool.Pool, logger *slog.Logger, fn func(tx pgx.Tx) error) error {
	backoff := txRetryBackoff

	var err error
	for attempt := 1; attempt <= txRetryAttempts; attempt++ {
		err = runInTx(ctx, db, fn)
		if err == nil || !isRetryableTxError(err) {
			return err
		}

		logger.WarnContext(ctx, "retrying transaction after transient storage error",
			"attempt", attempt,
			"error", err,
		)

		if attempt == txRetryAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
	}

	return errors.Join(domain.ErrTransientStorage, err)
}

func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgerrcode.DeadlockDetected, pgerrcode.SerializationFailure, pgerrcode.LockNotAvailable:
		return true
	}

	return false
}
