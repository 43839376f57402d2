package database

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"
	"time"

	"nations-server/internal/shared/errors"
)

const (
	initialRetryDelay = 25 * time.Millisecond
	maxRetryDelay     = 800 * time.Millisecond
)

// WithTx runs fn inside a transaction bounded by the query timeout.
// Serialization failures and busy errors roll back and retry with doubling backoff;
// every other error from fn is returned unchanged after rollback.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	logger := slog.With("component", "database", "operation", "with_tx")

	retryDelay := initialRetryDelay
	var lastErr error
	for attempt := 0; attempt < db.maxAttempts; attempt++ {
		err := db.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}

		lastErr = err
		logger.Warn("Transaction conflict, retrying", "attempt", attempt+1, "delay", retryDelay, "error", err)

		if attempt == db.maxAttempts-1 {
			break
		}
		if err := sleepWithContext(ctx, retryDelay); err != nil {
			return errors.WrapStore("transaction aborted while waiting to retry", err)
		}
		if retryDelay < maxRetryDelay {
			retryDelay *= 2
		}
	}

	return errors.WrapStore("transaction retries exhausted", lastErr)
}

func (db *DB) runTx(ctx context.Context, fn func(tx *Tx) error) error {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	tx, err := db.BeginTxContext(ctx)
	if err != nil {
		return errors.WrapStore("failed to begin transaction", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !stderrors.Is(err, sql.ErrTxDone) {
			slog.Error("Failed to rollback transaction", "component", "database", "error", err)
		}
	}()

	if err := fn(tx); err != nil {
		if ctx.Err() != nil && !errors.Is(err, errors.ErrorTypeStore) {
			return errors.WrapStore("store operation timed out", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapStore("failed to commit transaction", err)
	}
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
