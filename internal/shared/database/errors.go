package database

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/lib/pq"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"nations-server/internal/shared/errors"
)

// IsUniqueViolation reports whether err is a unique or primary key constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr *sqlite.Error
	if stderrors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// IsRetryable reports whether a transaction failed on a serialization conflict,
// a deadlock, or a busy database, all of which succeed on a later attempt.
func IsRetryable(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}

	var sqliteErr *sqlite.Error
	if stderrors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	return false
}

// IsNoRows reports whether err signals an empty single-row result.
func IsNoRows(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}

// WrapError classifies a driver error: unique violations become conflicts,
// timeouts and everything else become store errors.
func WrapError(message string, err error) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		return &errors.AppError{Type: errors.ErrorTypeConflict, Message: message, Err: err}
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.WrapStore(message+": timed out", err)
	}
	return errors.WrapStore(message, err)
}
