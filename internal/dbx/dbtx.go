// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx,
// a helper to run functions inside a transaction, and PostgreSQL error
// classification.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/guessgame/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// SetLocalLockTimeout bounds how long statements in the current transaction
// wait for row locks. It only has effect inside a transaction.
func SetLocalLockTimeout(ctx context.Context, tx DBTX, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	ms := fmt.Sprintf("%dms", d.Milliseconds())
	if _, err := tx.ExecContext(ctx, `SELECT set_config('lock_timeout', $1, true)`, ms); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}
	return nil
}

// PostgreSQL SQLSTATE codes we react to.
const (
	codeUniqueViolation  = "23505"
	codeLockNotAvailable = "55P03"
	codeDeadlockDetected = "40P01"
	codeQueryCanceled    = "57014"
)

// ClassifyError maps driver errors onto common sentinels. Unknown errors are
// returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.ConstraintName)
		case codeLockNotAvailable, codeDeadlockDetected, codeQueryCanceled:
			return fmt.Errorf("%w: %s", common.ErrLockTimeout, pgErr.Message)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", common.ErrLockTimeout, err)
	}
	return err
}
