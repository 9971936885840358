package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
)

// Queryer is the slice of *sql.DB / *sql.Tx the repositories operate on.
// Services open one transaction per unit of work and hand the same Queryer
// to every store they touch; no store opens its own transaction.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithinTx runs fn inside a single transaction. The transaction commits only
// if fn returns nil; any error rolls everything back.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, q Queryer) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation. Callers losing an insert race re-read the winning row instead
// of surfacing the constraint.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// IsDeadlock reports whether Postgres aborted this transaction as a
// deadlock or serialization victim. The whole unit of work can be retried
// verbatim.
func IsDeadlock(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40P01" || pqErr.Code == "40001"
}

// IsUnavailable reports whether err looks like the store being unreachable
// rather than a business outcome. Only these faults divert booking creation
// into the degradation queue.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := err.Error()
	for _, transient := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"timeout",
		"driver: bad connection",
		"the database system is shutting down",
	} {
		if strings.Contains(msg, transient) {
			return true
		}
	}
	return false
}
