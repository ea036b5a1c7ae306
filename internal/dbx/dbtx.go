// Package dbx carries the small database plumbing the session store needs:
// a querier interface satisfied by both *sql.DB and *sql.Tx, and a
// transaction wrapper used for atomic multi-key session writes.
package dbx

import (
	"context"
	"database/sql"
)

// Querier is the subset of database/sql the stores use. Passing a *sql.Tx
// makes a store method transactional without changing its code.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InTx runs fn inside a transaction: commit on nil error, rollback on error
// or panic. Panics are rethrown after rollback.
func InTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx Querier) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
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
