package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:dbx_test?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS items (key TEXT PRIMARY KEY, value BLOB)`)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM items`)
	require.NoError(t, err)
	return db
}

func count(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n))
	return n
}

func TestInTx_CommitsOnSuccess(t *testing.T) {
	db := setupDB(t)

	err := InTx(context.Background(), db, func(ctx context.Context, tx Querier) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO items(key, value) VALUES ('token', 'abc')`)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, count(t, db))
}

func TestInTx_RollsBackOnError(t *testing.T) {
	db := setupDB(t)
	boom := errors.New("boom")

	err := InTx(context.Background(), db, func(ctx context.Context, tx Querier) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO items(key, value) VALUES ('token', 'abc')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, count(t, db), "partial writes must not survive a failed transaction")
}

func TestInTx_RollsBackOnPanic(t *testing.T) {
	db := setupDB(t)

	require.Panics(t, func() {
		_ = InTx(context.Background(), db, func(ctx context.Context, tx Querier) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO items(key, value) VALUES ('token', 'abc')`)
			panic("unexpected")
		})
	})
	require.Equal(t, 0, count(t, db))
}
