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
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE audit (event TEXT PRIMARY KEY, detail TEXT NOT NULL);`)
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM audit`).Scan(&n))
	return n
}

func insertTwo(ctx context.Context, tx DBTX) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO audit(event, detail) VALUES ('signed_in', 'tok')`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO audit(event, detail) VALUES ('profile_cached', '{}')`)
	return err
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := setupDB(t)

	require.NoError(t, WithTx(context.Background(), db, nil, insertTwo))
	require.Equal(t, 2, countRows(t, db))
}

func TestWithTx_RollsBackBothWritesOnError(t *testing.T) {
	db := setupDB(t)

	boom := errors.New("boom")
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, insertTwo(ctx, tx))
		return boom
	})
	require.Equal(t, boom, err)
	require.Equal(t, 0, countRows(t, db), "writes must not be half applied")
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db := setupDB(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		require.Equal(t, 0, countRows(t, db))
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, insertTwo(ctx, tx))
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error { return nil })
	require.ErrorContains(t, err, "begin transaction")
}

func TestWithTx_CommitErrorIsWrapped(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		// ending the transaction early makes the deferred commit fail
		return tx.(*sql.Tx).Rollback()
	})
	require.ErrorIs(t, err, sql.ErrTxDone)
	require.ErrorContains(t, err, "commit transaction")
}
