package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/carefollow/internal/dbx"
)

const sessionRowID = 1

type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository binds the repository to a *sql.DB or, inside
// dbx.WithTx, to the transaction handle.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context) (*Record, error) {
	var rec Record
	err := r.db.QueryRowContext(ctx,
		`SELECT token, profile FROM session WHERE id = ?`, sessionRowID,
	).Scan(&rec.Token, &rec.Profile)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return &rec, nil
}

// Put replaces the stored row with rec.
func (r *SQLiteRepository) Put(ctx context.Context, rec Record) error {
	if rec.Token == "" {
		return errors.New("failed to write session: empty token")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session (id, token, profile) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, profile = excluded.profile
	`, sessionRowID, rec.Token, rec.Profile)
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
