// Package credentials persists the current session token and profile so a
// session survives process restarts. It performs no validation and no
// network I/O.
package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/carefollow/internal/client/models"
	"github.com/dmitrijs2005/carefollow/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/carefollow/internal/common"
	"github.com/dmitrijs2005/carefollow/internal/dbx"
)

// Store is the durable holder of the current session.
type Store interface {
	Save(ctx context.Context, token string, user *models.User) error
	Load(ctx context.Context) (*models.Session, error)
	Clear(ctx context.Context) error
}

type sqliteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db}
}

// Save writes token and profile together; a reader never sees one without
// the other.
func (s *sqliteStore) Save(ctx context.Context, token string, user *models.User) error {
	if token == "" {
		return fmt.Errorf("save session: empty token")
	}
	profile, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return sessions.NewSQLiteRepository(tx).Put(ctx, sessions.Record{Token: token, Profile: profile})
	})
}

// Load returns common.ErrNoSession when no token is stored. A token without
// a cached profile yields a session with a nil User.
func (s *sqliteStore) Load(ctx context.Context) (*models.Session, error) {
	rec, err := sessions.NewSQLiteRepository(s.db).Get(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, common.ErrNoSession
	}

	sess := &models.Session{Token: rec.Token}
	if len(rec.Profile) > 0 && string(rec.Profile) != "null" {
		var u models.User
		if err := json.Unmarshal(rec.Profile, &u); err != nil {
			return nil, fmt.Errorf("decode cached profile: %w", err)
		}
		sess.User = &u
	}
	return sess, nil
}

func (s *sqliteStore) Clear(ctx context.Context) error {
	return sessions.NewSQLiteRepository(s.db).Delete(ctx)
}
