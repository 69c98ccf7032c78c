package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/guessgame/internal/dbx"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/guesses"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/users"
)

// Store is the persistence the ledger runs on.
type Store interface {
	// Begin opens a transaction whose row-lock waits are bounded.
	Begin(ctx context.Context) (Tx, error)
	// Users is bound to the pool, outside any transaction.
	Users() users.Repository
}

type Tx interface {
	Users() users.Repository
	Guesses() guesses.Repository
	Commit() error
	Rollback() error
}

type PostgresStore struct {
	db          *sql.DB
	rm          repomanager.RepositoryManager
	lockTimeout time.Duration
}

func NewPostgresStore(db *sql.DB, rm repomanager.RepositoryManager, lockTimeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, rm: rm, lockTimeout: lockTimeout}
}

func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	if err := dbx.SetLocalLockTimeout(ctx, tx, s.lockTimeout); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	return &postgresTx{tx: tx, rm: s.rm}, nil
}

func (s *PostgresStore) Users() users.Repository {
	return s.rm.Users(s.db)
}

type postgresTx struct {
	tx *sql.Tx
	rm repomanager.RepositoryManager
}

func (t *postgresTx) Users() users.Repository     { return t.rm.Users(t.tx) }
func (t *postgresTx) Guesses() guesses.Repository { return t.rm.Guesses(t.tx) }
func (t *postgresTx) Commit() error               { return t.tx.Commit() }
func (t *postgresTx) Rollback() error             { return t.tx.Rollback() }
