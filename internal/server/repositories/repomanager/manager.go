package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/guessgame/internal/dbx"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/guesses"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/payments"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either a pool or a
// transaction, so one service call can span several of them atomically.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Guesses(db dbx.DBTX) guesses.Repository
	Payments(db dbx.DBTX) payments.Repository
}
