// Package repomanager provides the PostgreSQL RepositoryManager together with
// the goose migration hook.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/guessgame/internal/dbx"
	"github.com/dmitrijs2005/guessgame/internal/server/migrations"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/guesses"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/payments"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Guesses(db dbx.DBTX) guesses.Repository {
	return guesses.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Payments(db dbx.DBTX) payments.Repository {
	return payments.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
