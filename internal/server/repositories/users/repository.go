// Package users declares the credential store and ledger row contract for
// player accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/guessgame/internal/server/models"
)

// Repository stores accounts and their turn/score counters.
type Repository interface {
	// Create inserts a new user. A taken username yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// Exists reports whether username is taken.
	Exists(ctx context.Context, username string) (bool, error)

	// GetByUsername is a plain read; common.ErrorNotFound when absent.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetByUsernameForUpdate reads the row and locks it until the surrounding
	// transaction ends. Lock waits past the transaction's lock timeout yield
	// common.ErrLockTimeout.
	GetByUsernameForUpdate(ctx context.Context, username string) (*models.User, error)

	// ApplyDelta adds the deltas to turns and score and returns the new values.
	// It never lets turns drop below zero.
	ApplyDelta(ctx context.Context, username string, turns, score int) (newTurns, newScore int, err error)

	// AddTurns atomically increments turns and returns the new value.
	AddTurns(ctx context.Context, username string, n int) (int, error)

	// TopByScore returns up to limit users ordered by score, highest first.
	TopByScore(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}
