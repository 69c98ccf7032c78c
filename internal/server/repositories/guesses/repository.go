// Package guesses stores the guess journal written alongside every ledger
// update.
package guesses

import (
	"context"

	"github.com/dmitrijs2005/guessgame/internal/server/models"
)

type Repository interface {
	// Create appends an entry. A repeated (username, request id) pair yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, guess *models.Guess) (*models.Guess, error)

	// FindByRequestID returns common.ErrorNotFound when nothing was journaled
	// under the key.
	FindByRequestID(ctx context.Context, username, requestID string) (*models.Guess, error)
}
