// Package payments persists simulated MoMo payment orders.
package payments

import (
	"context"

	"github.com/dmitrijs2005/guessgame/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, order *models.PaymentOrder) (*models.PaymentOrder, error)

	// GetByID returns common.ErrorNotFound for unknown ids.
	GetByID(ctx context.Context, id string) (*models.PaymentOrder, error)

	// MarkConfirmed flips a PENDING order owned by username to CONFIRMED.
	// Unknown or foreign orders yield common.ErrorNotFound, an order that is
	// already confirmed yields common.ErrOrderAlreadyConfirmed.
	MarkConfirmed(ctx context.Context, id, username string) (*models.PaymentOrder, error)
}
