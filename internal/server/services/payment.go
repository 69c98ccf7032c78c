package services

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/guessgame/internal/common"
	"github.com/dmitrijs2005/guessgame/internal/dbx"
	"github.com/dmitrijs2005/guessgame/internal/logging"
	"github.com/dmitrijs2005/guessgame/internal/server/config"
	"github.com/dmitrijs2005/guessgame/internal/server/models"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// PaymentService simulates MoMo checkout: Create hands out an order and a
// pay link, Confirm credits the order's turns exactly once.
type PaymentService struct {
	db               *sql.DB
	repomanager      repomanager.RepositoryManager
	baseURL          string
	turnsPerPurchase int
	logger           logging.Logger
}

func NewPaymentService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *PaymentService {
	return &PaymentService{
		db:               db,
		repomanager:      m,
		baseURL:          cfg.PaymentBaseURL,
		turnsPerPurchase: cfg.TurnsPerPurchase,
		logger:           logger.With("module", "payment_service"),
	}
}

// Create opens a PENDING order for username.
func (s *PaymentService) Create(ctx context.Context, username string) (*models.PaymentOrder, error) {
	id := uuid.NewString()
	order := &models.PaymentOrder{
		ID:       id,
		Username: username,
		Turns:    s.turnsPerPurchase,
		Status:   models.PaymentPending,
		PayURL:   s.baseURL + "?orderId=" + url.QueryEscape(id),
	}

	created, err := s.repomanager.Payments(s.db).Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("error creating payment order: %w", err)
	}

	s.logger.Info(ctx, "payment order created", "username", username, "order_id", id)
	return created, nil
}

// Confirm marks username's order paid and credits its turns in the same
// transaction. It returns the user's new turn count.
func (s *PaymentService) Confirm(ctx context.Context, username, orderID string) (int, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return 0, common.ErrorNotFound
	}

	var turns int
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		order, err := s.repomanager.Payments(tx).MarkConfirmed(ctx, orderID, username)
		if err != nil {
			return err
		}
		turns, err = s.repomanager.Users(tx).AddTurns(ctx, username, order.Turns)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info(ctx, "payment confirmed", "username", username, "order_id", orderID, "turns", turns)
	return turns, nil
}
