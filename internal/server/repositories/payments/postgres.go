package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/guessgame/internal/common"
	"github.com/dmitrijs2005/guessgame/internal/dbx"
	"github.com/dmitrijs2005/guessgame/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, o *models.PaymentOrder) (*models.PaymentOrder, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = models.PaymentPending
	}

	query :=
		`INSERT INTO payment_orders (id, username, turns, status, pay_url)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, o.ID, o.Username, o.Turns, o.Status, o.PayURL).Scan(&o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}

	return o, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.PaymentOrder, error) {
	query :=
		`SELECT id, username, turns, status, pay_url, created_at, confirmed_at
		 FROM payment_orders WHERE id = $1
		 `

	o := &models.PaymentOrder{}
	var confirmedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.Username, &o.Turns, &o.Status, &o.PayURL, &o.CreatedAt, &confirmedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	if confirmedAt.Valid {
		o.ConfirmedAt = &confirmedAt.Time
	}

	return o, nil
}

func (r *PostgresRepository) MarkConfirmed(ctx context.Context, id, username string) (*models.PaymentOrder, error) {
	query :=
		`UPDATE payment_orders SET status = $3, confirmed_at = now()
		 WHERE id = $1 AND username = $2 AND status = $4
		 RETURNING turns, pay_url, created_at, confirmed_at
		 `

	o := &models.PaymentOrder{ID: id, Username: username, Status: models.PaymentConfirmed}
	var confirmedAt time.Time
	err := r.db.QueryRowContext(ctx, query, id, username, models.PaymentConfirmed, models.PaymentPending).
		Scan(&o.Turns, &o.PayURL, &o.CreatedAt, &confirmedAt)
	if err == nil {
		o.ConfirmedAt = &confirmedAt
		return o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Username != username {
		return nil, common.ErrorNotFound
	}
	if existing.Status == models.PaymentConfirmed {
		return nil, common.ErrOrderAlreadyConfirmed
	}
	return nil, fmt.Errorf("db error: order %s in unexpected status %q", id, existing.Status)
}
