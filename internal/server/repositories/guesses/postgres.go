package guesses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) Create(ctx context.Context, g *models.Guess) (*models.Guess, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO guesses (id, username, request_id, number, server_number, won, turns_after, score_after)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		g.ID, g.Username, nullString(g.RequestID), g.Number, g.ServerNumber, g.Won, g.TurnsAfter, g.ScoreAfter).
		Scan(&g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}

	return g, nil
}

func (r *PostgresRepository) FindByRequestID(ctx context.Context, username, requestID string) (*models.Guess, error) {
	query :=
		`SELECT id, username, request_id, number, server_number, won, turns_after, score_after, created_at
		 FROM guesses WHERE username = $1 AND request_id = $2
		 `

	g := &models.Guess{}
	var reqID sql.NullString
	err := r.db.QueryRowContext(ctx, query, username, requestID).Scan(
		&g.ID, &g.Username, &reqID, &g.Number, &g.ServerNumber, &g.Won, &g.TurnsAfter, &g.ScoreAfter, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	g.RequestID = reqID.String

	return g, nil
}
