package users

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

const userColumns = `id, username, password_hash, email, role, turns, score, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Email,
		&user.Role, &user.Turns, &user.Score, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = common.RoleUser
	}

	query :=
		`INSERT INTO users (id, username, password_hash, email, role, turns, score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.Email, user.Role, user.Turns, user.Score).
		Scan(&user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}

	return user, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return exists, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) GetByUsernameForUpdate(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 FOR UPDATE`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) ApplyDelta(ctx context.Context, username string, turns, score int) (int, int, error) {
	query :=
		`UPDATE users SET turns = turns + $2, score = score + $3
		 WHERE username = $1 AND turns + $2 >= 0
		 RETURNING turns, score
		 `

	var newTurns, newScore int
	err := r.db.QueryRowContext(ctx, query, username, turns, score).Scan(&newTurns, &newScore)
	if err != nil {
		// The row was either deleted or would go below zero turns; the
		// caller held it locked, so both mean the ledger is inconsistent.
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, fmt.Errorf("%w: turns guard rejected delta for %q", common.ErrPersistence, username)
		}
		return 0, 0, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}

	return newTurns, newScore, nil
}

func (r *PostgresRepository) AddTurns(ctx context.Context, username string, n int) (int, error) {
	query :=
		`UPDATE users SET turns = turns + $2
		 WHERE username = $1
		 RETURNING turns
		 `

	var turns int
	err := r.db.QueryRowContext(ctx, query, username, n).Scan(&turns)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}

	return turns, nil
}

func (r *PostgresRepository) TopByScore(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query :=
		`SELECT username, score FROM users
		 ORDER BY score DESC, created_at, id
		 LIMIT $1
		 `

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Score); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}
