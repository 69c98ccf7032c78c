package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/guessgame/internal/common"
	"github.com/dmitrijs2005/guessgame/internal/server/models"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/repomanager"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "username", "password_hash", "email", "role", "turns", "score", "created_at"}

func newPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresStore(db, repomanager.NewPostgresRepositoryManager(), 3*time.Second), mock
}

func TestPostgresStore_GuessCycle(t *testing.T) {
	store, mock := newPostgresStore(t)
	l := New(store, time.Second)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT set_config\('lock_timeout', \$1, true\)`).
		WithArgs("3000ms").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM users WHERE username = \$1 FOR UPDATE`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "alice", "h", "", "USER", 2, 0, time.Now()))
	mock.ExpectQuery(`UPDATE users SET turns = turns \+ \$2, score = score \+ \$3`).
		WithArgs("alice", -1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"turns", "score"}).AddRow(1, 1))
	mock.ExpectQuery(`INSERT INTO guesses`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	hold, err := l.LoadForUpdate(context.Background(), "alice")
	require.NoError(t, err)

	rec := hold.Record()
	rec.Turns--
	rec.Score++
	require.NoError(t, hold.Commit(context.Background(), &models.Guess{Number: 3, ServerNumber: 3, Won: true}))
	assert.Equal(t, 1, rec.Turns)
}

func TestPostgresStore_SetLockTimeoutFails(t *testing.T) {
	store, mock := newPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`set_config`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err := store.Begin(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock_timeout")
}

func TestPostgresStore_RowLockTimeoutRollsBack(t *testing.T) {
	store, mock := newPostgresStore(t)
	l := New(store, time.Second)

	mock.ExpectBegin()
	mock.ExpectExec(`set_config`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnError(&pgconn.PgError{Code: "55P03", Message: "lock timeout"})
	mock.ExpectRollback()

	_, err := l.LoadForUpdate(context.Background(), "alice")
	assert.ErrorIs(t, err, common.ErrLockTimeout)
	assert.Equal(t, 0, l.locks.Len())
}

func TestPostgresStore_BeginFails(t *testing.T) {
	store, mock := newPostgresStore(t)
	l := New(store, time.Second)

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	_, err := l.LoadForUpdate(context.Background(), "alice")
	assert.ErrorIs(t, err, common.ErrPersistence)
	assert.Equal(t, 0, l.locks.Len())
}
