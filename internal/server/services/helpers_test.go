package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/guessgame/internal/common"
	"github.com/dmitrijs2005/guessgame/internal/dbx"
	"github.com/dmitrijs2005/guessgame/internal/server/config"
	"github.com/dmitrijs2005/guessgame/internal/server/models"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/guesses"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/payments"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.LockTimeout = 200 * time.Millisecond
	cfg.PaymentBaseURL = "https://pay.example/checkout"
	return cfg
}

// fakeRepoManager hands out the same repositories regardless of the handle,
// so transactional and plain calls hit one in-memory state.
type fakeRepoManager struct {
	users    users.Repository
	payments payments.Repository
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *fakeRepoManager) Guesses(dbx.DBTX) guesses.Repository          { return nil }
func (m *fakeRepoManager) Payments(dbx.DBTX) payments.Repository        { return m.payments }

// failingUsers overrides selected calls of an underlying repository.
type failingUsers struct {
	users.Repository
	existsErr error
	createErr error
	getErr    error
}

func (f *failingUsers) Exists(ctx context.Context, username string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.Repository.Exists(ctx, username)
}

func (f *failingUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.Repository.Create(ctx, u)
}

func (f *failingUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Repository.GetByUsername(ctx, username)
}

type fakePayments struct {
	mu     sync.Mutex
	orders map[string]*models.PaymentOrder
}

func newFakePayments() *fakePayments {
	return &fakePayments{orders: make(map[string]*models.PaymentOrder)}
}

func (f *fakePayments) Create(ctx context.Context, o *models.PaymentOrder) (*models.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.CreatedAt = time.Now()
	cp := *o
	f.orders[o.ID] = &cp
	return o, nil
}

func (f *fakePayments) GetByID(ctx context.Context, id string) (*models.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakePayments) MarkConfirmed(ctx context.Context, id, username string) (*models.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Username != username {
		return nil, common.ErrorNotFound
	}
	if o.Status == models.PaymentConfirmed {
		return nil, common.ErrOrderAlreadyConfirmed
	}
	now := time.Now()
	o.Status = models.PaymentConfirmed
	o.ConfirmedAt = &now
	cp := *o
	return &cp, nil
}
