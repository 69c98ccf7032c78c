package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/guessgame/internal/logging"
	"github.com/dmitrijs2005/guessgame/internal/server/config"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/repomanager"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMigrations struct {
	repomanager.RepositoryManager
	err   error
	calls int
}

func (s *stubMigrations) RunMigrations(context.Context, *sql.DB) error {
	s.calls++
	return s.err
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	return c
}

func newMockApp(t *testing.T) (*App, sqlmock.Sqlmock, *stubMigrations) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	rm := &stubMigrations{RepositoryManager: repomanager.NewPostgresRepositoryManager()}
	app, err := newApp(context.Background(), testConfig(), logging.Nop{}, db, rm)
	require.NoError(t, err)
	return app, mock, rm
}

func TestNewApp_RejectsInvalidConfig(t *testing.T) {
	c := testConfig()
	c.SecretKey = ""

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestNewApp_MigrationFailure(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rm := &stubMigrations{err: errors.New("boom")}
	_, err = newApp(context.Background(), testConfig(), logging.Nop{}, db, rm)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db migration error")
}

func TestNewApp_WiresLeaderboard(t *testing.T) {
	app, mock, rm := newMockApp(t)
	defer app.db.Close()
	assert.Equal(t, 1, rm.calls)

	mock.ExpectQuery(`SELECT username, score FROM users`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"username", "score"}).AddRow("alice", 3))

	w := httptest.NewRecorder()
	app.http.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"username":"alice","score":3}]`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_GuardsAPI(t *testing.T) {
	app, _, _ := newMockApp(t)
	defer app.db.Close()

	w := httptest.NewRecorder()
	app.http.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/guess", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRun_StopsOnCancel(t *testing.T) {
	app, mock, _ := newMockApp(t)
	mock.ExpectClose()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
