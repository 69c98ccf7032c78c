// Package server wires the game server together: storage and migrations,
// the ledger and services, the HTTP API and the gRPC health endpoint. It also
// owns signal handling and graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/guessgame/internal/logging"
	"github.com/dmitrijs2005/guessgame/internal/random"
	"github.com/dmitrijs2005/guessgame/internal/server/auth"
	"github.com/dmitrijs2005/guessgame/internal/server/config"
	"github.com/dmitrijs2005/guessgame/internal/server/game"
	"github.com/dmitrijs2005/guessgame/internal/server/ledger"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/guessgame/internal/server/rest"
	"github.com/dmitrijs2005/guessgame/internal/server/services"

	gs "github.com/dmitrijs2005/guessgame/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *rest.Server
	health *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(c.LogBackend, c.LogFormat, os.Stdout)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db, repomanager.NewPostgresRepositoryManager())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	seed, err := random.NewSeed()
	if err != nil {
		return nil, err
	}
	engine, err := game.NewEngine(c.MaxNumber, c.WinProbability)
	if err != nil {
		return nil, err
	}

	issuer := auth.NewIssuer(c.SecretKey, c.TokenValidityDuration)
	l := ledger.New(ledger.NewPostgresStore(db, rm, c.LockTimeout), c.LockTimeout)

	us := services.NewUserService(db, rm, issuer, c)
	gsvc := services.NewGameService(l, engine, game.NewLockedRand(seed), c, logger)
	ps := services.NewPaymentService(db, rm, c, logger)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http:   rest.NewServer(c.EndpointAddrHTTP, logger, issuer, us, gsvc, ps),
		health: gs.NewHealthServer(c.EndpointAddrGRPC, logger, db, c.HealthCheckInterval),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Received signal", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves HTTP and gRPC until a signal arrives, ctx is cancelled, or
// either server fails. It closes the database before returning.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx); err != nil {
			app.logger.Error(ctx, "HTTP server failed", "error", err)
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.health.Run(ctx); err != nil {
			app.logger.Error(ctx, "gRPC server failed", "error", err)
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
