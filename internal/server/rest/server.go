// Package rest exposes the game over HTTP using gin.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/guessgame/internal/logging"
	"github.com/dmitrijs2005/guessgame/internal/server/models"
	"github.com/dmitrijs2005/guessgame/internal/server/services"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Register(ctx context.Context, username, password, email string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Profile(ctx context.Context, username string) (*models.User, error)
}

type GameService interface {
	Guess(ctx context.Context, username string, number int, requestID string) (*services.GuessResult, error)
	GuessErrorMessage(err error) string
	BuyTurns(ctx context.Context, username string) (*services.Purchase, error)
	Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
}

type PaymentService interface {
	Create(ctx context.Context, username string) (*models.PaymentOrder, error)
	Confirm(ctx context.Context, username, orderID string) (int, error)
}

// TokenVerifier resolves a bearer token to a username.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

const shutdownTimeout = 5 * time.Second

type Server struct {
	address  string
	router   *gin.Engine
	accounts AccountService
	game     GameService
	payments PaymentService
	verifier TokenVerifier
	logger   logging.Logger
}

func NewServer(addr string, l logging.Logger, v TokenVerifier, as AccountService, gs GameService, ps PaymentService) *Server {
	s := &Server{
		address:  addr,
		accounts: as,
		game:     gs,
		payments: ps,
		verifier: v,
		logger:   l.With("module", "http_server"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.logger))

	authGroup := r.Group("/auth")
	authGroup.POST("/register", s.register)
	authGroup.POST("/login", s.login)

	r.GET("/api/leaderboard", s.leaderboard)

	api := r.Group("/api")
	api.Use(AuthMiddleware(s.verifier, s.logger))
	{
		api.POST("/guess", s.guess)
		api.POST("/buy-turns", s.buyTurns)
		api.GET("/me", s.me)
		api.POST("/payment/momo/create", s.createPayment)
		api.POST("/payment/momo/confirm", s.confirmPayment)
	}

	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
