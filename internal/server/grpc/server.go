// Package grpc runs the gRPC side of the server: the standard health service,
// driven by periodic database pings, plus reflection for tooling.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/guessgame/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service key reported for the game API.
const ServiceName = "guessgame"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthServer struct {
	address  string
	db       Pinger
	interval time.Duration
	health   *health.Server
	logger   logging.Logger
}

func NewHealthServer(addr string, l logging.Logger, db Pinger, interval time.Duration) *HealthServer {
	return &HealthServer{
		address:  addr,
		db:       db,
		interval: interval,
		health:   health.NewServer(),
		logger:   l.With("module", "grpc_server"),
	}
}

// probe pings the database once and publishes the result.
func (s *HealthServer) probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.db.PingContext(pingCtx); err != nil {
		s.logger.Warn(ctx, "database ping failed", "error", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	return st
}

func (s *HealthServer) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

func (s *HealthServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *HealthServer) serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(s.logger)))

	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)

	s.probe(ctx)
	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}
