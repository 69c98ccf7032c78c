package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/guessgame/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

func loggingInterceptor(l logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		l.Debug(ctx, "grpc call", "method", info.FullMethod, "code", code.String(), "latency", time.Since(start).String())
		return resp, err
	}
}
