// Package logging defines a minimal structured-logging interface used across
// the server. Implementations wrap slog or zap.
package logging

import (
	"context"
	"fmt"
	"io"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "guess committed", "username", name, "won", won)
type Logger interface {
	// Debug logs diagnostics that are off by default.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Backends accepted by New.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// New builds a Logger for the given backend ("slog" or "zap") and output
// format ("json" or "text").
func New(backend, format string, w io.Writer) (Logger, error) {
	switch backend {
	case "", BackendSlog:
		return NewSlogLoggerFor(format, w)
	case BackendZap:
		return NewZapLoggerFor(format, w)
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}
