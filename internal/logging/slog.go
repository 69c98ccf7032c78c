package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// NewSlogLoggerFor creates a SlogLogger writing to w with a JSON or text handler.
func NewSlogLoggerFor(format string, w io.Writer) (*SlogLogger, error) {
	switch format {
	case "", "json":
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, nil))), nil
	case "text":
		return NewSlogLogger(slog.New(slog.NewTextHandler(w, nil))), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}
