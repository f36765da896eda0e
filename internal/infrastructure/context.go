package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// EnsureTraceID returns ctx carrying a trace id. Work started outside an
// HTTP request, such as a CLI run, gets a fresh UUID so its log lines can
// still be correlated.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, uuid.NewString())
}

// WithComponent tags every record of logger with the emitting subsystem.
// A nil logger falls back to the process-wide one.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With(slog.String("component", component))
}

// WithError attaches err as the "error" attribute. Nil leaves logger as is.
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With(slog.String("error", err.Error()))
}
