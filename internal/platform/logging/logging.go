// Package logging carries an operation-scoped slog logger through
// context.Context so services and repositories share one enriched logger
// per unit of work.
package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// contextKey is a private type to prevent collisions in context values.
type contextKey string

const loggerKey = contextKey("logger")

// NewLogger builds the process-level JSON logger at the given level.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// WithCtx returns a context carrying the given logger.
func WithCtx(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithOperation returns a context whose logger is enriched with an
// operation name and a fresh correlation id.
func WithOperation(ctx context.Context, operation string) context.Context {
	logger := FromCtx(ctx).With(
		slog.String("operation", operation),
		slog.String("correlation_id", uuid.NewString()),
	)
	return WithCtx(ctx, logger)
}

// FromCtx retrieves the logger from the context, falling back to the
// default logger when none was attached.
func FromCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	logger, ok := ctx.Value(loggerKey).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}
