package services

import (
	"context"
	"log/slog"

	"github.com/corebooks/corebooks/internal/platform/logging"
)

// BaseService provides the logging helpers shared by all services.
type BaseService struct{}

// Logger returns the operation-scoped logger from the context.
func (s *BaseService) Logger(ctx context.Context) *slog.Logger {
	return logging.FromCtx(ctx)
}

// LogError logs an error with consistent formatting.
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.Logger(ctx).Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting.
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.Logger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting.
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.Logger(ctx).Debug(msg, keyvals...)
}
