// Package observability provides the structured logging and request
// context plumbing shared by every binary in this repository.
package observability

import (
	"context"
	"log/slog"
	"os"
)

type loggerKeyType struct{}

var loggerKey = loggerKeyType{}

// NewLogger builds the process-wide logger for component (e.g. "worker",
// "control-plane", "migrate"). Level is read from LOG_LEVEL
// (debug|info|warn|error, default info).
func NewLogger(component string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevelFromEnv(),
	})
	return slog.New(handler).With("component", component)
}

func logLevelFromEnv() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ContextWithLogger returns a context carrying logger, retrievable later
// with LoggerFromContext.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext returns the logger attached by ContextWithLogger, or
// slog.Default() if none was attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
