// Package logger wires the process-wide structured logger. JSON output,
// level from configuration, initialized once at startup.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

var L *slog.Logger

type contextKey string

const loggerKey contextKey = "logger"

// Init initializes the global logger. Call once at startup, after the
// configuration is loaded.
func Init(levelStr string) {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
		slog.Warn("invalid log level, defaulting to info", "configuredLevel", levelStr)
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	L = slog.New(handler)
	slog.SetDefault(L)
}

// FromContext retrieves a logger from context, or the global one.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	if L != nil {
		return L
	}
	return slog.Default()
}

// ToContext embeds a logger into a context, typically with request-scoped
// attributes already attached.
func ToContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}
