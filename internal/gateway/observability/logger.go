// Package observability provides structured logging helpers for the gateway.
//
// It wraps log/slog with request ID propagation so every log line emitted
// while routing a chat message carries the request context.
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/MrKirlew/THEEPHONE/common/trace"
)

// Setup configures the global slog logger according to the provided level and
// format strings (e.g. level="info", format="json").
func Setup(level, format string) {
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

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// WithRequest returns a child logger that always includes the request_id from ctx.
func WithRequest(ctx context.Context) *slog.Logger {
	reqID := trace.FromContext(ctx)
	if reqID == "" {
		return slog.Default()
	}
	return slog.With("request_id", reqID)
}
