package llm

import (
	"context"
	"log/slog"
	"time"
)

// Engine wraps a Generator with per-message degradation. Every open-ended
// message re-probes the backend, so recovery is automatic: the first message
// after the model comes back is served by the model again.
type Engine struct {
	gen    Generator
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine returns an Engine over the given generator.
func NewEngine(gen Generator, logger *slog.Logger) *Engine {
	return &Engine{
		gen:    gen,
		logger: logger,
		now:    time.Now,
	}
}

// Reply answers an open-ended message. degraded is true when the reply came
// from the rule-based fallback instead of the model — either the availability
// probe failed or the generation call errored. A generation failure degrades
// only the message that hit it; the next message probes again.
func (e *Engine) Reply(ctx context.Context, message string) (reply string, degraded bool) {
	if !e.gen.Available(ctx) {
		e.logger.Info("model backend unavailable, using fallback")
		return Fallback(message, e.now()), true
	}

	reply, err := e.gen.Generate(ctx, message)
	if err != nil {
		e.logger.Warn("generation failed, using fallback for this message", "error", err)
		return Fallback(message, e.now()), true
	}
	return reply, false
}

// Available reports current backend availability, for status endpoints.
func (e *Engine) Available(ctx context.Context) bool {
	return e.gen.Available(ctx)
}
