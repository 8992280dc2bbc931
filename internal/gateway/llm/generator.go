// Package llm provides the open-ended conversation layer for the gateway.
//
// Structured requests never reach this package — the intent classifier routes
// them straight to service dispatch. Everything else is answered either by a
// local Ollama model or, when the model is unreachable, by the rule-based
// fallback responder. Degradation is per message: availability is probed on
// every open-ended turn, so a model that comes back mid-session is picked up
// on the next message without a restart.
package llm

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by a Generator when the model backend cannot be
// reached at all (connection refused, probe failure). Callers should degrade
// to the fallback responder rather than surfacing an error to the user.
var ErrUnavailable = errors.New("llm: model backend unavailable")

// ErrEmptyCompletion is returned when the backend answered the request but
// produced no usable text. Callers should treat this the same as
// ErrUnavailable: the user still gets a reply, just a canned one.
var ErrEmptyCompletion = errors.New("llm: backend returned empty completion")

// Generator produces free-form replies to open-ended messages.
//
// Implementations must be safe for concurrent use. When a Generate call
// fails, callers are expected to degrade gracefully to rule-based responses
// — the failure affects only the message that triggered it.
type Generator interface {
	// Available reports whether the backend can currently serve requests.
	// It must return quickly (implementations bound it with a short probe
	// timeout) so it can run on every message.
	Available(ctx context.Context) bool

	// Generate produces a complete reply for the given prompt. The call is
	// bounded: implementations enforce a generation deadline so a wedged
	// backend cannot hold a request open indefinitely.
	Generate(ctx context.Context, prompt string) (string, error)
}
