// Package services implements the per-service Google handlers and the
// dispatch table that routes a classified message to one of them.
//
// Handler failures are isolated: a panic or error inside one handler is
// converted to an error result for that message only and never takes the
// gateway down. Payloads deliberately stay schemaless (map[string]any) —
// they mirror the JSON each Google API returns and are rendered to user text
// by the format package.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrKirlew/THEEPHONE/internal/gateway/schedule"
)

// ErrNotImplemented is returned by Dispatch for services that exist in the
// intent rule table but have no handler yet.
var ErrNotImplemented = fmt.Errorf("services: not implemented")

// Payload is the structured result of one service handler.
type Payload map[string]any

// Request carries everything a handler may need for one message.
type Request struct {
	// Message is the raw user text; handlers run their own sub-command
	// keyword checks against it.
	Message string
	// UserID scopes per-user state such as scheduled messages.
	UserID string
	// Cred is the caller's Google access token.
	Cred Credential
}

// Handler processes one message for one service.
type Handler func(ctx context.Context, req Request) (Payload, error)

// Deps are the collaborators shared by the service handlers.
type Deps struct {
	Google    *Client
	Contacts  Resolver
	Schedules *schedule.Store
	Logger    *slog.Logger

	// Now is injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

// Registry is the fixed dispatch table from service ID to handler. The table
// is built once at startup and never mutated, so lookups need no locking.
type Registry struct {
	deps     Deps
	handlers map[string]Handler
}

// NewRegistry builds the dispatch table.
func NewRegistry(deps Deps) *Registry {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	r := &Registry{deps: deps}
	r.handlers = map[string]Handler{
		"calendar": r.calendar,
		"gmail":    r.gmail,
		"drive":    r.drive,
		"sheets":   r.sheets,
		"docs":     r.docs,
		"contacts": r.contacts,
		"tasks":    r.tasks,
		"keep":     r.keep,
		"slides":   r.slides,
		"forms":    r.forms,
		"sms":      r.sms,
	}
	return r
}

// Dispatch routes the request to the named service's handler. A missing
// handler yields ErrNotImplemented; a panicking handler is recovered and
// reported as an error for this message only.
func (r *Registry) Dispatch(ctx context.Context, service string, req Request) (payload Payload, err error) {
	handler, ok := r.handlers[service]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotImplemented, service)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.deps.Logger.Error("service handler panicked",
				"service", service, "panic", rec)
			payload = nil
			err = fmt.Errorf("services: %s handler panicked: %v", service, rec)
		}
	}()

	payload, err = handler(ctx, req)
	if err != nil {
		r.deps.Logger.Error("service handler failed", "service", service, "error", err)
	}
	return payload, err
}
