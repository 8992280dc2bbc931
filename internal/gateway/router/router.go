// Package router turns one inbound message into exactly one reply. It owns
// the routing policy: classify, gate on authentication, dispatch or converse,
// and tag every reply with its provenance so the client knows which subsystem
// produced it.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrKirlew/THEEPHONE/internal/gateway/format"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/imageproc"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/intent"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/llm"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/services"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/session"
)

// Reply provenance tags. Clients key UI behavior off Source, so the set is
// part of the wire contract.
const (
	SourceSystem          = "system"
	SourceAuthRequired    = "auth_required"
	SourceAssistant       = "assistant"
	SourceImageProcessing = "image_processing"
	SourceError           = "error"
)

// Reply is the single response produced for one inbound message.
type Reply struct {
	Response string `json:"response"`
	Source   string `json:"source"`

	// SMS side-channel: set only when an sms dispatch produced an
	// instruction for the mobile app. Passed through verbatim.
	Instruction    string `json:"instruction,omitempty"`
	Recipient      string `json:"recipient,omitempty"`
	MessageContent string `json:"message_content,omitempty"`
}

// Router routes messages. All collaborators are required.
type Router struct {
	classifier *intent.Classifier
	sessions   *session.Store
	registry   *services.Registry
	engine     *llm.Engine
	images     *imageproc.Processor
	logger     *slog.Logger
}

// New wires a Router.
func New(classifier *intent.Classifier, sessions *session.Store, registry *services.Registry,
	engine *llm.Engine, images *imageproc.Processor, logger *slog.Logger) *Router {
	return &Router{
		classifier: classifier,
		sessions:   sessions,
		registry:   registry,
		engine:     engine,
		images:     images,
		logger:     logger,
	}
}

// HandleMessage produces exactly one Reply for the message. It never panics
// outward: routing faults become an error-tagged reply.
func (r *Router) HandleMessage(ctx context.Context, userID, sessionID, message string, cred services.Credential) (reply Reply) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("message routing panicked", "panic", rec)
			reply = Reply{
				Response: "I encountered an error processing your request.",
				Source:   SourceError,
			}
		}
	}()

	if message == "" {
		return Reply{Response: "Please provide a message.", Source: SourceSystem}
	}

	classification := r.classifier.Classify(message)
	r.logger.Info("intent classified",
		"kind", classification.Kind,
		"service", classification.Service,
		"keyword", classification.Keyword,
	)
	r.sessions.Record(userID, sessionID, "user", message, classification)

	if classification.Structured() {
		reply = r.dispatch(ctx, classification.Service, services.Request{
			Message: message,
			UserID:  userID,
			Cred:    cred,
		})
	} else {
		text, degraded := r.engine.Reply(ctx, message)
		if degraded {
			r.logger.Info("served degraded reply")
		}
		reply = Reply{Response: format.Text(text), Source: SourceAssistant}
	}

	r.sessions.Record(userID, sessionID, "assistant", reply.Response, intent.Classification{})
	return reply
}

// dispatch runs one structured request through the service table. The auth
// gate runs first: unauthenticated structured requests never reach a handler.
func (r *Router) dispatch(ctx context.Context, service string, req services.Request) Reply {
	display := r.classifier.DisplayName(service)
	source := "google_" + service

	if !req.Cred.Valid() {
		return Reply{
			Response: fmt.Sprintf("Please sign in with Google to use %s services.", display),
			Source:   SourceAuthRequired,
		}
	}

	payload, err := r.registry.Dispatch(ctx, service, req)
	switch {
	case errors.Is(err, services.ErrNotImplemented):
		return Reply{
			Response: fmt.Sprintf("%s service is not yet implemented.", display),
			Source:   source,
		}
	case errors.Is(err, services.ErrUnauthorized):
		return Reply{
			Response: fmt.Sprintf("Please sign in with Google to use %s services.", display),
			Source:   SourceAuthRequired,
		}
	case err != nil:
		return Reply{
			Response: fmt.Sprintf("An error occurred while accessing %s.", display),
			Source:   source,
		}
	}

	reply := Reply{
		Response: format.Service(service, payload),
		Source:   source,
	}

	// SMS replies carry the device instruction through untouched.
	if instruction, ok := payload["instruction"].(string); ok && instruction != "" {
		reply.Instruction = instruction
		reply.Recipient, _ = payload["recipient"].(string)
		reply.MessageContent, _ = payload["message_content"].(string)
	}
	return reply
}

// HandleImage produces one Reply for an uploaded image plus its message.
// Image processing always needs credentials: extracted content is saved to
// the user's Google account.
func (r *Router) HandleImage(ctx context.Context, userID, sessionID, message string, image []byte, cred services.Credential) (reply Reply) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("image routing panicked", "panic", rec)
			reply = Reply{
				Response: "I encountered an error processing your request.",
				Source:   SourceError,
			}
		}
	}()

	if !cred.Valid() {
		return Reply{
			Response: "Please sign in to process images and save content to Google services.",
			Source:   SourceAuthRequired,
		}
	}

	payload, err := r.images.Process(ctx, message, image, cred)
	if err != nil {
		r.logger.Error("image processing failed", "error", err)
		return Reply{
			Response: "I encountered an error processing your request.",
			Source:   SourceError,
		}
	}

	response, _ := payload["response"].(string)
	if response == "" {
		response = "Image processed successfully"
	}

	r.sessions.Record(userID, sessionID, "user", message, intent.Classification{})
	r.sessions.Record(userID, sessionID, "assistant", response, intent.Classification{})

	return Reply{Response: format.Text(response), Source: SourceImageProcessing}
}
