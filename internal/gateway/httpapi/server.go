// Package httpapi exposes the gateway over HTTP for the mobile client.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrKirlew/THEEPHONE/common/trace"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/intent"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/llm"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/router"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/services"
)

// maxImageBytes caps multipart image uploads at 10 MiB.
const maxImageBytes = 10 << 20

// Server handles the gateway HTTP routes.
type Server struct {
	router     *router.Router
	classifier *intent.Classifier
	engine     *llm.Engine
	logger     *slog.Logger
}

// New creates a Server.
func New(rt *router.Router, classifier *intent.Classifier, engine *llm.Engine, logger *slog.Logger) *Server {
	return &Server{
		router:     rt,
		classifier: classifier,
		engine:     engine,
		logger:     logger,
	}
}

// RouteRegistrar is satisfied by *http.ServeMux.
type RouteRegistrar interface {
	Handle(pattern string, handler http.Handler)
}

// RegisterRoutes adds the gateway routes:
//
//   - POST /chat          — one text message in, one reply out.
//   - POST /unified_query — multipart text + optional image.
//   - GET  /health        — liveness.
//   - GET  /ollama/status — model backend availability.
//   - POST /test_intent   — classify a message without dispatching it.
func (s *Server) RegisterRoutes(r RouteRegistrar) {
	r.Handle("/chat", s.wrap(s.handleChat))
	r.Handle("/unified_query", s.wrap(s.handleUnifiedQuery))
	r.Handle("/health", s.wrap(s.handleHealth))
	r.Handle("/ollama/status", s.wrap(s.handleOllamaStatus))
	r.Handle("/test_intent", s.wrap(s.handleTestIntent))
}

// wrap applies CORS and request tracing to a handler. The mobile client runs
// from a webview origin, so CORS is permissive.
func (s *Server) wrap(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		ctx := trace.WithRequestID(r.Context(), trace.GenerateID())
		h(w, r.WithContext(ctx))
	})
}

type chatRequest struct {
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
}

func (req *chatRequest) defaults() {
	if req.UserID == "" {
		req.UserID = "anon"
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}
}

// handleChat handles POST /chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.defaults()

	reply := s.router.HandleMessage(r.Context(), req.UserID, req.SessionID,
		req.Message, services.Credential{AccessToken: req.AccessToken})

	writeJSON(w, reply)
}

// handleUnifiedQuery handles POST /unified_query: a multipart form carrying
// message, optional image, and optional access_token. With no image part the
// request behaves exactly like /chat.
func (s *Server) handleUnifiedQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}

	req := chatRequest{
		UserID:      r.FormValue("user_id"),
		SessionID:   r.FormValue("session_id"),
		Message:     r.FormValue("message"),
		AccessToken: r.FormValue("access_token"),
	}
	req.defaults()
	cred := services.Credential{AccessToken: req.AccessToken}

	file, _, err := r.FormFile("image")
	if err != nil {
		// No image part: plain chat.
		writeJSON(w, s.router.HandleMessage(r.Context(), req.UserID, req.SessionID, req.Message, cred))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		s.logger.Error("failed to read image upload", "error", err)
		writeJSON(w, router.Reply{
			Response: "I encountered an error processing your request.",
			Source:   router.SourceError,
		})
		return
	}

	writeJSON(w, s.router.HandleImage(r.Context(), req.UserID, req.SessionID, req.Message, image, cred))
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleOllamaStatus handles GET /ollama/status.
func (s *Server) handleOllamaStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"ollama_available": s.engine.Available(r.Context()),
	})
}

// handleTestIntent handles POST /test_intent: classification only, no
// dispatch. Useful for client debugging.
func (s *Server) handleTestIntent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, s.classifier.Classify(req.Message))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts it
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
