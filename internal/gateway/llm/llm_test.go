package llm_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrKirlew/THEEPHONE/internal/gateway/llm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

// stubGenerator is a scriptable Generator for engine tests.
type stubGenerator struct {
	available bool
	reply     string
	err       error
	calls     int
}

func (s *stubGenerator) Available(context.Context) bool { return s.available }

func (s *stubGenerator) Generate(context.Context, string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestOllama_Available(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"healthy", http.StatusOK, true},
		{"server error", http.StatusInternalServerError, false},
		{"not found", http.StatusNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/tags" {
					t.Errorf("probe path: got %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			o := llm.NewOllama(llm.OllamaConfig{BaseURL: srv.URL}, discardLogger())
			if got := o.Available(context.Background()); got != tt.want {
				t.Errorf("Available: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOllama_AvailableConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	o := llm.NewOllama(llm.OllamaConfig{BaseURL: srv.URL, ProbeTimeout: time.Second}, discardLogger())
	if o.Available(context.Background()) {
		t.Error("Available: got true for dead server")
	}
}

func TestOllama_GenerateAssemblesStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("generate path: got %s", r.URL.Path)
		}
		fmt.Fprintln(w, `{"response":"Hello","done":false}`)
		fmt.Fprintln(w, `{"response":" there","done":false}`)
		fmt.Fprintln(w, `{"response":"!","done":true}`)
	}))
	defer srv.Close()

	o := llm.NewOllama(llm.OllamaConfig{BaseURL: srv.URL}, discardLogger())
	got, err := o.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Hello there!" {
		t.Errorf("Generate: got %q", got)
	}
}

func TestOllama_GenerateEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"","done":true}`)
	}))
	defer srv.Close()

	o := llm.NewOllama(llm.OllamaConfig{BaseURL: srv.URL}, discardLogger())
	_, err := o.Generate(context.Background(), "hi")
	if !errors.Is(err, llm.ErrEmptyCompletion) {
		t.Fatalf("Generate: got %v, want ErrEmptyCompletion", err)
	}
}

func TestOllama_GenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	o := llm.NewOllama(llm.OllamaConfig{BaseURL: srv.URL}, discardLogger())
	_, err := o.Generate(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("Generate: got %v, want HTTP 404 error", err)
	}
}

func TestOllama_ListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"models":[{"name":"llama3.2:1b"},{"name":"mistral:7b"}]}`)
	}))
	defer srv.Close()

	o := llm.NewOllama(llm.OllamaConfig{BaseURL: srv.URL}, discardLogger())
	models, err := o.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0] != "llama3.2:1b" {
		t.Errorf("ListModels: got %v", models)
	}
}

func TestOllama_PullReportsStreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"status":"pulling manifest"}`)
		fmt.Fprintln(w, `{"error":"pull model manifest: file does not exist"}`)
	}))
	defer srv.Close()

	o := llm.NewOllama(llm.OllamaConfig{BaseURL: srv.URL}, discardLogger())
	err := o.Pull(context.Background())
	if err == nil || !strings.Contains(err.Error(), "file does not exist") {
		t.Fatalf("Pull: got %v, want stream error", err)
	}
}

func TestFallback_Categories(t *testing.T) {
	now := time.Date(2025, 6, 11, 15, 4, 0, 0, time.UTC)

	tests := []struct {
		name    string
		message string
		wantSub string
	}{
		{"greeting", "Hello!", "Hello! I'm your AI assistant"},
		{"status inquiry", "how are you doing?", "doing great and ready to help"},
		{"help", "what can you do?", "📅 Calendar"},
		{"time", "what time is it now?", "Wednesday, June 11, 2025 at 3:04 PM"},
		{"gratitude", "thanks a lot", "You're welcome"},
		{"farewell", "goodbye", "Goodbye!"},
		{"default", "tell me a story about dragons", "temporarily limited"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := llm.Fallback(tt.message, now)
			if !strings.Contains(got, tt.wantSub) {
				t.Errorf("Fallback(%q): got %q, want substring %q", tt.message, got, tt.wantSub)
			}
		})
	}
}

func TestFallback_FirstRuleWins(t *testing.T) {
	// "hello" and "thanks" both match; greeting is checked first.
	got := llm.Fallback("hello and thanks", time.Now())
	if !strings.Contains(got, "Hello! I'm your AI assistant") {
		t.Errorf("got %q, want greeting reply", got)
	}
}

func TestEngine_DegradesWhenUnavailable(t *testing.T) {
	gen := &stubGenerator{available: false}
	e := llm.NewEngine(gen, discardLogger())

	reply, degraded := e.Reply(context.Background(), "hello")
	if !degraded {
		t.Fatal("expected degraded reply")
	}
	if !strings.Contains(reply, "Hello!") {
		t.Errorf("got %q, want fallback greeting", reply)
	}
	if gen.calls != 0 {
		t.Errorf("Generate called %d times despite failed probe", gen.calls)
	}
}

func TestEngine_DegradesOnGenerationFault(t *testing.T) {
	gen := &stubGenerator{available: true, err: errors.New("boom")}
	e := llm.NewEngine(gen, discardLogger())

	reply, degraded := e.Reply(context.Background(), "hello")
	if !degraded {
		t.Fatal("expected degraded reply after generation fault")
	}
	if reply == "" {
		t.Error("degraded reply must not be empty")
	}
}

func TestEngine_ServesModelReply(t *testing.T) {
	gen := &stubGenerator{available: true, reply: "model says hi"}
	e := llm.NewEngine(gen, discardLogger())

	reply, degraded := e.Reply(context.Background(), "hello")
	if degraded {
		t.Fatal("unexpected degradation")
	}
	if reply != "model says hi" {
		t.Errorf("got %q", reply)
	}
}

func TestEngine_RecoversPerMessage(t *testing.T) {
	gen := &stubGenerator{available: false}
	e := llm.NewEngine(gen, discardLogger())

	if _, degraded := e.Reply(context.Background(), "hi"); !degraded {
		t.Fatal("expected degraded while down")
	}

	gen.available = true
	gen.reply = "back online"
	reply, degraded := e.Reply(context.Background(), "hi again")
	if degraded || reply != "back online" {
		t.Fatalf("recovery: got %q degraded=%v", reply, degraded)
	}
}
