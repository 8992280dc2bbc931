// Package config loads gateway configuration from environment variables.
package config

import (
	"time"

	"github.com/MrKirlew/THEEPHONE/common/environment"
)

// Config is the full runtime configuration of the gateway.
type Config struct {
	// HTTPAddr is the listen address for the API server.
	HTTPAddr string

	// DatabasePath is the SQLite file holding scheduled messages.
	DatabasePath string

	// OllamaURL is the local model server root.
	OllamaURL string
	// OllamaModel is the model tag used for open-ended replies.
	OllamaModel string
	// OllamaProbeTimeout bounds the per-message availability check.
	OllamaProbeTimeout time.Duration
	// OllamaGenerateTimeout bounds a single generation call.
	OllamaGenerateTimeout time.Duration
	// OllamaStartupAttempts is how many times startup waits for the model
	// server before continuing in fallback mode.
	OllamaStartupAttempts int
	// OllamaPullModel controls whether startup pulls the model when the
	// server is up but the model is missing.
	OllamaPullModel bool

	// GoogleAPIBase overrides the Google API host (tests, proxies).
	GoogleAPIBase string
	// GoogleTimeout bounds each Google API call.
	GoogleTimeout time.Duration

	// SessionTTL is the inactivity threshold for evicting sessions.
	SessionTTL time.Duration
	// SessionMaxMessages caps the per-session conversation window.
	SessionMaxMessages int

	// LogLevel is debug, info, warn, or error.
	LogLevel string
	// LogFormat is text or json.
	LogFormat string
}

// Load reads the configuration from the environment, applying defaults.
func Load() Config {
	return Config{
		HTTPAddr:     environment.StringOr("HTTP_ADDR", ":8080"),
		DatabasePath: environment.StringOr("DATABASE_PATH", "./gateway.db"),

		OllamaURL:             environment.StringOr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:           environment.StringOr("OLLAMA_MODEL", "llama3.2:1b"),
		OllamaProbeTimeout:    environment.DurationOr("OLLAMA_PROBE_TIMEOUT", 5*time.Second),
		OllamaGenerateTimeout: environment.DurationOr("OLLAMA_GENERATE_TIMEOUT", 2*time.Minute),
		OllamaStartupAttempts: environment.IntOr("OLLAMA_STARTUP_ATTEMPTS", 30),
		OllamaPullModel:       environment.BoolOr("OLLAMA_PULL_MODEL", true),

		GoogleAPIBase: environment.StringOr("GOOGLE_API_BASE", ""),
		GoogleTimeout: environment.DurationOr("GOOGLE_API_TIMEOUT", 30*time.Second),

		SessionTTL:         environment.DurationOr("SESSION_TTL", time.Hour),
		SessionMaxMessages: environment.IntOr("SESSION_MAX_MESSAGES", 20),

		LogLevel:  environment.StringOr("LOG_LEVEL", "info"),
		LogFormat: environment.StringOr("LOG_FORMAT", "json"),
	}
}
