package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultOllamaBase     = "http://localhost:11434"
	defaultOllamaModel    = "llama3.2:1b"
	defaultProbeTimeout   = 5 * time.Second
	defaultGenerateLimit  = 2 * time.Minute
	maxGenerateLineLength = 1 << 20 // 1 MiB per stream line
)

// OllamaConfig configures the local Ollama backend.
type OllamaConfig struct {
	// BaseURL is the Ollama server root. Defaults to http://localhost:11434.
	BaseURL string

	// Model is the model tag passed to /api/generate.
	// Defaults to llama3.2:1b.
	Model string

	// ProbeTimeout bounds the availability check. Defaults to 5 s — long
	// enough for a cold local server, short enough that a dead one does not
	// stall message handling.
	ProbeTimeout time.Duration

	// GenerateTimeout bounds a full generation call. Defaults to 2 min.
	GenerateTimeout time.Duration
}

// Ollama talks to a local Ollama server over its native HTTP API.
// It implements Generator and is safe for concurrent use.
type Ollama struct {
	cfg    OllamaConfig
	client *http.Client
	logger *slog.Logger
}

// NewOllama returns an Ollama client with defaults applied.
func NewOllama(cfg OllamaConfig, logger *slog.Logger) *Ollama {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOllamaBase
	}
	if cfg.Model == "" {
		cfg.Model = defaultOllamaModel
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = defaultGenerateLimit
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Ollama{
		cfg:    cfg,
		client: &http.Client{}, // per-call deadlines via context
		logger: logger,
	}
}

// Model returns the configured model tag.
func (o *Ollama) Model() string { return o.cfg.Model }

// Available probes GET /api/tags with the probe timeout. Any transport error
// or non-200 status counts as unavailable.
func (o *Ollama) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.client.Do(req)
	if err != nil {
		o.logger.Debug("ollama probe failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// Generate streams a completion from POST /api/generate and assembles the
// fragments into one reply. The stream is newline-delimited JSON; each line
// carries a "response" fragment and the final line sets "done": true.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.GenerateTimeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:  o.cfg.Model,
		Prompt: prompt,
		Stream: true,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("llm: generate returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var sb strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxGenerateLineLength)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		sb.WriteString(gjson.GetBytes(line, "response").String())
		if gjson.GetBytes(line, "done").Bool() {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("llm: read generate stream: %w", err)
	}

	reply := strings.TrimSpace(sb.String())
	if reply == "" {
		return "", ErrEmptyCompletion
	}

	o.logger.Debug("ollama generate complete",
		"model", o.cfg.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"reply_chars", len(reply),
	)
	return reply, nil
}

// ListModels returns the model tags the server has pulled locally.
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("llm: create tags request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm: tags returned HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: read tags response: %w", err)
	}

	var models []string
	for _, m := range gjson.GetBytes(data, "models.#.name").Array() {
		models = append(models, m.String())
	}
	return models, nil
}

// Pull asks the server to download the configured model. The call blocks
// until the pull finishes or ctx expires; the NDJSON progress stream is
// drained and discarded.
func (o *Ollama) Pull(ctx context.Context) error {
	body, err := json.Marshal(map[string]any{"name": o.cfg.Model, "stream": true})
	if err != nil {
		return fmt.Errorf("llm: marshal pull request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.cfg.BaseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("llm: create pull request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("llm: pull returned HTTP %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxGenerateLineLength)
	for scanner.Scan() {
		if status := gjson.GetBytes(scanner.Bytes(), "error").String(); status != "" {
			return fmt.Errorf("llm: pull failed: %s", status)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("llm: read pull stream: %w", err)
	}
	return nil
}
