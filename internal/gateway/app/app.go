// Package app wires the gateway's components together and owns the process
// lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/MrKirlew/THEEPHONE/common/retry"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/config"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/httpapi"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/imageproc"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/intent"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/llm"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/router"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/schedule"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/services"
	"github.com/MrKirlew/THEEPHONE/internal/gateway/session"
)

// sessionSweepInterval is how often idle sessions are evicted.
const sessionSweepInterval = 10 * time.Minute

// App is the assembled gateway.
type App struct {
	cfg       config.Config
	logger    *slog.Logger
	ollama    *llm.Ollama
	engine    *llm.Engine
	sessions  *session.Store
	schedules *schedule.Store
	server    *httpapi.Server

	cancel context.CancelFunc
}

// New builds the application from configuration.
func New(cfg config.Config) (*App, error) {
	logger := slog.Default()

	classifier, err := intent.New()
	if err != nil {
		return nil, fmt.Errorf("app: load intent rules: %w", err)
	}

	schedules, err := schedule.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("app: open schedule store: %w", err)
	}

	google := services.NewClient(services.ClientConfig{
		BaseURL: cfg.GoogleAPIBase,
		Timeout: cfg.GoogleTimeout,
	})

	registry := services.NewRegistry(services.Deps{
		Google:    google,
		Contacts:  services.NewPeopleResolver(google),
		Schedules: schedules,
		Logger:    logger,
	})

	ollama := llm.NewOllama(llm.OllamaConfig{
		BaseURL:         cfg.OllamaURL,
		Model:           cfg.OllamaModel,
		ProbeTimeout:    cfg.OllamaProbeTimeout,
		GenerateTimeout: cfg.OllamaGenerateTimeout,
	}, logger)
	engine := llm.NewEngine(ollama, logger)

	sessions := session.NewStore(session.Config{
		MaxMessages: cfg.SessionMaxMessages,
		TTL:         cfg.SessionTTL,
	})

	rt := router.New(classifier, sessions, registry, engine,
		imageproc.New(google, logger), logger)

	return &App{
		cfg:       cfg,
		logger:    logger,
		ollama:    ollama,
		engine:    engine,
		sessions:  sessions,
		schedules: schedules,
		server:    httpapi.New(rt, classifier, engine, logger),
	}, nil
}

// Run starts the gateway and blocks until an interrupt or a fatal server
// error. The model server is waited for with bounded retries; when the wait
// fails the gateway still starts, serving rule-based replies until the model
// comes back.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	defer cancel()

	if err := a.waitForOllama(ctx); err != nil {
		a.logger.Warn("model backend not ready, starting in fallback mode", "error", err)
	}

	go a.sweepSessions(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe(ctx, a.cfg.HTTPAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info("shutting down", "signal", sig.String())
		cancel()
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// Stop triggers a graceful shutdown and releases resources.
func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.schedules != nil {
		a.schedules.Close()
	}
}

// waitForOllama polls the model server until it responds, then makes sure the
// configured model is present, pulling it if allowed.
func (a *App) waitForOllama(ctx context.Context) error {
	err := retry.Do(ctx, retry.Config{
		MaxAttempts:  a.cfg.OllamaStartupAttempts,
		InitialDelay: time.Second,
		MaxDelay:     5 * time.Second,
	}, func() error {
		if !a.ollama.Available(ctx) {
			return fmt.Errorf("model server not responding at %s", a.cfg.OllamaURL)
		}
		return nil
	})
	if err != nil {
		return err
	}

	models, err := a.ollama.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	if slices.Contains(models, a.cfg.OllamaModel) {
		a.logger.Info("model backend ready", "model", a.cfg.OllamaModel)
		return nil
	}

	if !a.cfg.OllamaPullModel {
		return fmt.Errorf("model %s not present and pulling is disabled", a.cfg.OllamaModel)
	}

	a.logger.Info("pulling model", "model", a.cfg.OllamaModel)
	if err := a.ollama.Pull(ctx); err != nil {
		return fmt.Errorf("pull model: %w", err)
	}
	a.logger.Info("model backend ready", "model", a.cfg.OllamaModel)
	return nil
}

// sweepSessions evicts idle sessions on a timer until ctx is cancelled.
func (a *App) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.sessions.EvictExpired(time.Now()); n > 0 {
				a.logger.Debug("evicted idle sessions", "count", n)
			}
		}
	}
}
