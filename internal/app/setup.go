package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/firebase/genkit/go/core/tracing"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/attache0/attache/internal/assistant"
	"github.com/attache0/attache/internal/chat"
	"github.com/attache0/attache/internal/config"
	"github.com/attache0/attache/internal/log"
	"github.com/attache0/attache/internal/security"
	"github.com/attache0/attache/internal/session"
	"github.com/attache0/attache/internal/tools"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	a.Tools = tools.RegisterAll(g, cfg, security.NewHTTP(), logger)

	factory, err := assistant.NewFactory(g, a.Tools, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating assistant factory: %w", err)
	}
	a.Factory = factory

	archive, err := provideArchive(logger)
	if err != nil {
		return nil, err
	}

	svc, err := chat.NewService(factory, archive, cfg.MaxHistoryTurns, logger)
	if err != nil {
		return nil, fmt.Errorf("creating chat service: %w", err)
	}
	a.Chat = svc

	kind, err := assistant.ParseKind(cfg.DefaultAssistant)
	if err != nil {
		return nil, fmt.Errorf("default assistant: %w", err)
	}
	if err := svc.Select(kind); err != nil {
		return nil, fmt.Errorf("selecting default assistant: %w", err)
	}

	return a, nil
}

// provideGenkit initializes Genkit with the configured AI provider.
// Supports gemini (default) and openai providers. The provider plugin
// reads its API key from the environment; config.Validate has already
// confirmed it is present.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized Genkit with openai provider", "model", cfg.ModelName)

	default: // "gemini"
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideOtelShutdown sets up OTLP trace export before any Genkit
// generation runs. Disabled by default; a broken exporter downgrades to
// a warning rather than failing startup.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	tel := cfg.Telemetry
	if !tel.Enabled {
		return func() {}
	}

	endpoint := tel.Endpoint
	if endpoint == "" {
		endpoint = "localhost:4318"
	}

	// Set OTEL env vars for Genkit's TracerProvider to pick up.
	// SAFETY: os.Setenv is not concurrent-safe, but this function is called
	// exactly once during startup in Setup, before goroutines are spawned.
	if tel.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", tel.ServiceName)
	}
	if tel.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+tel.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(), // local collector doesn't need TLS
	)
	if err != nil {
		logger.Warn("creating trace exporter, tracing disabled", "error", err)
		return func() {}
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("tracing enabled",
		"endpoint", endpoint,
		"service", tel.ServiceName,
		"environment", tel.Environment,
	)

	shutdown := tracing.TracerProvider().Shutdown

	//nolint:contextcheck // Independent context: shutdown runs during teardown when parent is canceled
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideArchive creates the transcript archive under ~/.attache/sessions.
func provideArchive(logger log.Logger) (*session.Archive, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	archive, err := session.NewArchive(filepath.Join(home, ".attache", "sessions"), logger)
	if err != nil {
		return nil, fmt.Errorf("creating session archive: %w", err)
	}
	return archive, nil
}
