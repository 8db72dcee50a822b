package assistant

import (
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/attache0/attache/internal/config"
	"github.com/attache0/attache/internal/log"
	"github.com/attache0/attache/internal/tools"
)

// Factory builds runners from profiles. All runners share the same
// Genkit instance, model configuration, and rate limiter, so switching
// assistants never changes provider behavior, only instructions and
// tools.
type Factory struct {
	g        *genkit.Genkit
	registry *tools.Registry
	cfg      *config.Config
	logger   log.Logger
	limiter  *rate.Limiter
	circuit  *CircuitBreaker
}

// NewFactory creates a factory bound to a Genkit instance and tool registry.
func NewFactory(g *genkit.Genkit, registry *tools.Registry, cfg *config.Config, logger log.Logger) (*Factory, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Factory{
		g:        g,
		registry: registry,
		cfg:      cfg,
		logger:   logger,
		// One request per second with a small burst. Shared across all
		// runners from this factory so retries and assistant switches
		// respect the same provider quota.
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		// Shared for the same reason: a provider outage seen by one
		// assistant should stop the other from piling on.
		circuit: NewCircuitBreaker(DefaultCircuitBreakerConfig()),
	}, nil
}

// Build constructs a runner for the given kind.
func (f *Factory) Build(kind Kind) (*Runner, error) {
	profile, err := ProfileFor(kind)
	if err != nil {
		return nil, err
	}

	toolRefs, err := f.registry.Resolve(profile.ToolNames)
	if err != nil {
		return nil, fmt.Errorf("resolving tools for %s: %w", kind, err)
	}

	runner := &Runner{
		profile:     profile,
		modelName:   f.cfg.FullModelName(),
		temperature: f.cfg.Temperature,
		maxTokens:   f.cfg.MaxTokens,
		maxTurns:    f.cfg.MaxTurns,
		retryConfig: DefaultRetryConfig(),
		rateLimiter: f.limiter,
		circuit:     f.circuit,
		g:           f.g,
		toolRefs:    toolRefs,
		toolNames:   strings.Join(profile.ToolNames, ","),
		logger:      f.logger.With("component", "assistant", "kind", kind),
	}

	f.logger.Debug("assistant built",
		"kind", kind,
		"model", runner.modelName,
		"tools", runner.toolNames)

	return runner, nil
}

// Researcher builds the web research assistant.
func (f *Factory) Researcher() (*Runner, error) {
	return f.Build(KindResearcher)
}

// Finance builds the finance analyst assistant.
func (f *Factory) Finance() (*Runner, error) {
	return f.Build(KindFinance)
}
