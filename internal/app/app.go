// Package app wires configuration, Genkit, tools, the assistant
// factory, and the chat service into one container with a single
// Close() for teardown.
package app

import (
	"github.com/firebase/genkit/go/genkit"

	"github.com/attache0/attache/internal/assistant"
	"github.com/attache0/attache/internal/chat"
	"github.com/attache0/attache/internal/config"
	"github.com/attache0/attache/internal/log"
	"github.com/attache0/attache/internal/tools"
)

// App holds the initialized application components.
type App struct {
	Config  *config.Config
	Genkit  *genkit.Genkit
	Tools   *tools.Registry
	Factory *assistant.Factory
	Chat    *chat.Service
	Logger  log.Logger

	otelCleanup func()
}

// Close releases application resources. Safe to call on a partially
// initialized App and idempotent; Setup relies on that for cleanup on
// failure. The only component with teardown is the trace exporter,
// which reports its own shutdown problems as warnings, so Close never
// fails.
func (a *App) Close() error {
	if a.otelCleanup != nil {
		a.otelCleanup()
		a.otelCleanup = nil
	}
	return nil
}
