package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/attache0/attache/internal/log"
)

// fallbackResponseMessage is returned when the model produces an empty response.
const fallbackResponseMessage = "I apologize, but I couldn't generate a response. Please try rephrasing your question."

// Response represents the complete result of one generation. Tool
// activity is surfaced live through tools.Emitter rather than carried
// on the response.
type Response struct {
	FinalText string // Model's final text output
}

// StreamCallback is called for each chunk of a streaming response.
// The chunk contains partial content that can be immediately displayed.
// Return an error to abort the stream.
type StreamCallback func(ctx context.Context, chunk *ai.ModelResponseChunk) error

// Runner is a ready-to-use assistant handle: one profile bound to a
// model on a Genkit instance. Runners are stateless; conversation
// history is passed in with every call, so a Runner is safe for
// concurrent use.
type Runner struct {
	profile Profile

	// Immutable configuration (captured at construction)
	modelName   string
	temperature float32
	maxTokens   int
	maxTurns    int

	// Resilience (captured at construction)
	retryConfig RetryConfig
	rateLimiter *rate.Limiter
	circuit     *CircuitBreaker // Shared across runners; nil disables

	// Dependencies (read-only after construction)
	g         *genkit.Genkit
	toolRefs  []ai.ToolRef
	toolNames string // comma-separated, for logging
	logger    log.Logger
}

// Profile returns the profile this runner was built from.
func (r *Runner) Profile() Profile {
	return r.profile
}

// Kind returns the assistant kind this runner serves.
func (r *Runner) Kind() Kind {
	return r.profile.Kind
}

// ModelName returns the provider-qualified model the runner generates with.
func (r *Runner) ModelName() string {
	return r.modelName
}

// ToolNames returns the names of the tools bound to this runner.
func (r *Runner) ToolNames() []string {
	return append([]string(nil), r.profile.ToolNames...)
}

// Execute runs one generation over the given history plus the new user
// input and returns the final response.
func (r *Runner) Execute(ctx context.Context, history []*ai.Message, input string) (*Response, error) {
	return r.execute(ctx, history, input, nil)
}

// ExecuteStream runs one generation, delivering partial output through
// cb as it arrives. The returned Response carries the complete text.
func (r *Runner) ExecuteStream(ctx context.Context, history []*ai.Message, input string, cb StreamCallback) (*Response, error) {
	return r.execute(ctx, history, input, cb)
}

func (r *Runner) execute(ctx context.Context, history []*ai.Message, input string, cb StreamCallback) (*Response, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: input is empty", ErrExecutionFailed)
	}

	messages := make([]*ai.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(input)))

	opts := []ai.GenerateOption{
		ai.WithModelName(r.modelName),
		ai.WithSystem(r.systemPrompt()),
		ai.WithMessages(messages...),
		ai.WithMaxTurns(r.maxTurns),
		ai.WithConfig(map[string]any{
			"temperature":     r.temperature,
			"maxOutputTokens": r.maxTokens,
		}),
	}
	if len(r.toolRefs) > 0 {
		opts = append(opts, ai.WithTools(r.toolRefs...))
	}
	if cb != nil {
		opts = append(opts, ai.WithStreaming(ai.ModelStreamCallback(cb)))
	}

	// Check the circuit breaker before spending a provider request.
	if r.circuit != nil {
		if err := r.circuit.Allow(); err != nil {
			r.logger.Warn("circuit breaker is open, rejecting request",
				"assistant", r.profile.Kind,
				"state", r.circuit.State().String())
			return nil, fmt.Errorf("service unavailable: %w", err)
		}
	}

	start := time.Now()
	resp, err := r.generateWithRetry(ctx, opts)
	if err != nil {
		if r.circuit != nil {
			r.circuit.Failure()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrExecutionFailed, r.profile.Kind, err)
	}
	if r.circuit != nil {
		r.circuit.Success()
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		r.logger.Warn("model returned empty response",
			"assistant", r.profile.Kind,
			"input_chars", len(input))
		text = fallbackResponseMessage
	}

	r.logger.Info("assistant responded",
		"assistant", r.profile.Kind,
		"model", r.modelName,
		"tools", r.toolNames,
		"history_messages", len(history),
		"elapsed", time.Since(start))

	return &Response{FinalText: text}, nil
}

// systemPrompt combines the profile instructions with the current date
// so "latest" and "this week" resolve sensibly.
func (r *Runner) systemPrompt() string {
	return r.profile.Instructions + "\n\nToday's date is " + time.Now().Format("2006-01-02 (Monday)") + "."
}
