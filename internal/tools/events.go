package tools

import (
	"github.com/firebase/genkit/go/ai"
)

// WithEvents wraps a typed tool handler to emit lifecycle events.
// The generic signature matches genkit.DefineTool handlers directly.
//
// The wrapper:
//  1. Retrieves the emitter from context (may be nil)
//  2. Emits OnToolStart before execution
//  3. Calls the original handler
//  4. Emits OnToolComplete or OnToolError after execution
//
// With no emitter in context the wrapper passes straight through, so
// non-interactive callers pay nothing.
func WithEvents[In, Out any](name string, fn func(*ai.ToolContext, In) (Out, error)) func(*ai.ToolContext, In) (Out, error) {
	return func(ctx *ai.ToolContext, input In) (Out, error) {
		emitter := EmitterFromContext(ctx.Context)

		if emitter != nil {
			emitter.OnToolStart(name)
		}

		result, err := fn(ctx, input)

		if emitter != nil {
			if err != nil {
				emitter.OnToolError(name)
			} else {
				emitter.OnToolComplete(name)
			}
		}

		return result, err
	}
}
