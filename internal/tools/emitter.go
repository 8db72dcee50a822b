package tools

import (
	"context"
)

// emitterKey uses an empty struct for a zero-allocation context key.
type emitterKey struct{}

// Emitter receives tool lifecycle events. The interface is minimal —
// only the tool name crosses it; presentation is the caller's concern.
//
// Usage:
//  1. The UI creates an emitter bound to its event channel
//  2. The UI stores it in the request context via ContextWithEmitter()
//  3. Wrapped tools retrieve it via EmitterFromContext()
//  4. Tools call OnToolStart/Complete/Error during execution
type Emitter interface {
	// OnToolStart signals that a tool has started execution.
	OnToolStart(name string)

	// OnToolComplete signals that a tool completed successfully.
	OnToolComplete(name string)

	// OnToolError signals that a tool execution failed.
	OnToolError(name string)
}

// EmitterFromContext retrieves the Emitter from ctx. Returns nil if
// none is set, allowing graceful degradation: code paths without a UI
// (the one-shot ask command, tests) simply emit nothing.
func EmitterFromContext(ctx context.Context) Emitter {
	emitter, _ := ctx.Value(emitterKey{}).(Emitter)
	return emitter
}

// ContextWithEmitter stores an Emitter in ctx for per-request binding.
func ContextWithEmitter(ctx context.Context, emitter Emitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, emitter)
}
