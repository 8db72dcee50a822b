package tui

import (
	"context"
	"fmt"
	"log/slog"

	tea "charm.land/bubbletea/v2"
	"github.com/firebase/genkit/go/ai"

	"github.com/attache0/attache/internal/assistant"
	"github.com/attache0/attache/internal/tools"
)

// streamBufferSize is sized for ~1.5s burst at 60 FPS refresh rate.
// This prevents backpressure during UI render delays while keeping
// memory bounded (100 strings ≈ 10KB typical).
const streamBufferSize = 100

// streamEvent is a discriminated union for all stream events.
// Using a single channel with union type simplifies select logic
// and eliminates complex multi-channel closure handling.
type streamEvent struct {
	// Exactly one of these fields is set per event
	text       string              // Text chunk (when non-empty)
	resp       *assistant.Response // Final response (when done is true)
	err        error               // Error (when non-nil)
	done       bool                // True when stream completed successfully
	toolStatus string              // Tool status line (when non-empty, e.g. "Searching the web...")
}

// Stream message types for Bubble Tea
type streamStartedMsg struct {
	eventCh <-chan streamEvent
	cancel  context.CancelFunc
}

type streamTextMsg struct {
	text string
}

type streamDoneMsg struct {
	resp *assistant.Response
}

type streamErrorMsg struct {
	err error
}

type streamToolMsg struct {
	status string
}

// toolLabels maps tool names to the status line shown while they run.
var toolLabels = map[string]string{
	tools.NameSearchWeb:    "Searching the web",
	tools.NameReadArticle:  "Reading an article",
	tools.NameStockQuote:   "Fetching the latest quote",
	tools.NameStockHistory: "Fetching price history",
	tools.NameCurrentTime:  "Checking the date",
}

// toolLabel returns the display label for a tool, falling back to the
// raw tool name for anything unmapped.
func toolLabel(name string) string {
	if label, ok := toolLabels[name]; ok {
		return label
	}
	return name
}

// tuiToolEmitter implements tools.Emitter for the TUI. It sends tool
// status through the stream event channel so the viewport can show
// what the assistant is doing between text chunks.
type tuiToolEmitter struct {
	eventCh chan<- streamEvent
}

func (e *tuiToolEmitter) OnToolStart(name string) {
	select {
	case e.eventCh <- streamEvent{toolStatus: toolLabel(name) + "..."}:
	default: // best-effort: don't block if channel is full
	}
}

// OnToolComplete is a no-op: the status indicator stays up until the
// next text chunk clears it in Update, which avoids flicker when the
// model chains tool calls.
func (e *tuiToolEmitter) OnToolComplete(_ string) {}

func (e *tuiToolEmitter) OnToolError(_ string) {}

// Compile-time interface verification.
var _ tools.Emitter = (*tuiToolEmitter)(nil)

// startStream creates a command that initiates a generation.
//
// Goroutine lifecycle: the spawned goroutine exits when:
//  1. The generation completes normally
//  2. The context is canceled (cancel() called)
//  3. An error occurs
//
// Channel closure signals completion - no WaitGroup needed.
func (m *Model) startStream(query string) tea.Cmd {
	return func() tea.Msg {
		eventCh := make(chan streamEvent, streamBufferSize)

		// Create context with timeout to prevent indefinite hangs
		ctx, cancel := context.WithTimeout(m.ctx, streamTimeout)

		// Inject the tool event emitter so tool activity is shown in the TUI
		ctx = tools.ContextWithEmitter(ctx, &tuiToolEmitter{eventCh: eventCh})

		go func() {
			// Ensure timer resources are released on all exit paths
			defer cancel()
			// Channel closure signals goroutine completion
			defer close(eventCh)

			// Panic recovery to prevent TUI lockup
			defer func() {
				if r := recover(); r != nil {
					slog.Error("stream panic recovered", "panic", r)
					select {
					case eventCh <- streamEvent{err: fmt.Errorf("stream panic: %v", r)}:
					default:
					}
				}
			}()

			resp, err := m.svc.SendStream(ctx, query,
				func(cbCtx context.Context, chunk *ai.ModelResponseChunk) error {
					if text := chunk.Text(); text != "" {
						select {
						case eventCh <- streamEvent{text: text}:
						case <-cbCtx.Done():
							return cbCtx.Err()
						}
					}
					return nil
				})
			if err != nil {
				select {
				case eventCh <- streamEvent{err: err}:
				case <-ctx.Done():
				}
				return
			}

			select {
			case eventCh <- streamEvent{done: true, resp: resp}:
			case <-ctx.Done():
			}
		}()

		return streamStartedMsg{
			eventCh: eventCh,
			cancel:  cancel,
		}
	}
}

// listenForStream creates a command to wait for the next stream event.
// Uses the single union channel - no complex multi-channel select needed.
// Empty events (all fields zero) are skipped via loop instead of recursion
// to prevent stack overflow under pathological conditions.
func listenForStream(eventCh <-chan streamEvent) tea.Cmd {
	return func() tea.Msg {
		if eventCh == nil {
			return nil
		}

		for {
			event, ok := <-eventCh
			if !ok {
				// Channel closed - stream ended
				return streamErrorMsg{err: fmt.Errorf("stream ended without completion signal")}
			}

			// Discriminated union dispatch
			switch {
			case event.err != nil:
				return streamErrorMsg{err: event.err}
			case event.done:
				return streamDoneMsg{resp: event.resp}
			case event.toolStatus != "":
				return streamToolMsg{status: event.toolStatus}
			case event.text != "":
				return streamTextMsg{text: event.text}
			default:
				// Empty event - loop instead of recursing
				continue
			}
		}
	}
}
