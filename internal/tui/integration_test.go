package tui

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
)

var errBoom = errors.New("provider exploded")

// TestStreamRoundTrip drives a full generation through the union channel:
// startStream spawns the goroutine, listenForStream drains events, and the
// final response arrives as streamDoneMsg.
func TestStreamRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	m, mock := newTestModel(t)
	mock.AddResponse("ping", "pong")

	startMsg := m.startStream("ping")()
	started, ok := startMsg.(streamStartedMsg)
	if !ok {
		t.Fatalf("startStream returned %T, want streamStartedMsg", startMsg)
	}
	defer started.cancel()

	var streamed string
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("stream did not complete in time")
		default:
		}

		switch msg := listenForStream(started.eventCh)().(type) {
		case streamTextMsg:
			streamed += msg.text
		case streamDoneMsg:
			if msg.resp == nil || msg.resp.FinalText != "pong" {
				t.Fatalf("final response = %+v, want pong", msg.resp)
			}
			if streamed != "pong" {
				t.Errorf("streamed chunks = %q, want pong", streamed)
			}
			// Transcript recorded both turns through the service.
			turns := m.svc.Turns()
			if len(turns) != 2 {
				t.Fatalf("len(turns) = %d, want 2", len(turns))
			}
			return
		case streamErrorMsg:
			t.Fatalf("unexpected stream error: %v", msg.err)
		}
	}
}

// TestStreamRoundTripFailure verifies a provider failure surfaces as a
// streamErrorMsg and leaves only the user turn in the transcript.
func TestStreamRoundTripFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	m, mock := newTestModel(t)
	mock.FailWith(errBoom)

	startMsg := m.startStream("doomed")()
	started, ok := startMsg.(streamStartedMsg)
	if !ok {
		t.Fatalf("startStream returned %T, want streamStartedMsg", startMsg)
	}
	defer started.cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("stream did not fail in time")
		default:
		}

		switch msg := listenForStream(started.eventCh)().(type) {
		case streamTextMsg:
			// ignore
		case streamDoneMsg:
			t.Fatal("expected failure, got streamDoneMsg")
		case streamErrorMsg:
			if msg.err == nil {
				t.Fatal("streamErrorMsg with nil error")
			}
			turns := m.svc.Turns()
			if len(turns) != 1 {
				t.Fatalf("len(turns) = %d after failure, want 1", len(turns))
			}
			return
		}
	}
}
