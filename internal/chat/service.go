// Package chat owns the conversation loop: which assistant is active,
// the transcript, and the rules for switching and clearing.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/attache0/attache/internal/assistant"
	"github.com/attache0/attache/internal/log"
	"github.com/attache0/attache/internal/session"
)

// ErrNoAssistant indicates Send was called before any assistant was selected.
var ErrNoAssistant = errors.New("no assistant selected")

// Service coordinates one conversation: an active runner, a transcript,
// and the last-selected assistant kind. Selecting a different kind
// discards the transcript; selecting the same kind keeps it.
//
// Safe for concurrent use, but runs one generation at a time from the
// caller's perspective: the transcript is snapshotted before a request
// and appended to after it.
type Service struct {
	factory         *assistant.Factory
	archive         *session.Archive // nil disables archiving
	logger          log.Logger
	maxHistoryTurns int

	mu       sync.Mutex
	runner   *assistant.Runner
	lastKind assistant.Kind
	session  *session.Session
}

// NewService creates a chat service with an empty transcript and no
// active assistant. archive may be nil.
func NewService(factory *assistant.Factory, archive *session.Archive, maxHistoryTurns int, logger log.Logger) (*Service, error) {
	if factory == nil {
		return nil, fmt.Errorf("factory is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{
		factory:         factory,
		archive:         archive,
		logger:          logger.With("component", "chat"),
		maxHistoryTurns: maxHistoryTurns,
		session:         session.New(),
	}, nil
}

// Select makes kind the active assistant. Switching to a different kind
// rebuilds the runner and clears the transcript; re-selecting the
// current kind keeps both.
func (s *Service) Select(kind assistant.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runner != nil && s.lastKind == kind {
		return nil
	}

	runner, err := s.factory.Build(kind)
	if err != nil {
		return fmt.Errorf("selecting assistant: %w", err)
	}

	if s.runner != nil && s.session.Len() > 0 {
		s.archiveLocked()
		// A fresh session, not Clear: the archived transcript keeps its
		// own file and the new conversation gets a new identity.
		s.session = session.New()
		s.logger.Info("assistant switched, transcript cleared",
			"from", s.lastKind, "to", kind)
	}

	s.runner = runner
	s.lastKind = kind
	return nil
}

// ActiveKind returns the active assistant kind, or false when none is
// selected yet.
func (s *Service) ActiveKind() (assistant.Kind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runner == nil {
		return "", false
	}
	return s.lastKind, true
}

// Profile returns the active assistant's profile.
func (s *Service) Profile() (assistant.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runner == nil {
		return assistant.Profile{}, ErrNoAssistant
	}
	return s.runner.Profile(), nil
}

// Send forwards text to the active assistant and returns its response.
// The user turn is recorded before the request; the assistant turn is
// recorded only on success. On failure the error is returned and the
// transcript keeps the user turn with no assistant turn.
func (s *Service) Send(ctx context.Context, text string) (*assistant.Response, error) {
	return s.send(ctx, text, nil)
}

// SendStream is Send with partial output delivered through cb.
func (s *Service) SendStream(ctx context.Context, text string, cb assistant.StreamCallback) (*assistant.Response, error) {
	return s.send(ctx, text, cb)
}

func (s *Service) send(ctx context.Context, text string, cb assistant.StreamCallback) (*assistant.Response, error) {
	s.mu.Lock()
	runner := s.runner
	if runner == nil {
		s.mu.Unlock()
		return nil, ErrNoAssistant
	}
	// Snapshot history before recording the new input; the runner
	// appends the input itself as the final user message.
	history := s.session.History(s.maxHistoryTurns)
	s.session.Append(session.RoleUser, text)
	s.mu.Unlock()

	resp, err := runner.ExecuteStream(ctx, history, text, cb)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.session.Append(session.RoleAssistant, resp.FinalText)
	s.archiveLocked()
	s.mu.Unlock()

	return resp, nil
}

// ClearHistory empties the transcript without touching the active runner.
func (s *Service) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Clear()
	s.logger.Info("transcript cleared", "assistant", s.lastKind)
}

// Turns returns a copy of the transcript.
func (s *Service) Turns() []session.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Turns()
}

// archiveLocked saves the transcript best-effort. Callers hold s.mu.
func (s *Service) archiveLocked() {
	if s.archive == nil || s.session.Len() == 0 {
		return
	}
	if err := s.archive.Save(s.session, string(s.lastKind)); err != nil {
		s.logger.Warn("archiving transcript failed", "error", err)
	}
}
