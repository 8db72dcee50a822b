// Package session holds the in-memory conversation transcript and its
// JSON archive. A session lives for the process lifetime; switching
// assistants clears the transcript but keeps the session identity.
package session

import (
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in the conversation transcript.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session is an append-only conversation transcript.
// All methods are safe for concurrent use.
type Session struct {
	id uuid.UUID

	mu    sync.RWMutex
	turns []Turn
}

// New creates an empty session with a fresh identity.
func New() *Session {
	return &Session{id: uuid.New()}
}

// ID returns the session identity used for archive filenames.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Append adds a turn to the transcript.
func (s *Session) Append(role Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, Turn{Role: role, Content: content, At: time.Now()})
}

// Turns returns a copy of the transcript in order.
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Clear empties the transcript. The session identity is unchanged.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

// History converts the transcript to Genkit messages, keeping at most
// the last maxTurns turns. maxTurns <= 0 means no limit.
func (s *Session) History(maxTurns int) []*ai.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.turns
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	msgs := make([]*ai.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case RoleUser:
			msgs = append(msgs, ai.NewUserMessage(ai.NewTextPart(turn.Content)))
		case RoleAssistant:
			msgs = append(msgs, ai.NewModelMessage(ai.NewTextPart(turn.Content)))
		}
	}
	return msgs
}
