package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/attache0/attache/internal/log"
)

// Archive writes transcript snapshots to disk as JSON.
// Saves are best-effort: a failed save is logged by the caller, never
// fatal. A file lock serializes writers so two attache processes saving
// the same session directory do not interleave.
type Archive struct {
	dir    string
	logger log.Logger
}

// archiveDocument is the on-disk shape of a saved transcript.
type archiveDocument struct {
	SessionID string    `json:"session_id"`
	Assistant string    `json:"assistant"`
	SavedAt   time.Time `json:"saved_at"`
	Turns     []Turn    `json:"turns"`
}

// NewArchive creates an archive rooted at dir, creating it if needed.
func NewArchive(dir string, logger log.Logger) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &Archive{
		dir:    dir,
		logger: logger.With("component", "session.archive"),
	}, nil
}

// Save writes the session transcript to <dir>/<session-id>.json,
// replacing any previous snapshot for the same session.
func (a *Archive) Save(s *Session, assistant string) error {
	lock := flock.New(filepath.Join(a.dir, ".lock"))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking archive directory: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			a.logger.Warn("releasing archive lock failed", "error", err)
		}
	}()

	doc := archiveDocument{
		SessionID: s.ID().String(),
		Assistant: assistant,
		SavedAt:   time.Now(),
		Turns:     s.Turns(),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding transcript: %w", err)
	}

	path := filepath.Join(a.dir, s.ID().String()+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}

	a.logger.Debug("transcript archived", "path", path, "turns", len(doc.Turns))
	return nil
}
