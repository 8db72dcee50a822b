package tools

import "time"

// CurrentTime returns the current timestamp in a human-readable format.
// Both assistants get this tool so date-relative questions resolve
// against the real clock instead of the model's training cutoff.
func CurrentTime() string {
	return time.Now().Format("2006-01-02 15:04:05 (Monday)")
}
