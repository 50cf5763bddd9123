package models

import "time"

// TypingState is the ephemeral remote typing indicator for one
// conversation. It is owned by the typing tracker, never persisted, and
// decays on its own: once ExpiresAt is reached the indicator is off even
// if no stop event ever arrives.
type TypingState struct {
	RemoteTyping bool
	ExpiresAt    time.Time
}

// ActiveAt reports whether the indicator should be shown at instant now.
func (t TypingState) ActiveAt(now time.Time) bool {
	return t.RemoteTyping && now.Before(t.ExpiresAt)
}
