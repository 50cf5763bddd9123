package utils

import "time"

// Clock abstracts wall-clock access and timer scheduling so that
// time-driven components (typing presence, proactive token refresh) can be
// tested against virtual time instead of sleeping.
type Clock interface {
	// Now returns the current instant.
	Now() time.Time

	// AfterFunc schedules f to run in its own goroutine after d elapses
	// and returns a handle that can stop or reprogram the wait.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the subset of *time.Timer the client relies on.
type Timer interface {
	// Stop prevents the Timer from firing. Reports whether it stopped the
	// timer before it expired.
	Stop() bool

	// Reset reprograms the timer to expire after d.
	Reset(d time.Duration) bool
}

type realClock struct{}

// NewClock returns a Clock backed by the time package.
func NewClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
