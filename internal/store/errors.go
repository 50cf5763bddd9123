package store

import "errors"

var (
	// ErrCredentialsNotFound is returned when no persisted session bundle
	// exists (fresh install, or after logout).
	ErrCredentialsNotFound = errors.New("credentials not found")

	// ErrCacheMiss is returned when the offline cache holds nothing for
	// the requested conversation.
	ErrCacheMiss = errors.New("cache miss")
)
