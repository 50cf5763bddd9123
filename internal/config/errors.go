package config

import "errors"

// Validation errors returned by [ClientConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidAPIConfigs indicates invalid REST transport settings
	// (for example, missing address or zero request timeout).
	ErrInvalidAPIConfigs = errors.New("invalid api configuration")
	// ErrInvalidStorageConfigs indicates invalid client storage settings
	// (for example, empty DSN or unsupported in-memory DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidPresenceConfigs indicates non-positive typing timing
	// settings.
	ErrInvalidPresenceConfigs = errors.New("invalid presence configuration")
	// ErrInvalidWorkerConfigs indicates invalid background job settings
	// (for example, non-positive refresh leeway).
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")
)
