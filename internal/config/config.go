// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// bookline client. It aggregates all sub-configurations and is populated
// by merging values from environment variables, command-line flags, and an
// optional JSON file.
//
// Struct tags:
//   - envPrefix - prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       - direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the version string.
	App App `envPrefix:"APP_"`

	// API holds the REST endpoint address and request timeout.
	API API `envPrefix:"API_"`

	// Realtime holds the push-channel connection settings.
	Realtime Realtime `envPrefix:"REALTIME_"`

	// Storage holds configuration for the local persistence backend.
	Storage Storage `envPrefix:"STORAGE_"`

	// Presence holds the typing-indicator timing knobs.
	Presence Presence `envPrefix:"PRESENCE_"`

	// Workers holds configuration for background jobs.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// Version is the semantic version string of the running client
	// (e.g. "1.2.3"). Shown on the welcome screen.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// API holds network settings for the outbound REST transport.
type API struct {
	// Address is the API endpoint in "host:port" or full-URL form
	// (e.g. "localhost:8080" or "https://api.bookline.dev").
	// Env: API_ADDRESS
	Address string `env:"ADDRESS"`

	// RequestTimeout is the maximum duration of a single outbound request
	// before the client cancels it (e.g. "15s").
	// Env: API_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Realtime holds settings for the websocket push channel.
type Realtime struct {
	// Address is the websocket endpoint. When empty it is derived from
	// API.Address by switching the scheme to ws/wss and appending /ws.
	// Env: REALTIME_ADDRESS
	Address string `env:"ADDRESS"`

	// HandshakeTimeout bounds the websocket dial (e.g. "10s").
	// Env: REALTIME_HANDSHAKE_TIMEOUT
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT"`
}

// Storage groups the configuration for the local persistence backend.
type Storage struct {
	// DB holds the local database connection settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the local SQLite database that backs
// the credential store and the offline conversation cache.
type DB struct {
	// DSN is the SQLite file path
	// (e.g. "~/.bookline/client.db").
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Presence holds the typing-indicator timing configuration.
type Presence struct {
	// TypingDebounce is the minimum gap between two locally emitted
	// typing_start events while the user keeps typing.
	// Env: PRESENCE_TYPING_DEBOUNCE
	TypingDebounce time.Duration `env:"TYPING_DEBOUNCE"`

	// TypingExpiry is how long a remote typing indicator stays lit after
	// the last user_typing event if no stop event arrives.
	// Env: PRESENCE_TYPING_EXPIRY
	TypingExpiry time.Duration `env:"TYPING_EXPIRY"`
}

// Workers holds configuration for client background jobs.
type Workers struct {
	// RefreshLeeway is how long before access-token expiry the proactive
	// refresh job fires (e.g. "30s").
	// Env: WORKERS_REFRESH_LEEWAY
	RefreshLeeway time.Duration `env:"REFRESH_LEEWAY"`
}
