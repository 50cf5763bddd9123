package config

import (
	"fmt"
	"time"
)

// Defaults applied by [GetClientConfig] when a setting is absent from
// every configuration source.
const (
	DefaultRequestTimeout   = 15 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultTypingDebounce   = 2 * time.Second
	DefaultTypingExpiry     = 3 * time.Second
	DefaultRefreshLeeway    = 30 * time.Second
)

// ClientAPI holds network settings used by the client REST transport.
type ClientAPI struct {
	// Address is the REST endpoint address.
	Address string
	// RequestTimeout is the default timeout for outbound client requests.
	RequestTimeout time.Duration
}

// ClientRealtime holds the push-channel settings.
type ClientRealtime struct {
	// Address is the websocket endpoint. Empty means "derive from the
	// REST address".
	Address string
	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout time.Duration
}

// ClientDB contains local database connection settings for the client.
type ClientDB struct {
	// DSN is the SQLite file path used by the client.
	DSN string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// DB holds local database settings.
	DB ClientDB
}

// ClientPresence groups the typing-indicator timing settings.
type ClientPresence struct {
	// TypingDebounce is the minimum gap between local typing_start
	// emissions.
	TypingDebounce time.Duration
	// TypingExpiry is the remote indicator lifetime.
	TypingExpiry time.Duration
}

// ClientWorkers contains client background job settings.
type ClientWorkers struct {
	// RefreshLeeway is how long before token expiry the proactive refresh
	// fires.
	RefreshLeeway time.Duration
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// App contains application-level client settings.
	App App
	// API contains the REST transport address and timeout.
	API ClientAPI
	// Realtime contains the push-channel settings.
	Realtime ClientRealtime
	// Storage contains client storage settings.
	Storage ClientStorage
	// Presence contains the typing-indicator timing settings.
	Presence ClientPresence
	// Workers contains background job settings.
	Workers ClientWorkers
}

// GetClientConfig builds and validates the client configuration.
//
// It merges environment variables, flags, and the optional JSON file via
// the builder, maps the result onto [ClientConfig], applies defaults for
// timing knobs that were left unset, and validates the final value.
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		App: cfg.App,
		API: ClientAPI{
			Address:        cfg.API.Address,
			RequestTimeout: cfg.API.RequestTimeout,
		},
		Realtime: ClientRealtime{
			Address:          cfg.Realtime.Address,
			HandshakeTimeout: cfg.Realtime.HandshakeTimeout,
		},
		Storage: ClientStorage{
			DB: ClientDB{
				DSN: cfg.Storage.DB.DSN,
			},
		},
		Presence: ClientPresence{
			TypingDebounce: cfg.Presence.TypingDebounce,
			TypingExpiry:   cfg.Presence.TypingExpiry,
		},
		Workers: ClientWorkers{RefreshLeeway: cfg.Workers.RefreshLeeway},
	}

	clientCfg.applyDefaults()

	return clientCfg, clientCfg.validate()
}

func (cfg *ClientConfig) applyDefaults() {
	if cfg.API.RequestTimeout == 0 {
		cfg.API.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Realtime.HandshakeTimeout == 0 {
		cfg.Realtime.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if cfg.Presence.TypingDebounce == 0 {
		cfg.Presence.TypingDebounce = DefaultTypingDebounce
	}
	if cfg.Presence.TypingExpiry == 0 {
		cfg.Presence.TypingExpiry = DefaultTypingExpiry
	}
	if cfg.Workers.RefreshLeeway == 0 {
		cfg.Workers.RefreshLeeway = DefaultRefreshLeeway
	}
}
