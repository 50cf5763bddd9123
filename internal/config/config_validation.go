// SPDX-License-Identifier: Apache-2.0

package config

import "strings"

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.API.Address == "" || cfg.API.RequestTimeout == 0 {
		return ErrInvalidAPIConfigs
	}

	if cfg.Presence.TypingDebounce <= 0 || cfg.Presence.TypingExpiry <= 0 {
		return ErrInvalidPresenceConfigs
	}

	if cfg.Workers.RefreshLeeway <= 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
