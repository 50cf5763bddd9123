// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"errors"
	"strings"

	"github.com/ametov/bookline/internal/service"
)

// humanizeError turns a service or transport error into the line shown in
// the footer of a screen.
func humanizeError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Wrong email or password"
	case errors.Is(err, service.ErrAccountPending):
		return "Your account is awaiting approval"
	case errors.Is(err, service.ErrAccountDeactivated):
		return "This account has been deactivated"
	case errors.Is(err, service.ErrSessionExpired):
		return "Your session has expired, please sign in again"
	case errors.Is(err, service.ErrPromotionConflict):
		return "This conversation was just created elsewhere, pick it from the list"
	case errors.Is(err, service.ErrEmptyMessage):
		return "Nothing to send"
	}

	s := strings.ToLower(err.Error())
	if strings.Contains(s, "connection refused") ||
		strings.Contains(s, "dial tcp") ||
		strings.Contains(s, "no such host") ||
		strings.Contains(s, "network is unreachable") ||
		strings.Contains(s, "i/o timeout") ||
		strings.Contains(s, "context deadline exceeded") {
		return "No network or the server is unreachable"
	}

	return err.Error()
}
