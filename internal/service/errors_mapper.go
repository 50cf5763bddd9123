// SPDX-License-Identifier: Apache-2.0

package service

import (
	"errors"

	"github.com/ametov/bookline/internal/adapter"
)

// mapAuthError translates the adapter's transport error into the service
// business error for the auth flows.
func mapAuthError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, adapter.ErrAccountPending):
		return ErrAccountPending
	case errors.Is(err, adapter.ErrAccountDeactivated):
		return ErrAccountDeactivated
	case errors.Is(err, adapter.ErrUnauthorized):
		return ErrInvalidCredentials
	}

	return err
}
