package adapter

import "errors"

var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInternalServerError = errors.New("internal server error")
	ErrBadGateway          = errors.New("bad gateway")

	// ErrAccountPending and ErrAccountDeactivated refine a 403 login
	// rejection, distinguished by the error code the server puts in the
	// response envelope.
	ErrAccountPending     = errors.New("account pending approval")
	ErrAccountDeactivated = errors.New("account deactivated")
)
