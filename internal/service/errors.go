package service

import "errors"

var (
	// ErrInvalidCredentials is returned by Login on a wrong email or
	// password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountPending is returned by Login for an account awaiting
	// approval. No session is established.
	ErrAccountPending = errors.New("account pending approval")

	// ErrAccountDeactivated is returned by Login for a switched-off
	// account. No session is established.
	ErrAccountDeactivated = errors.New("account deactivated")

	// ErrSessionExpired is returned when silent refresh is impossible or
	// exhausted. The session has already been reset to anonymous when
	// this surfaces.
	ErrSessionExpired = errors.New("session expired")

	// ErrNotAuthenticated is returned by operations that need a live
	// session when there is none.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoOpenConversation is returned by Send when no conversation is
	// open.
	ErrNoOpenConversation = errors.New("no open conversation")

	// ErrPromotionConflict is returned when the server rejects a temp
	// conversation's first send because the canonical conversation
	// already exists. The caller should return to the conversation list
	// and reseed.
	ErrPromotionConflict = errors.New("conversation promotion conflict")

	// ErrEmptyMessage is returned by Send for a body with no content and
	// no attachment.
	ErrEmptyMessage = errors.New("empty message")
)
