// SPDX-License-Identifier: Apache-2.0

// Package adapter provides the transport layer for talking to the
// Bookline server.
//
// The primary abstraction is [ServerAdapter], which decouples the service
// layer from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPServerAdapter]) that unwraps the server's
// response envelope, attaches the bearer token, and retries an
// authenticated request exactly once after a silent token refresh.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrUnauthorized] for 401, [ErrConflict] for 409).
package adapter

import (
	"context"

	"github.com/ametov/bookline/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// RefreshHook is called by the adapter when an authenticated request is
// rejected with 401. The session service installs a hook that performs a
// coalesced token refresh and pushes the new token back via SetToken. If
// the hook returns an error the original [ErrUnauthorized] is surfaced.
type RefreshHook func(ctx context.Context) error

// ServerAdapter defines transport-agnostic communication with the
// Bookline server. Implementations are responsible for serialisation,
// authentication header management, and mapping transport-level errors to
// the sentinel values defined in this package.
type ServerAdapter interface {
	// SetToken stores the bearer token that will be attached to all
	// subsequent authenticated requests. It is safe for concurrent use.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or
	// an empty string if no token has been set yet.
	Token() string

	// SetRefreshHook installs the refresh hook invoked on a 401 response
	// to an authenticated request. Auth endpoints never trigger the hook.
	SetRefreshHook(hook RefreshHook)

	// Login exchanges the user's credentials for a token pair and
	// profile. Returns [ErrAccountPending] or [ErrAccountDeactivated]
	// when the account cannot sign in yet, [ErrUnauthorized] on bad
	// credentials. The returned tokens are NOT stored in the adapter;
	// that is the session service's call to make.
	Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error)

	// Register creates a new account. Depending on the role the server
	// may return an active session or a pending profile without tokens.
	Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error)

	// Refresh exchanges a refresh token for a fresh token pair. Returns
	// [ErrUnauthorized] if the refresh token is expired or revoked. Never
	// triggers the refresh hook.
	Refresh(ctx context.Context, refreshToken string) (models.AuthResponse, error)

	// Logout revokes the server-side session. Best effort: the caller
	// clears local state regardless of the result.
	Logout(ctx context.Context) error

	// ForgotPassword starts the password reset flow for an email.
	ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error

	// ResetPassword completes the reset flow with the mailed token.
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error

	// Me returns the profile of the authenticated user.
	Me(ctx context.Context) (models.User, error)

	// Conversations fetches the user's conversation list, most recent
	// first.
	Conversations(ctx context.Context) (models.ConversationsPage, error)

	// Messages fetches one page of a conversation's history, oldest
	// first.
	Messages(ctx context.Context, conversationID string) (models.MessagesPage, error)

	// SendMessage delivers one message. For a send addressed by receiver
	// only, the response carries the canonical conversation the server
	// created for it.
	SendMessage(ctx context.Context, req models.SendMessageRequest) (models.SendMessageResponse, error)

	// MarkRead marks every message in the conversation as read.
	MarkRead(ctx context.Context, conversationID string) error

	// DeleteConversation removes a conversation and its history.
	DeleteConversation(ctx context.Context, conversationID string) error

	// UnreadCount returns the total number of unread messages.
	UnreadCount(ctx context.Context) (int, error)

	// SearchConversations filters the conversation list by counterpart
	// name or message text.
	SearchConversations(ctx context.Context, query string) (models.ConversationsPage, error)
}
