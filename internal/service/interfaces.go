// SPDX-License-Identifier: Apache-2.0

// Package service holds the client's business logic: the session state
// machine with coalesced silent refresh, the conversation synchronizer
// merging REST snapshots with realtime pushes, and the typing presence
// tracker. Services sit between the transport packages (adapter,
// realtime) and the UI.
package service

import (
	"context"

	"github.com/ametov/bookline/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// SessionService owns the single client session. It is the only writer of
// the credential store and the only component that connects or
// disconnects the realtime channel.
type SessionService interface {
	// Restore rebuilds the session from the credential store at startup.
	// With no persisted bundle the session stays anonymous; that is not
	// an error.
	Restore(ctx context.Context) (models.Session, error)

	// Login authenticates with email and password. A domain-level
	// rejection (account pending, account deactivated) is returned as a
	// typed error without establishing a session.
	Login(ctx context.Context, req models.LoginRequest) (models.Session, error)

	// Register creates an account. Depending on the role the account may
	// come back pending, in which case no session is established.
	Register(ctx context.Context, req models.RegisterRequest) (models.Session, error)

	// Logout clears the credential store, resets the session to
	// anonymous, disconnects the channel, and best-effort notifies the
	// server.
	Logout(ctx context.Context) error

	// Refresh silently renews the token pair. Concurrent callers share
	// one in-flight operation: the first caller performs the network
	// round-trip, everyone else waits for its result. An unrecoverable
	// failure forces logout and is propagated.
	Refresh(ctx context.Context) error

	// Session returns a snapshot of the current session.
	Session() models.Session

	// OnForcedLogout registers the redirect callback fired exactly once
	// per failure episode when the session dies underneath the user.
	OnForcedLogout(fn func())

	// ForgotPassword starts the password reset flow.
	ForgotPassword(ctx context.Context, email string) error

	// ResetPassword completes the reset flow with the mailed token.
	ResetPassword(ctx context.Context, token, password string) error
}

// ConversationService is the merged, deduplicated, recency-sorted view of
// the user's conversations plus the message stream of the one that is
// open.
type ConversationService interface {
	// Seed fetches the conversation list over REST and merges it into the
	// view. When the network is down it falls back to the offline cache.
	Seed(ctx context.Context) error

	// Conversations returns the current view, sorted by recency.
	Conversations() []models.Conversation

	// Open selects the conversation with the given counterpart, loading
	// its history and joining its realtime room. For a counterpart with
	// no conversation yet a temp entry is synthesized.
	Open(ctx context.Context, counterpartID, counterpartName string) (models.Conversation, error)

	// Close leaves the open conversation's room and drops its listeners.
	Close(ctx context.Context)

	// OpenID returns the id of the currently open conversation, or empty.
	OpenID() string

	// Messages returns the ordered message list of the open conversation.
	Messages() []models.Message

	// Send delivers one message from the open conversation. The message
	// appears optimistically before the server confirms; a send from a
	// temp conversation promotes it to the canonical one. Returns
	// [ErrPromotionConflict] when the server reports the conversation was
	// created concurrently elsewhere.
	Send(ctx context.Context, body string, attachment *models.Attachment) error

	// Delete removes a conversation everywhere: server, view, and cache.
	Delete(ctx context.Context, conversationID string) error

	// UnreadTotal returns the server's total unread count.
	UnreadTotal(ctx context.Context) (int, error)

	// Search filters conversations by counterpart name or message text.
	Search(ctx context.Context, query string) ([]models.Conversation, error)

	// OnChange registers the callback invoked after every view mutation,
	// including ones triggered by realtime pushes.
	OnChange(fn func())
}

// TypingService tracks typing presence per conversation: debounced local
// emission and time-decaying remote indicators.
type TypingService interface {
	// Keystroke records a content-changing keystroke in the conversation.
	// At most one typing_start is emitted per debounce window, and a stop
	// is scheduled after the same window of inactivity.
	Keystroke(conversationID string)

	// StopTyping emits typing_stop immediately (used on send) and cancels
	// the pending inactivity stop.
	StopTyping(conversationID string)

	// RemoteTyping reports whether the counterpart in the conversation is
	// typing right now. Expiry is evaluated against the clock, so a stale
	// indicator reads false even if no timer ever fired.
	RemoteTyping(conversationID string) bool

	// Forget drops all state for a conversation and cancels its timers.
	// Called when the conversation view is torn down.
	Forget(conversationID string)

	// OnChange registers the callback invoked when a remote indicator
	// turns on or off.
	OnChange(fn func())
}

// RefreshJob proactively renews the access token shortly before its
// expiry so interactive calls rarely pay the 401-retry round-trip.
type RefreshJob interface {
	// Start launches the background schedule. A previous run is stopped
	// first.
	Start(ctx context.Context)

	// Stop cancels the schedule and waits for the goroutine to exit.
	Stop()
}
