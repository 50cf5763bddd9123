package models

import "time"

// UserStatus describes the server-side lifecycle state of an account.
// Accounts that are not yet approved by an administrator, or that have been
// deactivated, can authenticate with valid credentials but must not receive
// a session.
type UserStatus string

const (
	// UserStatusActive marks a fully approved, usable account.
	UserStatusActive UserStatus = "active"

	// UserStatusPending marks an account awaiting administrator approval.
	UserStatusPending UserStatus = "pending"

	// UserStatusDeactivated marks an account that has been switched off.
	UserStatusDeactivated UserStatus = "deactivated"
)

// User represents an account entity used for authentication and display.
// The client caches it locally so the UI can render the profile before the
// first round-trip after a restart.
type User struct {
	// ID is the server-assigned user identifier. It doubles as the
	// counterpart reference in conversations.
	ID string `json:"id"`

	// Email is the unique login identifier.
	Email string `json:"email"`

	// Name is the display name of the user. Non-sensitive, shown in UI.
	Name string `json:"name"`

	// Role distinguishes patients from providers ("patient", "provider").
	Role string `json:"role"`

	// Status is the account lifecycle state. Only active accounts may hold
	// a session.
	Status UserStatus `json:"status"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at"`
}
