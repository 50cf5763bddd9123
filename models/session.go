package models

// SessionStatus is the lifecycle state of the single client session.
//
// Transitions: anonymous → authenticating → authenticated, and
// authenticated → expired → anonymous on a forced logout. Exactly one
// Session exists per running process.
type SessionStatus string

const (
	SessionAnonymous      SessionStatus = "anonymous"
	SessionAuthenticating SessionStatus = "authenticating"
	SessionAuthenticated  SessionStatus = "authenticated"
	SessionExpired        SessionStatus = "expired"
)

// Session is the authenticated/anonymous identity state for the running
// client. It is created at startup from the credential store, mutated only
// by the session service, and reset to anonymous on logout or an
// unrecoverable refresh failure.
type Session struct {
	// AccessToken is the short-lived bearer token attached to REST calls
	// and the realtime handshake. Empty when anonymous.
	AccessToken string

	// RefreshToken is the long-lived token used for silent renewal.
	// Empty when anonymous.
	RefreshToken string

	// User is the profile of the authenticated account. Zero value when
	// anonymous.
	User User

	// Status is the current lifecycle state.
	Status SessionStatus
}

// Authenticated reports whether the session currently holds a usable
// identity.
func (s Session) Authenticated() bool {
	return s.Status == SessionAuthenticated && s.AccessToken != ""
}
