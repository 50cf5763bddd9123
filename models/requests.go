package models

// LoginRequest carries the credentials for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest carries the fields for POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// RefreshRequest carries the refresh token for POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ForgotPasswordRequest starts the password reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes the password reset flow with the token
// that was mailed to the user.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// SendMessageRequest is the body of POST /api/messages/send.
//
// Exactly one of ConversationID or ReceiverID identifies the destination:
// a send from a temp conversation carries only the receiver, and the
// server creates the canonical conversation on first delivery.
type SendMessageRequest struct {
	ConversationID string      `json:"conversation_id,omitempty"`
	ReceiverID     string      `json:"receiver_id"`
	Body           string      `json:"body"`
	Attachment     *Attachment `json:"attachment,omitempty"`

	// CorrelationID is the client-generated id of this send. The server
	// echoes it on the created message so the optimistic local entry can
	// be reconciled.
	CorrelationID string `json:"correlation_id"`
}
