package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidEmail       = errors.New("invalid email address")
	ErrEmptyPassword      = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrEmptyName          = errors.New("name is required")
	ErrInvalidRole        = errors.New("role must be patient or provider")
	ErrEmptyResetToken    = errors.New("reset token is required")
	ErrEmptyMessageBody   = errors.New("message body or attachment is required")
	ErrMessageTooLong     = errors.New("message body exceeds the allowed length")
	ErrNoMessageRecipient = errors.New("conversation or receiver is required")
	ErrEmptyCorrelationID = errors.New("correlation id is required")
)
