package validators

import (
	"context"
	"strings"

	"github.com/ametov/bookline/models"
)

// Field name constants used to specify which fields should be validated.
// These constants are passed to Validate to restrict validation to a
// subset of fields (field-level scoping).
const (
	FieldEmail         = "email"
	FieldPassword      = "password"
	FieldName          = "name"
	FieldRole          = "role"
	FieldResetToken    = "reset_token"
	FieldBody          = "body"
	FieldRecipient     = "recipient"
	FieldCorrelationID = "correlation_id"
)

// maxMessageBodyLength bounds a single chat message.
const maxMessageBodyLength = 4000

var allowedRoles = []string{"patient", "provider"}

// RequestValidator validates the request payloads the client builds
// before they leave for the server.
type RequestValidator struct {
}

func NewRequestValidator() Validator {
	return &RequestValidator{}
}

func (v *RequestValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.LoginRequest:
		return v.validateLogin(ctx, value, fields...)
	case *models.LoginRequest:
		return v.validateLogin(ctx, *value, fields...)

	case models.RegisterRequest:
		return v.validateRegister(ctx, value, fields...)
	case *models.RegisterRequest:
		return v.validateRegister(ctx, *value, fields...)

	case models.ResetPasswordRequest:
		return v.validateResetPassword(ctx, value, fields...)
	case *models.ResetPasswordRequest:
		return v.validateResetPassword(ctx, *value, fields...)

	case models.SendMessageRequest:
		return v.validateSendMessage(ctx, value, fields...)
	case *models.SendMessageRequest:
		return v.validateSendMessage(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

// isValidEmail applies the same loose shape check the server does: one
// "@" with something on both sides and a dot in the domain.
func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

func isValidRole(role string) bool {
	for _, r := range allowedRoles {
		if role == r {
			return true
		}
	}
	return false
}

func (v *RequestValidator) validateLogin(_ context.Context, req models.LoginRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldEmail, FieldPassword}
	}

	for _, f := range fields {
		switch f {
		case FieldEmail:
			if !isValidEmail(strings.TrimSpace(req.Email)) {
				return ErrInvalidEmail
			}
		case FieldPassword:
			if req.Password == "" {
				return ErrEmptyPassword
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RequestValidator) validateRegister(_ context.Context, req models.RegisterRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldEmail, FieldPassword, FieldName, FieldRole}
	}

	for _, f := range fields {
		switch f {
		case FieldEmail:
			if !isValidEmail(strings.TrimSpace(req.Email)) {
				return ErrInvalidEmail
			}
		case FieldPassword:
			if len(req.Password) < 8 {
				return ErrPasswordTooShort
			}
		case FieldName:
			if strings.TrimSpace(req.Name) == "" {
				return ErrEmptyName
			}
		case FieldRole:
			if !isValidRole(req.Role) {
				return ErrInvalidRole
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RequestValidator) validateResetPassword(_ context.Context, req models.ResetPasswordRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldResetToken, FieldPassword}
	}

	for _, f := range fields {
		switch f {
		case FieldResetToken:
			if strings.TrimSpace(req.Token) == "" {
				return ErrEmptyResetToken
			}
		case FieldPassword:
			if len(req.Password) < 8 {
				return ErrPasswordTooShort
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RequestValidator) validateSendMessage(_ context.Context, req models.SendMessageRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldBody, FieldRecipient, FieldCorrelationID}
	}

	for _, f := range fields {
		switch f {
		case FieldBody:
			if strings.TrimSpace(req.Body) == "" && req.Attachment == nil {
				return ErrEmptyMessageBody
			}
			if len(req.Body) > maxMessageBodyLength {
				return ErrMessageTooLong
			}
		case FieldRecipient:
			if req.ConversationID == "" && req.ReceiverID == "" {
				return ErrNoMessageRecipient
			}
		case FieldCorrelationID:
			if req.CorrelationID == "" {
				return ErrEmptyCorrelationID
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}
