package service

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the services. Handlers translate these into
// HTTP status codes; the messages are safe to show to clients.
var (
	ErrEmailExists        = errors.New("user email already exists")
	ErrNumberExists       = errors.New("user number already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInvalidCode        = errors.New("invalid OTP")
	ErrCodeExpired        = errors.New("OTP has expired")
	ErrDeliveryFailed     = errors.New("failed to send OTP")
	ErrPermissionDenied   = errors.New("insufficient permissions")
	ErrSignalNotFound     = errors.New("signal not found")
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every field rejected by an operation's
// validation pass. The input was not acted upon.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// IsValidationError reports whether err carries field-level validation
// failures.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
