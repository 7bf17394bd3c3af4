// Package apperr defines the error taxonomy shared by the repository, service and
// HTTP layers. Callers should match these values with errors.Is and errors.As.
package apperr

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned by owner-scoped lookups that match nothing. A missing
	// record and a record owned by someone else are indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated marks every Auth Gate rejection.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidToken is returned when a token fails signature, format or expiry checks.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidCredentials is the single login failure; it never says which part was wrong.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrEmailTaken is returned by the credential store on a duplicate email.
	ErrEmailTaken = errors.New("email already registered")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is a 400-class failure carrying the offending fields.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

// NewValidationError builds a ValidationError with an optional field list.
func NewValidationError(message string, fields ...FieldError) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return e.Message + ": " + strings.Join(msgs, "; ")
}

// AuthError is an Auth Gate rejection. Reason is shown to the client for
// diagnostics; every AuthError maps to 401.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	return e.Reason
}

// Unwrap lets errors.Is match both ErrUnauthenticated and the underlying cause.
func (e *AuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnauthenticated}
	}
	return []error{ErrUnauthenticated, e.Err}
}

// Unauthenticated wraps cause as an Auth Gate rejection with the given reason.
func Unauthenticated(reason string, cause error) *AuthError {
	return &AuthError{Reason: reason, Err: cause}
}
