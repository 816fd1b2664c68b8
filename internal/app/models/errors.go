package models

import "errors"

// Domain specific errors shared by services and handlers.
var (
	ErrNotFound           = errors.New("requested item not found")
	ErrConflict           = errors.New("item already exists or conflict")
	ErrUnauthenticated    = errors.New("authentication required or invalid credentials")
	ErrForbidden          = errors.New("action forbidden")
	ErrBadRequest         = errors.New("bad request")
	ErrValidation         = errors.New("validation failed")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidDisplayName = errors.New("display name must be 2-40 letters, digits, spaces, dots, dashes or underscores")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrResetTokenInvalid  = errors.New("reset token is invalid or expired")
	ErrInvalidEmail       = errors.New("email address is invalid")
)

// ValidationError carries a user-facing message for a rejected input field.
// It matches both ErrValidation and the specific cause.
type ValidationError struct {
	Field string
	Err   error
}

func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}
