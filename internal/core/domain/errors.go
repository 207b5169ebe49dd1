package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrAdNotFound         = fmt.Errorf("ad %w", ErrNotFound)
	ErrCommentNotFound    = fmt.Errorf("comment %w", ErrNotFound)
	ErrImageNotFound      = fmt.Errorf("image %w", ErrNotFound)
	ErrForbidden          = errors.New("access forbidden")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrConcurrentUpdate   = errors.New("resource was modified concurrently")
	ErrRequestInProgress  = errors.New("a request with this idempotency key is in progress")
	ErrValidation         = errors.New("validation failed")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
