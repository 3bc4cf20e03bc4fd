package errors

import (
	"errors"
	"fmt"
)

// Common error types for the attendance client
var (
	// Transport errors
	ErrNetwork = errors.New("could not reach server")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrSessionExpired     = errors.New("session expired")
	ErrRoleMismatch       = errors.New("role mismatch")

	// Token errors
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrNoRefreshToken = errors.New("no refresh token")

	// Request errors
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrServer     = errors.New("server error")

	// Storage errors
	ErrStoreUnavailable = errors.New("token store unavailable")
	ErrNoSession        = errors.New("no stored session")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// UserError pairs a sentinel with a message fit for display.
type UserError struct {
	Err     error
	Message string
}

// NewUserError builds a UserError whose message is formatted from format and
// args.
func NewUserError(sentinel error, format string, args ...interface{}) error {
	return &UserError{Err: sentinel, Message: fmt.Sprintf(format, args...)}
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}
