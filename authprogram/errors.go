package authprogram

import (
	"errors"
	"fmt"
)

type (
	ValidationError struct {
		Field  string
		Reason string
	}
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidSignature   = errors.New("token signature is invalid")
	ErrUnknownSession     = errors.New("token does not match an active session")
	ErrUserNotFound       = errors.New("user not found")

	// ErrUnauthorized is what callers outside this package should see
	// whenever a token could not be resolved to a user.
	ErrUnauthorized = errors.New("unauthorized")
)

func (v ValidationError) Error() string {
	return fmt.Sprintf("field %v is invalid: %v", v.Field, v.Reason)
}

// IsUnauthorized returns true for any error that means the presented token
// cannot be used.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrUnknownSession) ||
		errors.Is(err, ErrUnauthorized)
}
