package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for session arbitration and upstream token handling
var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionMismatch = errors.New("session id mismatch")
	ErrSessionTimeout  = errors.New("session idle timeout")

	// ErrSessionInvalid is the only failure a caller ever sees
	ErrSessionInvalid = errors.New("session expired or invalid")

	// Upstream identity and token errors
	ErrIdentityVerification = errors.New("identity verification failed")
	ErrExchange             = errors.New("token exchange failed")
	ErrMissingCredential    = errors.New("no identity credential available for acquisition")

	// ErrConfiguration is raised when a selected code path lacks required settings
	ErrConfiguration = errors.New("configuration error")
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
