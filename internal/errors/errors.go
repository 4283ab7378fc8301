package errors

import (
	"errors"
	"fmt"
)

// Common error types for the login engine
var (
	// Instance URL errors
	ErrInvalidURL = errors.New("invalid instance url")

	// Login flow errors
	ErrRegistrationFailed         = errors.New("app registration failed")
	ErrNoPendingLogin             = errors.New("no pending login")
	ErrExpiredPendingLogin        = errors.New("pending login expired")
	ErrStateMismatch              = errors.New("oauth state mismatch")
	ErrTokenExchangeFailed        = errors.New("token exchange failed")
	ErrIdentityVerificationFailed = errors.New("identity verification failed")
	ErrAuthorizationDenied        = errors.New("authorization denied by provider")

	// Reconciliation errors
	ErrRegistryUnavailable = errors.New("account registry unavailable")

	// Storage errors
	ErrPendingLoginWrite = errors.New("pending login write failed")
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
