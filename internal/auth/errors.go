package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrBadCredentials marks a plain 401 from the login endpoint
	ErrBadCredentials = errors.New("invalid credentials")

	// ErrBiometricIncomplete marks a challenge attempt that did not return 201
	ErrBiometricIncomplete = errors.New("biometric verification not completed")
)

// AuthError is returned for conditions the handshake cannot recover from:
// the login endpoint being unreachable or answering with a status the
// handshake does not understand.
type AuthError struct {
	Op     string
	URL    string
	Status int
	Err    error
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("authentication %s %s failed with status %d: %v", e.Op, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("authentication %s %s failed: %v", e.Op, e.URL, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
