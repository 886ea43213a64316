package service

import "errors"

// Domain error taxonomy. Handlers map these to transport responses;
// anything else is an infrastructure failure surfaced generically.
var (
	// ErrValidation: caller's fault, nothing was attempted.
	ErrValidation = errors.New("validation error")
	// ErrEmailTaken: create conflicted on the normalized email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidCredentials: wrong password and unknown email look
	// identical on purpose.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidResetToken: wrong and expired are indistinguishable on
	// purpose.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	// ErrUnauthenticated: the presented identity does not resolve to a
	// live account.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrStoreUnavailable: the credential store failed or timed out.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)
