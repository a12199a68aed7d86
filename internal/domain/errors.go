package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound         = errors.New("domain: not found")
	ErrInvalidInput     = errors.New("domain: invalid input")
	ErrNoActiveSessions = errors.New("domain: no active sessions")
	ErrDisplayFailed    = errors.New("domain: display failed")
)
