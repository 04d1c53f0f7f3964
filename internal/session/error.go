package session

import "errors"

var (
	ErrInvalidSession   = errors.New("session requires an identity with a valid role and a token")
	ErrInvalidIdentity  = errors.New("identity has no valid role")
	ErrNotAuthenticated = errors.New("no active session")
	ErrStaleSnapshot    = errors.New("persisted session is inconsistent")
)
