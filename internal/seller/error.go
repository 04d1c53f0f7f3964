package seller

import "errors"

var (
	// ErrProfileNotFound signals that the identity has no seller profile. It is
	// an expected steady state, not a failure.
	ErrProfileNotFound = errors.New("seller profile not found")

	ErrProfileExists     = errors.New("seller profile already exists")
	ErrInvalidStatus     = errors.New("invalid seller status")
	ErrInvalidTransition = errors.New("seller status transition not allowed")
	ErrStoreNameRequired = errors.New("store name is required")
	ErrFailedGetProfile  = errors.New("failed to get seller profile")

	PgUniqueViolation = "23505"
)
