package storage

import "errors"

var (
	ErrNotFound   = errors.New("storage: key not found")
	ErrInvalidKey = errors.New("storage: invalid key")
	// ErrCorrupt wraps entries that exist but cannot be decoded.
	ErrCorrupt = errors.New("storage: corrupt entry")
)
