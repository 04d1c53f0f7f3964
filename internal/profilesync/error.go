package profilesync

import "errors"

var (
	// ErrSuperseded is returned by Resync when a newer sync or a logout
	// overtook it; its result was dropped.
	ErrSuperseded = errors.New("profile sync superseded")
)
