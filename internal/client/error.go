package client

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized   = errors.New("not authorized")
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrInvalidPayload = errors.New("invalid response payload")
)

// APIError is a non-success answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}
