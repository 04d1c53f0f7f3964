package user

import "errors"

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidInput       = errors.New("name, email and password are required")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingSecret      = errors.New("token secret is not set")
)
