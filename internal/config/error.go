package config

import "errors"

var (
	ErrMissingDatabase  = errors.New("database settings not loaded: DB_NAME and DB_USER are required")
	ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")
)
