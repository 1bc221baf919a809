package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidInput      = errors.New("invalid input")
	// ErrValidation marks a service log entry rejected by the duration-cap
	// or date-bound rules. The wrapped message is user-facing.
	ErrValidation = errors.New("validation failed")
)
