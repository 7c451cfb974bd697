package services

import "github.com/go-faster/errors"

var (
	ErrBootstrapClosed = errors.New("bootstrap closed: a user already exists")
	ErrEmailTaken      = errors.New("email already registered")

	ErrSeedDisabled            = errors.New("superuser seeding is disabled")
	ErrPlatformPrincipalExists = errors.New("a platform principal already exists")
	ErrSeedEmailExists         = errors.New("seed email already belongs to an account")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired")
)

// ValidationError carries per-field messages for a rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
