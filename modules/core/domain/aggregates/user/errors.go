package user

import "errors"

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
	// ErrConflict is returned when a locked transaction lost a serialization race.
	ErrConflict = errors.New("concurrent user registration conflict")
)
