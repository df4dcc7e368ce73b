package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a conditional update loses its race:
	// the entity exists but is no longer in the state the caller assumed.
	ErrConflict = errors.New("entity state conflict")
)
