package storage

import "errors"

var (
	// ErrInvalidKey is returned when a key is empty.
	ErrInvalidKey = errors.New("storage: invalid key")

	// ErrUnknownBackend is returned when Open is given a backend it cannot serve.
	ErrUnknownBackend = errors.New("storage: unknown backend")
)
