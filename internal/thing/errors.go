package thing

import "errors"

var (
	// ErrInvalidUID is returned when a UID string does not parse.
	ErrInvalidUID = errors.New("thing: invalid UID")

	// ErrThingNotFound is returned when a Thing does not exist.
	ErrThingNotFound = errors.New("thing: not found")
)
