package provider

import "errors"

var (
	// ErrUnsupportedOperation is returned for operations an element kind
	// does not allow, such as updating an immutable link.
	ErrUnsupportedOperation = errors.New("provider: unsupported operation")

	// ErrNoManagedProvider is returned when a registry is mutated while no
	// managed provider is set.
	ErrNoManagedProvider = errors.New("provider: no managed provider")

	// ErrStorageNotReady is returned when a managed provider is used before
	// its storage has been selected.
	ErrStorageNotReady = errors.New("provider: storage not ready")
)
