package storage

import "context"

// Storage is a key-value store for values of type T.
//
// Implementations must be safe for concurrent use.
type Storage[T any] interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) (T, bool, error)

	// Put stores value under key, returning the previous value if any.
	Put(ctx context.Context, key string, value T) (T, bool, error)

	// Remove deletes key, returning the removed value if any.
	Remove(ctx context.Context, key string) (T, bool, error)

	// Values returns all values in insertion order.
	Values(ctx context.Context) ([]T, error)

	// Keys returns all keys in insertion order.
	Keys(ctx context.Context) ([]string, error)
}
