package provider

import "context"

// Element is anything stored in a provider. ID must be deterministic and
// unique per element kind; it is the storage key.
type Element interface {
	ID() string
}

// Provider contributes elements to a registry.
type Provider[T any] interface {
	// GetAll returns a snapshot of the provider's elements.
	GetAll() []T

	AddListener(l ChangeListener[T])
	RemoveListener(l ChangeListener[T])
}

// ChangeListener receives change notifications from a provider.
type ChangeListener[T any] interface {
	Added(p Provider[T], element T)
	Removed(p Provider[T], element T)
	Updated(p Provider[T], old, element T)
}

// ManagedProvider is a writable provider.
type ManagedProvider[T any] interface {
	Provider[T]

	Get(id string) (T, bool)
	Add(ctx context.Context, element T) error
	Update(ctx context.Context, element T) (T, bool, error)
	Remove(ctx context.Context, id string) (T, bool, error)
}

// Logger is the logging interface used by providers and registries.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Metrics observes registry activity. *metrics.Metrics satisfies it.
type Metrics interface {
	RegistryNotification(registry, kind string)
	ProviderCount(registry string, n int)
}

type noopMetrics struct{}

func (noopMetrics) RegistryNotification(string, string) {}
func (noopMetrics) ProviderCount(string, int)           {}
