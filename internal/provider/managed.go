package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-links/internal/storage"
)

// loadTimeout bounds the initial read of a newly selected storage.
const loadTimeout = 30 * time.Second

// ManagedOption configures a Managed provider.
type ManagedOption func(*managedOptions)

type managedOptions struct {
	allowUpdate bool
}

// WithoutUpdate disables Update; it then fails with ErrUnsupportedOperation.
func WithoutUpdate() ManagedOption {
	return func(o *managedOptions) { o.allowUpdate = false }
}

// Managed is the writable, storage-backed provider for one element kind.
//
// Elements are cached in memory and written through to the storage. All
// mutations, and the notifications they trigger, run under one mutex, so
// listeners observe changes in the order they were made. A listener must
// not synchronously mutate the provider that is notifying it.
type Managed[T Element] struct {
	name string
	opts managedOptions

	writeMu sync.Mutex // serialises mutations and their notifications

	mu    sync.RWMutex // protects store and cache
	store storage.Storage[T]
	cache *storage.Memory[T]

	listeners ListenerList[ChangeListener[T]]
	logger    Logger
}

// NewManaged creates a managed provider. name identifies it in logs.
func NewManaged[T Element](name string, opts ...ManagedOption) *Managed[T] {
	o := managedOptions{allowUpdate: true}
	for _, opt := range opts {
		opt(&o)
	}
	return &Managed[T]{
		name:   name,
		opts:   o,
		cache:  storage.NewMemory[T](),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the provider.
func (m *Managed[T]) SetLogger(logger Logger) {
	m.logger = logger
}

// Name returns the provider name.
func (m *Managed[T]) Name() string {
	return m.name
}

// Ready reports whether a storage has been selected.
func (m *Managed[T]) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store != nil
}

// StorageSelected binds st as the provider's storage. It matches the
// callback signature of storage.Bind. Load failures are logged and leave
// the previous storage in place.
func (m *Managed[T]) StorageSelected(st storage.Storage[T]) {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	if err := m.SetStorage(ctx, st); err != nil {
		m.logger.Error("binding storage failed", "provider", m.name, "error", err)
	}
}

// SetStorage loads st and makes it the provider's storage. Listeners are
// notified of the difference between the previous content and st's.
func (m *Managed[T]) SetStorage(ctx context.Context, st storage.Storage[T]) error {
	values, err := st.Values(ctx)
	if err != nil {
		return fmt.Errorf("loading %s: %w", m.name, err)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	cache := storage.NewMemory[T]()
	for _, v := range values {
		if _, _, err := cache.Put(ctx, v.ID(), v); err != nil {
			m.logger.Warn("skipping stored element", "provider", m.name, "error", err)
		}
	}
	next, _ := cache.Values(ctx) //nolint:errcheck // Memory never fails

	m.mu.Lock()
	prev, _ := m.cache.Values(ctx) //nolint:errcheck // Memory never fails
	m.store = st
	m.cache = cache
	m.mu.Unlock()

	m.logger.Info("storage selected", "provider", m.name, "count", len(next))
	notifyDiff[T](m, &m.listeners, prev, next)
	return nil
}

// GetAll implements Provider. It returns nothing before storage is selected.
func (m *Managed[T]) GetAll() []T {
	m.mu.RLock()
	cache := m.cache
	m.mu.RUnlock()

	values, _ := cache.Values(context.Background()) //nolint:errcheck // Memory never fails
	return values
}

// Get returns the element with id.
func (m *Managed[T]) Get(id string) (T, bool) {
	m.mu.RLock()
	cache := m.cache
	m.mu.RUnlock()

	v, ok, _ := cache.Get(context.Background(), id) //nolint:errcheck // Memory never fails
	return v, ok
}

// AddListener implements Provider.
func (m *Managed[T]) AddListener(l ChangeListener[T]) { m.listeners.Add(l) }

// RemoveListener implements Provider.
func (m *Managed[T]) RemoveListener(l ChangeListener[T]) { m.listeners.Remove(l) }

// Add stores element, replacing any element with the same ID. Listeners
// see Removed(old) followed by Added(element) on replacement.
func (m *Managed[T]) Add(ctx context.Context, element T) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	st, cache, err := m.bound()
	if err != nil {
		return err
	}

	old, existed, err := st.Put(ctx, element.ID(), element)
	if err != nil {
		return fmt.Errorf("storing %s %q: %w", m.name, element.ID(), err)
	}
	cache.Put(ctx, element.ID(), element) //nolint:errcheck // Key validated by storage

	if existed {
		m.listeners.Each(func(l ChangeListener[T]) { l.Removed(m, old) })
	}
	m.listeners.Each(func(l ChangeListener[T]) { l.Added(m, element) })
	return nil
}

// Update replaces an existing element. It returns the previous value and
// false when no element with the same ID exists; nothing is stored then.
func (m *Managed[T]) Update(ctx context.Context, element T) (T, bool, error) {
	var zero T
	if !m.opts.allowUpdate {
		return zero, false, fmt.Errorf("%w: %s cannot be updated", ErrUnsupportedOperation, m.name)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	st, cache, err := m.bound()
	if err != nil {
		return zero, false, err
	}

	if _, ok, _ := cache.Get(ctx, element.ID()); !ok { //nolint:errcheck // Memory never fails
		return zero, false, nil
	}

	old, _, err := st.Put(ctx, element.ID(), element)
	if err != nil {
		return zero, false, fmt.Errorf("storing %s %q: %w", m.name, element.ID(), err)
	}
	cache.Put(ctx, element.ID(), element) //nolint:errcheck // Key validated by storage

	m.listeners.Each(func(l ChangeListener[T]) { l.Updated(m, old, element) })
	return old, true, nil
}

// Remove deletes the element with id. Removing an unknown id is a no-op
// and notifies nobody.
func (m *Managed[T]) Remove(ctx context.Context, id string) (T, bool, error) {
	var zero T

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	st, cache, err := m.bound()
	if err != nil {
		return zero, false, err
	}

	old, existed, err := st.Remove(ctx, id)
	if err != nil {
		return zero, false, fmt.Errorf("removing %s %q: %w", m.name, id, err)
	}
	if !existed {
		return zero, false, nil
	}
	cache.Remove(ctx, id) //nolint:errcheck // Memory never fails

	m.listeners.Each(func(l ChangeListener[T]) { l.Removed(m, old) })
	return old, true, nil
}

// RemoveWhere deletes every element matching match and returns them.
func (m *Managed[T]) RemoveWhere(ctx context.Context, match func(T) bool) ([]T, error) {
	var removed []T
	for _, e := range m.GetAll() {
		if !match(e) {
			continue
		}
		old, ok, err := m.Remove(ctx, e.ID())
		if err != nil {
			return removed, err
		}
		if ok {
			removed = append(removed, old)
		}
	}
	return removed, nil
}

func (m *Managed[T]) bound() (storage.Storage[T], *storage.Memory[T], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.store == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrStorageNotReady, m.name)
	}
	return m.store, m.cache, nil
}
