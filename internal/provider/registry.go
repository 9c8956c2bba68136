package provider

import (
	"context"
	"slices"
	"sync"

	"github.com/nerrad567/gray-logic-links/internal/event"
)

// RegistryChangeListener receives the aggregated notifications of a registry.
type RegistryChangeListener[T any] interface {
	Added(element T)
	Removed(element T)
	Updated(old, element T)
}

// EventFactory builds the domain events a registry posts. A nil func
// means no event is posted for that kind of change.
type EventFactory[T any] struct {
	Added   func(element T) event.Event
	Removed func(element T) event.Event
	Updated func(old, element T) event.Event
}

// Registry aggregates elements from a dynamic set of providers.
//
// GetAll is the union of every provider's elements in provider
// registration order; elements whose ID was already contributed by an
// earlier provider are skipped. Each query takes a fresh snapshot of the
// providers, so results are only eventually consistent across providers.
type Registry[T Element] struct {
	name string

	mu         sync.RWMutex
	providers  []Provider[T]
	forwarders map[Provider[T]]*forwarder[T]
	managed    ManagedProvider[T]

	listeners ListenerList[RegistryChangeListener[T]]

	events    EventFactory[T]
	publisher event.Publisher
	logger    Logger
	metrics   Metrics
}

// NewRegistry creates an empty registry. name labels logs and metrics.
func NewRegistry[T Element](name string) *Registry[T] {
	return &Registry[T]{
		name:       name,
		forwarders: make(map[Provider[T]]*forwarder[T]),
		publisher:  event.Nop{},
		logger:     noopLogger{},
		metrics:    noopMetrics{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry[T]) SetLogger(logger Logger) {
	r.logger = logger
}

// SetMetrics sets the metrics observer for the registry.
func (r *Registry[T]) SetMetrics(m Metrics) {
	r.metrics = m
}

// SetEventPublisher configures event posting for registry changes.
func (r *Registry[T]) SetEventPublisher(publisher event.Publisher, factory EventFactory[T]) {
	if publisher == nil {
		publisher = event.Nop{}
	}
	r.publisher = publisher
	r.events = factory
}

// Name returns the registry name.
func (r *Registry[T]) Name() string {
	return r.name
}

// AddProvider registers p. Listeners see Added for each of p's elements.
// Registering the same provider twice is a no-op.
func (r *Registry[T]) AddProvider(p Provider[T]) {
	r.mu.Lock()
	if slices.Contains(r.providers, p) {
		r.mu.Unlock()
		return
	}
	r.providers = append(r.providers, p)
	f := &forwarder[T]{r: r, p: p}
	r.forwarders[p] = f
	n := len(r.providers)
	providers := slices.Clone(r.providers)
	r.mu.Unlock()

	p.AddListener(f)
	r.metrics.ProviderCount(r.name, n)
	r.logger.Debug("provider added", "registry", r.name, "providers", n)

	others := indexOthers(providers, p)
	for _, e := range p.GetAll() {
		r.resolveAdded(others, n-1, e)
	}
}

// RemoveProvider unregisters p. Listeners see Removed for each element p
// contributed, or Updated when a later provider now contributes its ID.
// If p is the managed provider it is unset as well.
func (r *Registry[T]) RemoveProvider(p Provider[T]) {
	r.mu.Lock()
	idx := slices.Index(r.providers, p)
	if idx < 0 {
		r.mu.Unlock()
		return
	}
	r.providers = slices.Delete(r.providers, idx, idx+1)
	f := r.forwarders[p]
	delete(r.forwarders, p)
	if r.managed != nil && Provider[T](r.managed) == p {
		r.managed = nil
	}
	n := len(r.providers)
	providers := slices.Clone(r.providers)
	r.mu.Unlock()

	p.RemoveListener(f)
	r.metrics.ProviderCount(r.name, n)
	r.logger.Debug("provider removed", "registry", r.name, "providers", n)

	others := indexOthers(providers, p)
	for _, e := range p.GetAll() {
		r.resolveRemoved(others, idx, e)
	}
}

// SetManagedProvider makes m the writable provider and registers it.
func (r *Registry[T]) SetManagedProvider(m ManagedProvider[T]) {
	r.mu.Lock()
	r.managed = m
	r.mu.Unlock()

	r.AddProvider(m)
}

// UnsetManagedProvider unregisters the managed provider, if any.
func (r *Registry[T]) UnsetManagedProvider() {
	r.mu.RLock()
	m := r.managed
	r.mu.RUnlock()

	if m != nil {
		r.RemoveProvider(m)
	}
}

// Managed returns the managed provider.
func (r *Registry[T]) Managed() (ManagedProvider[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.managed, r.managed != nil
}

// Providers returns the number of registered providers.
func (r *Registry[T]) Providers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// GetAll returns the union of all providers' elements, de-duplicated by ID.
func (r *Registry[T]) GetAll() []T {
	var out []T
	seen := make(map[string]bool)
	for _, p := range r.snapshot() {
		for _, e := range p.GetAll() {
			if seen[e.ID()] {
				continue
			}
			seen[e.ID()] = true
			out = append(out, e)
		}
	}
	return out
}

// Get returns the element with id from the first provider that has it.
func (r *Registry[T]) Get(id string) (T, bool) {
	for _, e := range r.GetAll() {
		if e.ID() == id {
			return e, true
		}
	}
	var zero T
	return zero, false
}

// Add stores element through the managed provider.
func (r *Registry[T]) Add(ctx context.Context, element T) error {
	m, err := r.requireManaged()
	if err != nil {
		return err
	}
	return m.Add(ctx, element)
}

// Update replaces element through the managed provider.
func (r *Registry[T]) Update(ctx context.Context, element T) (T, bool, error) {
	m, err := r.requireManaged()
	if err != nil {
		var zero T
		return zero, false, err
	}
	return m.Update(ctx, element)
}

// Remove deletes the element with id through the managed provider.
func (r *Registry[T]) Remove(ctx context.Context, id string) (T, bool, error) {
	m, err := r.requireManaged()
	if err != nil {
		var zero T
		return zero, false, err
	}
	return m.Remove(ctx, id)
}

// AddRegistryListener registers l.
func (r *Registry[T]) AddRegistryListener(l RegistryChangeListener[T]) {
	r.listeners.Add(l)
}

// RemoveRegistryListener unregisters l.
func (r *Registry[T]) RemoveRegistryListener(l RegistryChangeListener[T]) {
	r.listeners.Remove(l)
}

func (r *Registry[T]) requireManaged() (ManagedProvider[T], error) {
	m, ok := r.Managed()
	if !ok {
		return nil, ErrNoManagedProvider
	}
	return m, nil
}

func (r *Registry[T]) snapshot() []Provider[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.providers)
}

func (r *Registry[T]) notifyAdded(e T) {
	r.metrics.RegistryNotification(r.name, "added")
	r.listeners.Each(func(l RegistryChangeListener[T]) { l.Added(e) })
	if r.events.Added != nil {
		r.publisher.Post(r.events.Added(e).WithSource(r.name))
	}
}

func (r *Registry[T]) notifyRemoved(e T) {
	r.metrics.RegistryNotification(r.name, "removed")
	r.listeners.Each(func(l RegistryChangeListener[T]) { l.Removed(e) })
	if r.events.Removed != nil {
		r.publisher.Post(r.events.Removed(e).WithSource(r.name))
	}
}

func (r *Registry[T]) notifyUpdated(old, e T) {
	r.metrics.RegistryNotification(r.name, "updated")
	r.listeners.Each(func(l RegistryChangeListener[T]) { l.Updated(old, e) })
	if r.events.Updated != nil {
		r.publisher.Post(r.events.Updated(old, e).WithSource(r.name))
	}
}

// contributor holds the elements of one registered provider keyed by ID.
type contributor[T Element] struct {
	pos      int
	elements map[string]T
}

// indexOthers indexes the elements of every provider except p, keeping
// each provider's registration position.
func indexOthers[T Element](providers []Provider[T], p Provider[T]) []contributor[T] {
	out := make([]contributor[T], 0, len(providers))
	for i, q := range providers {
		if q == p {
			continue
		}
		elements := make(map[string]T)
		for _, e := range q.GetAll() {
			elements[e.ID()] = e
		}
		out = append(out, contributor[T]{pos: i, elements: elements})
	}
	return out
}

// firstOther returns the element with id from the earliest other provider
// and that provider's position.
func firstOther[T Element](others []contributor[T], id string) (T, int, bool) {
	for _, c := range others {
		if e, ok := c.elements[id]; ok {
			return e, c.pos, true
		}
	}
	var zero T
	return zero, -1, false
}

// resolveAdded notifies listeners that the provider at pos now contributes
// e. Nothing is visible when an earlier provider shadows the ID; a later
// provider's element is replaced in GetAll, which listeners see as Updated.
func (r *Registry[T]) resolveAdded(others []contributor[T], pos int, e T) {
	other, at, ok := firstOther(others, e.ID())
	switch {
	case !ok:
		r.notifyAdded(e)
	case at > pos:
		r.notifyUpdated(other, e)
	}
}

// resolveRemoved is the inverse of resolveAdded: a later provider's element
// takes the place of e in GetAll.
func (r *Registry[T]) resolveRemoved(others []contributor[T], pos int, e T) {
	other, at, ok := firstOther(others, e.ID())
	switch {
	case !ok:
		r.notifyRemoved(e)
	case at >= pos:
		r.notifyUpdated(e, other)
	}
}

// forwarder relays the notifications of one registered provider to the
// registry's listeners. Only changes visible in GetAll are forwarded:
// notifications for an ID that an earlier provider also contributes are
// dropped. The registered provider is kept rather than taken from the
// callback, since an embedding provider notifies as its embedded value.
type forwarder[T Element] struct {
	r *Registry[T]
	p Provider[T]
}

// locate returns the other providers and f.p's position, or false once
// f.p is no longer registered.
func (f *forwarder[T]) locate() ([]contributor[T], int, bool) {
	providers := f.r.snapshot()
	pos := slices.Index(providers, f.p)
	if pos < 0 {
		return nil, -1, false
	}
	return indexOthers(providers, f.p), pos, true
}

func (f *forwarder[T]) Added(_ Provider[T], e T) {
	if others, pos, ok := f.locate(); ok {
		f.r.resolveAdded(others, pos, e)
	}
}

func (f *forwarder[T]) Removed(_ Provider[T], e T) {
	if others, pos, ok := f.locate(); ok {
		f.r.resolveRemoved(others, pos, e)
	}
}

func (f *forwarder[T]) Updated(_ Provider[T], old, e T) {
	others, pos, ok := f.locate()
	if !ok {
		return
	}
	if _, at, shadowed := firstOther(others, e.ID()); shadowed && at < pos {
		return
	}
	f.r.notifyUpdated(old, e)
}
