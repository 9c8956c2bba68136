package provider

import (
	"reflect"
	"sync"
)

// Static is a read-only provider whose content is replaced wholesale, for
// example by a file loader or a discovery source.
type Static[T Element] struct {
	mu        sync.RWMutex
	elements  []T
	listeners ListenerList[ChangeListener[T]]
}

// NewStatic creates a provider holding elements.
func NewStatic[T Element](elements ...T) *Static[T] {
	s := &Static[T]{}
	s.elements = dedupe(elements)
	return s
}

// GetAll implements Provider.
func (s *Static[T]) GetAll() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, len(s.elements))
	copy(out, s.elements)
	return out
}

// Get returns the element with id.
func (s *Static[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.elements {
		if e.ID() == id {
			return e, true
		}
	}
	var zero T
	return zero, false
}

// AddListener implements Provider.
func (s *Static[T]) AddListener(l ChangeListener[T]) { s.listeners.Add(l) }

// RemoveListener implements Provider.
func (s *Static[T]) RemoveListener(l ChangeListener[T]) { s.listeners.Remove(l) }

// Replace swaps the provider's content and notifies listeners of the
// difference: Removed for IDs that disappeared, Updated for IDs whose
// element changed, Added for new IDs. Later duplicates of an ID are dropped.
func (s *Static[T]) Replace(elements []T) {
	next := dedupe(elements)

	s.mu.Lock()
	prev := s.elements
	s.elements = next
	s.mu.Unlock()

	notifyDiff[T](s, &s.listeners, prev, next)
}

func dedupe[T Element](elements []T) []T {
	seen := make(map[string]bool, len(elements))
	out := make([]T, 0, len(elements))
	for _, e := range elements {
		if seen[e.ID()] {
			continue
		}
		seen[e.ID()] = true
		out = append(out, e)
	}
	return out
}

// notifyDiff reports the change from prev to next to every listener.
func notifyDiff[T Element](p Provider[T], ll *ListenerList[ChangeListener[T]], prev, next []T) {
	nextByID := make(map[string]T, len(next))
	for _, e := range next {
		nextByID[e.ID()] = e
	}
	prevByID := make(map[string]T, len(prev))
	for _, e := range prev {
		prevByID[e.ID()] = e
	}

	for _, old := range prev {
		if _, ok := nextByID[old.ID()]; !ok {
			ll.Each(func(l ChangeListener[T]) { l.Removed(p, old) })
		}
	}
	for _, e := range next {
		if old, ok := prevByID[e.ID()]; ok {
			if reflect.DeepEqual(old, e) {
				continue
			}
			ll.Each(func(l ChangeListener[T]) { l.Updated(p, old, e) })
		} else {
			ll.Each(func(l ChangeListener[T]) { l.Added(p, e) })
		}
	}
}
