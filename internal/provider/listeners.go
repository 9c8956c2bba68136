package provider

import (
	"slices"
	"sync"
	"sync/atomic"
)

// ListenerList is a copy-on-write list of listeners.
//
// Add and Remove replace the underlying slice, so a notification loop that
// took a Snapshot keeps iterating the listeners registered when it started.
type ListenerList[L comparable] struct {
	mu        sync.Mutex
	listeners atomic.Pointer[[]L]
}

// Add appends l. Adding a listener twice registers it twice.
func (ll *ListenerList[L]) Add(l L) {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	current := ll.Snapshot()
	next := make([]L, len(current), len(current)+1)
	copy(next, current)
	next = append(next, l)
	ll.listeners.Store(&next)
}

// Remove deletes the first registration of l and reports whether it was found.
func (ll *ListenerList[L]) Remove(l L) bool {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	current := ll.Snapshot()
	idx := slices.Index(current, l)
	if idx < 0 {
		return false
	}
	next := slices.Delete(slices.Clone(current), idx, idx+1)
	ll.listeners.Store(&next)
	return true
}

// Snapshot returns the current listeners. The slice must not be modified.
func (ll *ListenerList[L]) Snapshot() []L {
	p := ll.listeners.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Each calls fn for every listener in registration order.
func (ll *ListenerList[L]) Each(fn func(L)) {
	for _, l := range ll.Snapshot() {
		fn(l)
	}
}

// Len returns the number of registered listeners.
func (ll *ListenerList[L]) Len() int {
	return len(ll.Snapshot())
}
