package storage

import (
	"context"
	"sync"
)

// Memory is an in-memory Storage.
type Memory[T any] struct {
	mu     sync.RWMutex
	values map[string]T
	order  []string
}

// NewMemory creates an empty in-memory storage.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{values: make(map[string]T)}
}

// Get implements Storage.
func (m *Memory[T]) Get(_ context.Context, key string) (T, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Put implements Storage.
func (m *Memory[T]) Put(_ context.Context, key string, value T) (T, bool, error) {
	var zero T
	if key == "" {
		return zero, false, ErrInvalidKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	old, existed := m.values[key]
	if !existed {
		m.order = append(m.order, key)
	}
	m.values[key] = value
	return old, existed, nil
}

// Remove implements Storage.
func (m *Memory[T]) Remove(_ context.Context, key string) (T, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, existed := m.values[key]
	if !existed {
		var zero T
		return zero, false, nil
	}
	delete(m.values, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return old, true, nil
}

// Values implements Storage.
func (m *Memory[T]) Values(_ context.Context) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	values := make([]T, 0, len(m.order))
	for _, k := range m.order {
		values = append(values, m.values[k])
	}
	return values, nil
}

// Keys implements Storage.
func (m *Memory[T]) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, len(m.order))
	copy(keys, m.order)
	return keys, nil
}
