package storage

import (
	"database/sql"
	"fmt"
	"sync"
)

// Backend identifies a storage engine that can open namespaced storages.
type Backend interface {
	// Name returns the backend name used in logs ("sqlite", "memory").
	Name() string
}

// SQLiteBackend opens SQLite storages on a shared connection.
type SQLiteBackend struct {
	DB *sql.DB
}

// NewSQLiteBackend creates a backend on db.
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{DB: db}
}

// Name implements Backend.
func (*SQLiteBackend) Name() string { return "sqlite" }

// MemoryBackend opens in-memory storages. Storages opened twice for the
// same namespace are shared.
type MemoryBackend struct {
	mu     sync.Mutex
	stores map[string]any
}

// NewMemoryBackend creates an empty memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{stores: make(map[string]any)}
}

// Name implements Backend.
func (*MemoryBackend) Name() string { return "memory" }

// Open returns the Storage for namespace on backend b.
func Open[T any](b Backend, namespace string) (Storage[T], error) {
	switch backend := b.(type) {
	case *SQLiteBackend:
		return NewSQLite[T](backend.DB, namespace), nil
	case *MemoryBackend:
		backend.mu.Lock()
		defer backend.mu.Unlock()
		if existing, ok := backend.stores[namespace]; ok {
			if s, ok := existing.(*Memory[T]); ok {
				return s, nil
			}
			return nil, fmt.Errorf("%w: namespace %q opened with a different type", ErrUnknownBackend, namespace)
		}
		s := NewMemory[T]()
		backend.stores[namespace] = s
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownBackend, b)
	}
}

// SelectedFunc is called once a backend has been selected.
type SelectedFunc func(b Backend)

// Service announces the selected storage backend to interested providers.
//
// Callbacks registered before Select run when Select is called; callbacks
// registered afterwards run immediately. Select may be called only once;
// later calls are ignored.
type Service struct {
	mu        sync.Mutex
	backend   Backend
	callbacks []SelectedFunc
}

// NewService creates a service with no backend selected.
func NewService() *Service {
	return &Service{}
}

// OnSelected registers fn to run when a backend is selected.
func (s *Service) OnSelected(fn SelectedFunc) {
	s.mu.Lock()
	backend := s.backend
	if backend == nil {
		s.callbacks = append(s.callbacks, fn)
	}
	s.mu.Unlock()

	if backend != nil {
		fn(backend)
	}
}

// Select chooses the backend and runs pending callbacks in registration order.
func (s *Service) Select(b Backend) {
	s.mu.Lock()
	if s.backend != nil {
		s.mu.Unlock()
		return
	}
	s.backend = b
	callbacks := s.callbacks
	s.callbacks = nil
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(b)
	}
}

// Backend returns the selected backend, or nil.
func (s *Service) Backend() Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend
}

// Bind opens a Storage[T] for namespace once a backend is selected and
// hands it to selected. Open errors are reported through onError when set.
func Bind[T any](s *Service, namespace string, selected func(Storage[T]), onError func(error)) {
	s.OnSelected(func(b Backend) {
		st, err := Open[T](b, namespace)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		selected(st)
	})
}
