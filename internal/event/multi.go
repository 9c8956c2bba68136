package event

import "sync"

// Multi fans each event out to every attached publisher, in attach order.
//
// Publishers can be attached while events are being posted; a post sees
// the publisher set as it was when the post started.
type Multi struct {
	mu         sync.RWMutex
	publishers []Publisher
}

// NewMulti creates a fan-out publisher. Nil publishers are ignored.
func NewMulti(publishers ...Publisher) *Multi {
	m := &Multi{}
	for _, p := range publishers {
		m.Attach(p)
	}
	return m
}

// Attach adds a publisher to the fan-out set.
func (m *Multi) Attach(p Publisher) {
	if p == nil {
		return
	}
	m.mu.Lock()
	m.publishers = append(m.publishers, p)
	m.mu.Unlock()
}

// Len returns the number of attached publishers.
func (m *Multi) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.publishers)
}

// Post implements Publisher.
func (m *Multi) Post(e Event) {
	m.mu.RLock()
	publishers := make([]Publisher, len(m.publishers))
	copy(publishers, m.publishers)
	m.mu.RUnlock()

	for _, p := range publishers {
		p.Post(e)
	}
}
