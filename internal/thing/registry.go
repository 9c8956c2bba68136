package thing

import (
	"sync"

	"github.com/nerrad567/gray-logic-links/internal/event"
	"github.com/nerrad567/gray-logic-links/internal/provider"
)

// RegistryName labels the thing registry in logs and metrics.
const RegistryName = "things"

// Registry aggregates Things and tracks their handlers.
type Registry struct {
	*provider.Registry[Thing]

	handlersMu sync.RWMutex
	handlers   map[ThingUID]Handler
}

// NewRegistry creates an empty thing registry.
func NewRegistry() *Registry {
	return &Registry{
		Registry: provider.NewRegistry[Thing](RegistryName),
		handlers: make(map[ThingUID]Handler),
	}
}

// GetThing returns the Thing with uid.
func (r *Registry) GetThing(uid ThingUID) (Thing, bool) {
	return r.Get(uid.String())
}

// GetChannel returns the channel with uid if its Thing exists.
func (r *Registry) GetChannel(uid ChannelUID) (Channel, bool) {
	t, ok := r.GetThing(uid.Thing)
	if !ok {
		return Channel{}, false
	}
	return t.Channel(uid.ID)
}

// SetHandler attaches h to the Thing with uid.
func (r *Registry) SetHandler(uid ThingUID, h Handler) {
	r.handlersMu.Lock()
	defer r.handlersMu.Unlock()
	r.handlers[uid] = h
}

// RemoveHandler detaches the handler of the Thing with uid.
func (r *Registry) RemoveHandler(uid ThingUID) {
	r.handlersMu.Lock()
	defer r.handlersMu.Unlock()
	delete(r.handlers, uid)
}

// Handler returns the handler attached to the Thing with uid.
func (r *Registry) Handler(uid ThingUID) (Handler, bool) {
	r.handlersMu.RLock()
	defer r.handlersMu.RUnlock()
	h, ok := r.handlers[uid]
	return h, ok
}

// PublishEvents posts thing added, removed and updated events to publisher.
func (r *Registry) PublishEvents(publisher event.Publisher) {
	r.SetEventPublisher(publisher, Events())
}
