package automation

import (
	"github.com/nerrad567/gray-logic-links/internal/event"
	"github.com/nerrad567/gray-logic-links/internal/provider"
)

// TypeRegistryName labels the module type registry in logs and metrics.
const TypeRegistryName = "module_types"

// Module type event types.
const (
	ModuleTypeAddedEvent   = "ModuleTypeAddedEvent"
	ModuleTypeRemovedEvent = "ModuleTypeRemovedEvent"
	ModuleTypeUpdatedEvent = "ModuleTypeUpdatedEvent"
)

// TypeRegistry aggregates module type descriptors from every provider.
type TypeRegistry struct {
	*provider.Registry[*Descriptor]
}

// NewTypeRegistry creates an empty type registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{Registry: provider.NewRegistry[*Descriptor](TypeRegistryName)}
}

// ModuleType implements TypeLookup.
func (r *TypeRegistry) ModuleType(uid string) (*Descriptor, bool) {
	return r.Get(uid)
}

// ByKind returns the module types of kind k.
func (r *TypeRegistry) ByKind(k Kind) []*Descriptor {
	var out []*Descriptor
	for _, d := range r.GetAll() {
		if d.Kind() == k {
			out = append(out, d)
		}
	}
	return out
}

// PublishEvents posts module type events to publisher.
func (r *TypeRegistry) PublishEvents(publisher event.Publisher) {
	topic := func(d *Descriptor, action string) string {
		return "module-types/" + d.UID() + "/" + action
	}
	r.SetEventPublisher(publisher, provider.EventFactory[*Descriptor]{
		Added: func(d *Descriptor) event.Event {
			return event.New(ModuleTypeAddedEvent, topic(d, "added"), d.UID())
		},
		Removed: func(d *Descriptor) event.Event {
			return event.New(ModuleTypeRemovedEvent, topic(d, "removed"), d.UID())
		},
		Updated: func(_, d *Descriptor) event.Event {
			return event.New(ModuleTypeUpdatedEvent, topic(d, "updated"), d.UID())
		},
	})
}
