// Package item defines Items, the named state holders that links bind to
// channels and things, and the Item registry.
package item

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/nerrad567/gray-logic-links/internal/event"
	"github.com/nerrad567/gray-logic-links/internal/provider"
)

const (
	// RegistryName labels the item registry in logs and metrics.
	RegistryName = "items"

	// Namespace is the storage namespace of managed items.
	Namespace = "items"
)

// ErrInvalidName is returned for item names outside [A-Za-z0-9_].
var ErrInvalidName = errors.New("item: invalid name")

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Item is a named, typed state holder.
type Item struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Label string   `json:"label,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// ID implements provider.Element.
func (i Item) ID() string {
	return i.Name
}

// Validate checks the item name.
func (i Item) Validate() error {
	return ValidateName(i.Name)
}

// ValidateName checks that name is a legal item name.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Registry aggregates Items from all providers.
type Registry struct {
	*provider.Registry[Item]
}

// NewRegistry creates an empty item registry.
func NewRegistry() *Registry {
	return &Registry{Registry: provider.NewRegistry[Item](RegistryName)}
}

// NewManagedProvider creates the writable item provider. It is not usable
// until its storage is selected.
func NewManagedProvider() *provider.Managed[Item] {
	return provider.NewManaged[Item](Namespace)
}

// GetItem returns the item called name.
func (r *Registry) GetItem(name string) (Item, bool) {
	return r.Get(name)
}

// PublishEvents posts item added, removed and updated events to publisher.
func (r *Registry) PublishEvents(publisher event.Publisher) {
	r.SetEventPublisher(publisher, Events())
}

// Event types.
const (
	ItemAddedEvent   = "ItemAddedEvent"
	ItemRemovedEvent = "ItemRemovedEvent"
	ItemUpdatedEvent = "ItemUpdatedEvent"
)

// ItemUpdate is the payload of an ItemUpdatedEvent.
type ItemUpdate struct {
	Old Item `json:"old"`
	New Item `json:"new"`
}

// Events returns the event factory for item registries.
func Events() provider.EventFactory[Item] {
	topic := func(name, action string) string { return "items/" + name + "/" + action }
	return provider.EventFactory[Item]{
		Added: func(i Item) event.Event {
			return event.New(ItemAddedEvent, topic(i.Name, "added"), i)
		},
		Removed: func(i Item) event.Event {
			return event.New(ItemRemovedEvent, topic(i.Name, "removed"), i)
		},
		Updated: func(old, i Item) event.Event {
			return event.New(ItemUpdatedEvent, topic(i.Name, "updated"), ItemUpdate{Old: old, New: i})
		},
	}
}
