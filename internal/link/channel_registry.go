package link

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-links/internal/event"
	"github.com/nerrad567/gray-logic-links/internal/item"
	"github.com/nerrad567/gray-logic-links/internal/provider"
	"github.com/nerrad567/gray-logic-links/internal/thing"
)

// ChannelRegistryName labels the item-channel link registry in logs and metrics.
const ChannelRegistryName = "item_channel_links"

// ItemLookup resolves item names.
type ItemLookup interface {
	GetItem(name string) (item.Item, bool)
}

// ThingLookup resolves thing UIDs.
type ThingLookup interface {
	GetThing(uid thing.ThingUID) (thing.Thing, bool)
}

// thingLinkRemover is implemented by managed providers that can drop every
// link of a thing at once.
type thingLinkRemover interface {
	RemoveLinksForThing(ctx context.Context, uid thing.ThingUID) (int, error)
}

// itemLinkRemover is implemented by managed providers that can drop every
// link of an item at once.
type itemLinkRemover interface {
	RemoveLinksForItem(ctx context.Context, itemName string) (int, error)
}

// ItemChannelLinkRegistry aggregates item-channel links and resolves them
// against the live item and thing registries.
type ItemChannelLinkRegistry struct {
	*Registry[thing.ChannelUID, ItemChannelLink]

	items  ItemLookup
	things ThingLookup
}

// NewItemChannelLinkRegistry creates a registry that resolves items and
// things through the given lookups.
func NewItemChannelLinkRegistry(items ItemLookup, things ThingLookup) *ItemChannelLinkRegistry {
	return &ItemChannelLinkRegistry{
		Registry: NewRegistry[thing.ChannelUID, ItemChannelLink](ChannelRegistryName),
		items:    items,
		things:   things,
	}
}

// PublishEvents posts link added and removed events to publisher.
// Updates post nothing: a link's identity cannot change.
func (r *ItemChannelLinkRegistry) PublishEvents(publisher event.Publisher) {
	r.SetEventPublisher(publisher, ChannelLinkEvents())
}

// BoundChannels returns the distinct channels linked to itemName.
func (r *ItemChannelLinkRegistry) BoundChannels(itemName string) []thing.ChannelUID {
	var channels []thing.ChannelUID
	seen := make(map[thing.ChannelUID]bool)
	for _, l := range r.GetAll() {
		if l.Item != itemName || seen[l.Channel] {
			continue
		}
		seen[l.Channel] = true
		channels = append(channels, l.Channel)
	}
	return channels
}

// LinkedItemNames returns the names of existing items linked to uid.
// Links to items missing from the item registry are skipped but kept in
// storage.
func (r *ItemChannelLinkRegistry) LinkedItemNames(uid thing.ChannelUID) []string {
	var names []string
	for _, name := range r.AllLinkedItemNames(uid) {
		if _, ok := r.items.GetItem(name); ok {
			names = append(names, name)
		}
	}
	return names
}

// AllLinkedItemNames returns the names of all items linked to uid, whether
// or not they exist.
func (r *ItemChannelLinkRegistry) AllLinkedItemNames(uid thing.ChannelUID) []string {
	return r.Registry.LinkedItemNames(uid)
}

// LinkedItems returns the existing items linked to uid.
func (r *ItemChannelLinkRegistry) LinkedItems(uid thing.ChannelUID) []item.Item {
	var items []item.Item
	for _, name := range r.AllLinkedItemNames(uid) {
		if it, ok := r.items.GetItem(name); ok {
			items = append(items, it)
		}
	}
	return items
}

// BoundThings returns the distinct existing things owning a channel
// linked to itemName.
func (r *ItemChannelLinkRegistry) BoundThings(itemName string) []thing.Thing {
	var things []thing.Thing
	seen := make(map[thing.ThingUID]bool)
	for _, ch := range r.BoundChannels(itemName) {
		if seen[ch.Thing] {
			continue
		}
		seen[ch.Thing] = true
		if t, ok := r.things.GetThing(ch.Thing); ok {
			things = append(things, t)
		}
	}
	return things
}

// RemoveLinksForThing removes every link to a channel of the thing with
// uid through the managed provider and returns how many were removed.
func (r *ItemChannelLinkRegistry) RemoveLinksForThing(ctx context.Context, uid thing.ThingUID) (int, error) {
	m, ok := r.Managed()
	if !ok {
		return 0, provider.ErrNoManagedProvider
	}
	remover, ok := m.(thingLinkRemover)
	if !ok {
		return 0, fmt.Errorf("%w: managed provider cannot remove links by thing", provider.ErrUnsupportedOperation)
	}
	return remover.RemoveLinksForThing(ctx, uid)
}

// RemoveLinksForItem removes every managed link of itemName and returns how
// many were removed.
func (r *ItemChannelLinkRegistry) RemoveLinksForItem(ctx context.Context, itemName string) (int, error) {
	m, ok := r.Managed()
	if !ok {
		return 0, provider.ErrNoManagedProvider
	}
	remover, ok := m.(itemLinkRemover)
	if !ok {
		return 0, fmt.Errorf("%w: managed provider cannot remove links by item", provider.ErrUnsupportedOperation)
	}
	return remover.RemoveLinksForItem(ctx, itemName)
}
