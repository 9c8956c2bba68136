package link

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-links/internal/event"
	"github.com/nerrad567/gray-logic-links/internal/provider"
	"github.com/nerrad567/gray-logic-links/internal/thing"
)

// ThingRegistryName labels the item-thing link registry in logs and metrics.
const ThingRegistryName = "item_thing_links"

// ItemThingLinkRegistry aggregates item-thing links.
type ItemThingLinkRegistry struct {
	*Registry[thing.ThingUID, ItemThingLink]
}

// NewItemThingLinkRegistry creates an empty registry.
func NewItemThingLinkRegistry() *ItemThingLinkRegistry {
	return &ItemThingLinkRegistry{
		Registry: NewRegistry[thing.ThingUID, ItemThingLink](ThingRegistryName),
	}
}

// PublishEvents posts link added and removed events to publisher.
func (r *ItemThingLinkRegistry) PublishEvents(publisher event.Publisher) {
	r.SetEventPublisher(publisher, ThingLinkEvents())
}

// LinkedThings returns the distinct things linked to itemName.
func (r *ItemThingLinkRegistry) LinkedThings(itemName string) []thing.ThingUID {
	var uids []thing.ThingUID
	seen := make(map[thing.ThingUID]bool)
	for _, l := range r.GetAll() {
		if l.Item != itemName || seen[l.Thing] {
			continue
		}
		seen[l.Thing] = true
		uids = append(uids, l.Thing)
	}
	return uids
}

// Update always fails: item-thing links are immutable.
func (r *ItemThingLinkRegistry) Update(context.Context, ItemThingLink) (ItemThingLink, bool, error) {
	return ItemThingLink{}, false, provider.ErrUnsupportedOperation
}

// RemoveLinksForItem removes every managed thing link of itemName.
func (r *ItemThingLinkRegistry) RemoveLinksForItem(ctx context.Context, itemName string) (int, error) {
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
