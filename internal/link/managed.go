package link

import (
	"context"

	"github.com/nerrad567/gray-logic-links/internal/provider"
	"github.com/nerrad567/gray-logic-links/internal/thing"
)

// Storage namespaces for the managed link providers.
const (
	ChannelLinkNamespace = "item_channel_links"
	ThingLinkNamespace   = "item_thing_links"
)

// ManagedItemChannelLinkProvider is the writable item-channel link provider.
type ManagedItemChannelLinkProvider struct {
	*provider.Managed[ItemChannelLink]
}

// NewManagedItemChannelLinkProvider creates the provider. It is not usable
// until its storage is selected.
func NewManagedItemChannelLinkProvider() *ManagedItemChannelLinkProvider {
	return &ManagedItemChannelLinkProvider{
		Managed: provider.NewManaged[ItemChannelLink](ChannelLinkNamespace),
	}
}

// RemoveLink removes l and returns it if it was stored.
func (p *ManagedItemChannelLinkProvider) RemoveLink(ctx context.Context, l ItemChannelLink) (ItemChannelLink, bool, error) {
	return p.Remove(ctx, l.ID())
}

// RemoveLinksForThing removes every link to a channel of the thing with uid.
func (p *ManagedItemChannelLinkProvider) RemoveLinksForThing(ctx context.Context, uid thing.ThingUID) (int, error) {
	removed, err := p.RemoveWhere(ctx, func(l ItemChannelLink) bool {
		return l.Channel.Thing == uid
	})
	return len(removed), err
}

// RemoveLinksForItem removes every link of itemName.
func (p *ManagedItemChannelLinkProvider) RemoveLinksForItem(ctx context.Context, itemName string) (int, error) {
	removed, err := p.RemoveWhere(ctx, func(l ItemChannelLink) bool {
		return l.Item == itemName
	})
	return len(removed), err
}

// ManagedItemThingLinkProvider is the writable item-thing link provider.
// Update is not supported.
type ManagedItemThingLinkProvider struct {
	*provider.Managed[ItemThingLink]
}

// NewManagedItemThingLinkProvider creates the provider.
func NewManagedItemThingLinkProvider() *ManagedItemThingLinkProvider {
	return &ManagedItemThingLinkProvider{
		Managed: provider.NewManaged[ItemThingLink](ThingLinkNamespace, provider.WithoutUpdate()),
	}
}

// RemoveLinksForItem removes every thing link of itemName.
func (p *ManagedItemThingLinkProvider) RemoveLinksForItem(ctx context.Context, itemName string) (int, error) {
	removed, err := p.RemoveWhere(ctx, func(l ItemThingLink) bool {
		return l.Item == itemName
	})
	return len(removed), err
}
