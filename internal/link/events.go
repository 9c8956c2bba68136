package link

import (
	"github.com/nerrad567/gray-logic-links/internal/event"
	"github.com/nerrad567/gray-logic-links/internal/provider"
)

// Event types.
const (
	ItemChannelLinkAddedEvent   = "ItemChannelLinkAddedEvent"
	ItemChannelLinkRemovedEvent = "ItemChannelLinkRemovedEvent"
	ItemThingLinkAddedEvent     = "ItemThingLinkAddedEvent"
	ItemThingLinkRemovedEvent   = "ItemThingLinkRemovedEvent"
)

// topic returns e.g. "links/Kitchen_Light-hue:bulb:kitchen:color/added".
func topic(itemName, uid, action string) string {
	return "links/" + itemName + "-" + uid + "/" + action
}

// ChannelLinkEvents returns the event factory for item-channel links.
func ChannelLinkEvents() provider.EventFactory[ItemChannelLink] {
	return provider.EventFactory[ItemChannelLink]{
		Added: func(l ItemChannelLink) event.Event {
			return event.New(ItemChannelLinkAddedEvent, topic(l.Item, l.Channel.String(), "added"), l)
		},
		Removed: func(l ItemChannelLink) event.Event {
			return event.New(ItemChannelLinkRemovedEvent, topic(l.Item, l.Channel.String(), "removed"), l)
		},
	}
}

// ThingLinkEvents returns the event factory for item-thing links.
func ThingLinkEvents() provider.EventFactory[ItemThingLink] {
	return provider.EventFactory[ItemThingLink]{
		Added: func(l ItemThingLink) event.Event {
			return event.New(ItemThingLinkAddedEvent, topic(l.Item, l.Thing.String(), "added"), l)
		},
		Removed: func(l ItemThingLink) event.Event {
			return event.New(ItemThingLinkRemovedEvent, topic(l.Item, l.Thing.String(), "removed"), l)
		},
	}
}
