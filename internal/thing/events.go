package thing

import (
	"github.com/nerrad567/gray-logic-links/internal/event"
	"github.com/nerrad567/gray-logic-links/internal/provider"
)

// Event types.
const (
	ThingAddedEvent   = "ThingAddedEvent"
	ThingRemovedEvent = "ThingRemovedEvent"
	ThingUpdatedEvent = "ThingUpdatedEvent"
)

// ThingUpdate is the payload of a ThingUpdatedEvent.
type ThingUpdate struct {
	Old Thing `json:"old"`
	New Thing `json:"new"`
}

// Topic returns the event topic for a thing change, e.g.
// "things/hue:bulb:kitchen/added".
func Topic(uid ThingUID, action string) string {
	return "things/" + uid.String() + "/" + action
}

// Events returns the event factory for thing registries.
func Events() provider.EventFactory[Thing] {
	return provider.EventFactory[Thing]{
		Added: func(t Thing) event.Event {
			return event.New(ThingAddedEvent, Topic(t.UID, "added"), t)
		},
		Removed: func(t Thing) event.Event {
			return event.New(ThingRemovedEvent, Topic(t.UID, "removed"), t)
		},
		Updated: func(old, t Thing) event.Event {
			return event.New(ThingUpdatedEvent, Topic(t.UID, "updated"), ThingUpdate{Old: old, New: t})
		},
	}
}
