package link

import (
	"strings"

	"github.com/nerrad567/gray-logic-links/internal/provider"
	"github.com/nerrad567/gray-logic-links/internal/thing"
)

// idSeparator joins item name and UID in a link ID.
const idSeparator = " -> "

// Link is an association between an item name and a linkable UID.
type Link[U comparable] interface {
	provider.Element
	ItemName() string
	LinkedUID() U
}

// ItemChannelLink binds an item to a channel.
type ItemChannelLink struct {
	Item    string           `json:"item_name"`
	Channel thing.ChannelUID `json:"channel_uid"`
}

// NewItemChannelLink creates a link.
func NewItemChannelLink(itemName string, channel thing.ChannelUID) ItemChannelLink {
	return ItemChannelLink{Item: itemName, Channel: channel}
}

// ID returns "<item> -> <channel uid>".
func (l ItemChannelLink) ID() string { return ChannelLinkID(l.Item, l.Channel) }

// ItemName implements Link.
func (l ItemChannelLink) ItemName() string { return l.Item }

// LinkedUID implements Link.
func (l ItemChannelLink) LinkedUID() thing.ChannelUID { return l.Channel }

func (l ItemChannelLink) String() string { return l.ID() }

// ItemThingLink binds an item to a thing.
type ItemThingLink struct {
	Item  string         `json:"item_name"`
	Thing thing.ThingUID `json:"thing_uid"`
}

// NewItemThingLink creates a link.
func NewItemThingLink(itemName string, uid thing.ThingUID) ItemThingLink {
	return ItemThingLink{Item: itemName, Thing: uid}
}

// ID returns "<item> -> <thing uid>".
func (l ItemThingLink) ID() string { return l.Item + idSeparator + l.Thing.String() }

// ItemName implements Link.
func (l ItemThingLink) ItemName() string { return l.Item }

// LinkedUID implements Link.
func (l ItemThingLink) LinkedUID() thing.ThingUID { return l.Thing }

func (l ItemThingLink) String() string { return l.ID() }

// ChannelLinkID returns the ID of the link between itemName and channel.
func ChannelLinkID(itemName string, channel thing.ChannelUID) string {
	return itemName + idSeparator + channel.String()
}

// DeriveItemName returns the default item name for a channel: the channel
// UID with every character outside [A-Za-z0-9_] replaced by '_'.
//
//	hue:bulb:kitchen:color -> hue_bulb_kitchen_color
func DeriveItemName(uid thing.ChannelUID) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, uid.String())
}
