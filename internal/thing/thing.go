package thing

// Channel is an endpoint of a Thing that Items can link to.
type Channel struct {
	UID              ChannelUID     `json:"uid"`
	TypeUID          ChannelTypeUID `json:"channel_type_uid,omitempty"`
	AcceptedItemType string         `json:"item_type,omitempty"`
	Label            string         `json:"label,omitempty"`
}

// Thing is a device or service exposed by a binding.
type Thing struct {
	UID      ThingUID  `json:"uid"`
	Label    string    `json:"label,omitempty"`
	Channels []Channel `json:"channels,omitempty"`
}

// ID implements provider.Element.
func (t Thing) ID() string {
	return t.UID.String()
}

// Channel returns the channel with the given id.
func (t Thing) Channel(id string) (Channel, bool) {
	for _, c := range t.Channels {
		if c.UID.ID == id {
			return c, true
		}
	}
	return Channel{}, false
}

// HasChannel reports whether uid is one of t's channels.
func (t Thing) HasChannel(uid ChannelUID) bool {
	if uid.Thing != t.UID {
		return false
	}
	_, ok := t.Channel(uid.ID)
	return ok
}
