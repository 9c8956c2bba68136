// Package thing defines Things, their Channels and the Thing registry.
//
// A Thing is a device or service exposed by a binding. Its Channels are the
// endpoints Items link to. UIDs are colon-separated segment lists:
//
//	ThingUID        hue:bulb:kitchen
//	ChannelUID      hue:bulb:kitchen:color
//	ChannelTypeUID  hue:color
//
// The Registry aggregates Things from any number of providers and tracks
// the Handler attached to each Thing; handlers are told when one of their
// channels gets linked or unlinked.
//
// Discovery is the provider fed by bindings: each one publishes its Thing
// list on graylogic/discovery/{binding} and Discovery turns successive lists
// into added, removed and updated Things.
package thing
