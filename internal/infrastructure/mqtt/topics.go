package mqtt

import (
	"fmt"
	"strings"
)

// Topic namespaces.
const (
	// TopicPrefix is the root of every topic the link core uses.
	TopicPrefix = "graylogic"

	// TopicPrefixCore is where the link core publishes its domain events.
	TopicPrefixCore = "graylogic/core"

	// TopicPrefixSystem carries service presence.
	TopicPrefixSystem = "graylogic/system"

	// TopicPrefixDiscovery is where bindings announce their Things.
	TopicPrefixDiscovery = "graylogic/discovery"

	// TopicPrefixChannelTypes is where bindings announce their channel types.
	TopicPrefixChannelTypes = "graylogic/channel-types"
)

// Topics builds topic strings. The zero value is ready to use:
//
//	topic := mqtt.Topics{}.CoreEvent("ItemChannelLinkAddedEvent")
type Topics struct{}

// CoreEvent returns the topic a domain event of eventType is published on.
//
// Example: graylogic/core/event/ItemChannelLinkAddedEvent
func (Topics) CoreEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixCore, eventType)
}

// AllCoreEvents matches every domain event.
//
// Pattern: graylogic/core/event/+
func (Topics) AllCoreEvents() string {
	return TopicPrefixCore + "/event/+"
}

// ThingDiscovery returns the topic a binding announces its Things on.
// The retained payload is the binding's complete Thing list.
//
// Example: graylogic/discovery/hue
func (Topics) ThingDiscovery(bindingID string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixDiscovery, bindingID)
}

// AllThingDiscovery matches the discovery topic of every binding.
//
// Pattern: graylogic/discovery/+
func (Topics) AllThingDiscovery() string {
	return TopicPrefixDiscovery + "/+"
}

// ChannelTypeDiscovery returns the topic a binding announces its channel
// types on. The retained payload is the binding's complete list.
//
// Example: graylogic/channel-types/hue
func (Topics) ChannelTypeDiscovery(bindingID string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixChannelTypes, bindingID)
}

// AllChannelTypeDiscovery matches the channel type topic of every binding.
//
// Pattern: graylogic/channel-types/+
func (Topics) AllChannelTypeDiscovery() string {
	return TopicPrefixChannelTypes + "/+"
}

// SystemStatus returns the retained presence topic.
//
// Example: graylogic/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// BindingFromDiscoveryTopic extracts the binding id from a discovery topic.
func BindingFromDiscoveryTopic(topic string) (string, bool) {
	return bindingFromTopic(topic, TopicPrefixDiscovery)
}

// BindingFromChannelTypeTopic extracts the binding id from a channel type
// topic.
func BindingFromChannelTypeTopic(topic string) (string, bool) {
	return bindingFromTopic(topic, TopicPrefixChannelTypes)
}

func bindingFromTopic(topic, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, prefix+"/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
