package event

import (
	"encoding/json"

	"github.com/nerrad567/gray-logic-links/internal/infrastructure/mqtt"
)

// MQTTClient is the subset of the MQTT client used for event delivery.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTPublisher publishes each event as JSON to graylogic/core/event/{type}.
//
// Events are published with QoS 1 and are not retained: they describe a
// change, not a state.
type MQTTPublisher struct {
	client MQTTClient
	logger Logger
}

// NewMQTTPublisher creates a publisher backed by an MQTT client.
func NewMQTTPublisher(client MQTTClient, logger Logger) *MQTTPublisher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTTPublisher{client: client, logger: logger}
}

// Post implements Publisher. Failures are logged.
func (p *MQTTPublisher) Post(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("marshalling event", "type", e.Type, "error", err)
		return
	}

	topic := mqtt.Topics{}.CoreEvent(e.Type)
	if err := p.client.Publish(topic, payload, 1, false); err != nil {
		p.logger.Warn("publishing event", "type", e.Type, "topic", topic, "error", err)
		return
	}
	p.logger.Debug("event published", "type", e.Type, "topic", topic)
}
