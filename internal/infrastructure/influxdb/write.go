package influxdb

import (
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurements written by the link core.
const (
	MeasurementEvents       = "link_events"
	MeasurementRegistrySize = "registry_size"
)

// WriteEvent records one domain event. The event type and the first topic
// segment become tags so link and thing churn can be grouped in queries.
func (c *Client) WriteEvent(eventType, topic, source string, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(eventPoint(eventType, topic, source, at))
}

// WriteRegistrySize records how many elements a registry holds.
func (c *Client) WriteRegistrySize(registry string, size int) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementRegistrySize,
		map[string]string{"registry": registry},
		map[string]interface{}{"size": size},
		time.Now(),
	))
}

// WritePoint writes an arbitrary point stamped with at.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, at))
}

func eventPoint(eventType, topic, source string, at time.Time) *write.Point {
	if at.IsZero() {
		at = time.Now()
	}

	tags := map[string]string{
		"type":   eventType,
		"domain": topicDomain(topic),
	}
	if source != "" {
		tags["source"] = source
	}

	return write.NewPoint(MeasurementEvents, tags, map[string]interface{}{
		"topic": topic,
		"count": 1,
	}, at)
}

// topicDomain returns the first segment of an event topic, such as "links"
// for "links/Light_1-hue:bulb:1:color/added".
func topicDomain(topic string) string {
	domain, _, _ := strings.Cut(topic, "/")
	return domain
}
