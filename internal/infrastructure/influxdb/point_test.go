package influxdb

import (
	"testing"
	"time"
)

func TestEventPoint(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := eventPoint("ItemChannelLinkRemovedEvent", "links/Light_1-hue:bulb:1:color/removed", "api", at)

	if p.Name() != MeasurementEvents {
		t.Errorf("Name() = %q", p.Name())
	}
	if !p.Time().Equal(at) {
		t.Errorf("Time() = %v, want %v", p.Time(), at)
	}

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	want := map[string]string{"type": "ItemChannelLinkRemovedEvent", "domain": "links", "source": "api"}
	for k, v := range want {
		if tags[k] != v {
			t.Errorf("tag %s = %q, want %q", k, tags[k], v)
		}
	}

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["topic"] != "links/Light_1-hue:bulb:1:color/removed" {
		t.Errorf("topic field = %v", fields["topic"])
	}
}

func TestEventPoint_OmitsEmptySource(t *testing.T) {
	p := eventPoint("ThingAddedEvent", "things/hue:bulb:1/added", "", time.Time{})

	for _, tag := range p.TagList() {
		if tag.Key == "source" {
			t.Error("empty source became a tag")
		}
	}
	if p.Time().IsZero() {
		t.Error("zero timestamp was not replaced")
	}
}

func TestTopicDomain(t *testing.T) {
	tests := []struct{ topic, want string }{
		{"links/a/added", "links"},
		{"rules", "rules"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := topicDomain(tt.topic); got != tt.want {
			t.Errorf("topicDomain(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}
