package event

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// recorder collects posted events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Post(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

type mockMQTT struct {
	topic   string
	payload []byte
	qos     byte
	retain  bool
	err     error
}

func (m *mockMQTT) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.topic = topic
	m.payload = payload
	m.qos = qos
	m.retain = retained
	return m.err
}

type mockWriter struct {
	eventType string
	topic     string
	at        time.Time
}

func (m *mockWriter) WriteEvent(eventType, topic, _ string, at time.Time) {
	m.eventType = eventType
	m.topic = topic
	m.at = at
}

func TestNew(t *testing.T) {
	e := New("ThingAddedEvent", "graylogic/things/a/added", map[string]string{"uid": "a"})

	if e.ID == "" {
		t.Error("ID is empty")
	}
	if e.Type != "ThingAddedEvent" {
		t.Errorf("Type = %q", e.Type)
	}
	if e.Timestamp.IsZero() || e.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp = %v, want UTC now", e.Timestamp)
	}

	other := New("ThingAddedEvent", "t", nil)
	if other.ID == e.ID {
		t.Error("expected unique IDs")
	}
}

func TestWithSource(t *testing.T) {
	e := New("x", "t", nil)
	tagged := e.WithSource("link-registry")
	if tagged.Source != "link-registry" {
		t.Errorf("Source = %q", tagged.Source)
	}
	if e.Source != "" {
		t.Error("WithSource mutated the original")
	}
}

func TestMulti_PostsInOrder(t *testing.T) {
	var order []string
	first := PublisherFunc(func(Event) { order = append(order, "first") })
	second := PublisherFunc(func(Event) { order = append(order, "second") })

	m := NewMulti(first, nil, second)
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}

	m.Post(New("x", "t", nil))
	if strings.Join(order, ",") != "first,second" {
		t.Errorf("order = %v", order)
	}
}

func TestQueue_DeliversAndDrains(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec, 8, nil)

	for i := 0; i < 5; i++ {
		q.Post(New("x", "t", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if got := len(rec.all()); got != 5 {
		t.Errorf("delivered %d events, want 5", got)
	}
}

func TestQueue_DropsWhenFull(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec, 1, nil)

	q.Post(New("a", "t", nil))
	q.Post(New("b", "t", nil))

	if q.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", q.Pending())
	}
}

func TestQueue_ClosedIgnoresPosts(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec, 4, nil)
	q.Close()
	q.Close()
	q.Post(New("a", "t", nil))

	if q.Pending() != 0 {
		t.Errorf("Pending = %d after Close, want 0", q.Pending())
	}
}

func TestQueue_RecoversPublisherPanic(t *testing.T) {
	rec := &recorder{}
	calls := 0
	pub := PublisherFunc(func(e Event) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		rec.Post(e)
	})
	q := NewQueue(pub, 4, nil)
	q.Post(New("a", "t", nil))
	q.Post(New("b", "t", nil))
	q.Close()
	q.Run(context.Background())

	if got := rec.all(); len(got) != 1 || got[0].Type != "b" {
		t.Errorf("delivered = %v, want only b", got)
	}
}

func TestMQTTPublisher_Post(t *testing.T) {
	client := &mockMQTT{}
	p := NewMQTTPublisher(client, nil)

	e := New("ItemChannelLinkAddedEvent", "graylogic/links/x/added", map[string]string{"item": "x"})
	p.Post(e)

	if client.topic != "graylogic/core/event/ItemChannelLinkAddedEvent" {
		t.Errorf("topic = %q", client.topic)
	}
	if client.qos != 1 || client.retain {
		t.Errorf("qos=%d retained=%v, want 1/false", client.qos, client.retain)
	}

	var decoded Event
	if err := json.Unmarshal(client.payload, &decoded); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if decoded.ID != e.ID || decoded.Topic != e.Topic {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestMQTTPublisher_ErrorIsSwallowed(t *testing.T) {
	client := &mockMQTT{err: errors.New("not connected")}
	p := NewMQTTPublisher(client, nil)
	p.Post(New("x", "t", nil)) // must not panic
}

func TestHistoryRecorder_Post(t *testing.T) {
	w := &mockWriter{}
	h := NewHistoryRecorder(w)
	e := New("ThingRemovedEvent", "graylogic/things/a/removed", nil)
	h.Post(e)

	if w.eventType != "ThingRemovedEvent" || w.topic != e.Topic || !w.at.Equal(e.Timestamp) {
		t.Errorf("writer got %+v", w)
	}
}
