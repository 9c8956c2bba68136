package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a single domain event.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Topic     string    `json:"topic"`
	Source    string    `json:"source,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates an event with a generated ID and the current UTC time.
func New(eventType, topic string, payload any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// WithSource returns a copy of the event tagged with the originating component.
func (e Event) WithSource(source string) Event {
	e.Source = source
	return e
}

// Publisher delivers events. Post must not block for long and never
// reports failure to the caller.
type Publisher interface {
	Post(e Event)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(e Event)

// Post implements Publisher.
func (f PublisherFunc) Post(e Event) {
	f(e)
}

// Nop discards every event.
type Nop struct{}

// Post implements Publisher.
func (Nop) Post(Event) {}

// Logger defines the logging interface used by publishers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
