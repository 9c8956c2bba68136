package event

import (
	"context"
	"sync"
)

// defaultQueueSize is used when NewQueue is given a non-positive size.
const defaultQueueSize = 256

// Queue delivers events to a downstream publisher from a single worker
// goroutine, so that slow publishers (MQTT, InfluxDB) never hold up the
// registry that posted the event.
//
// When the buffer is full the event is dropped and a warning is logged.
type Queue struct {
	next   Publisher
	events chan Event
	logger Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewQueue creates a queue in front of next. Call Run to start delivery.
func NewQueue(next Publisher, size int, logger Logger) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Queue{
		next:   next,
		events: make(chan Event, size),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Post implements Publisher. It never blocks.
func (q *Queue) Post(e Event) {
	select {
	case <-q.done:
		return
	default:
	}

	select {
	case q.events <- e:
	default:
		q.logger.Warn("event queue full, dropping event", "type", e.Type, "topic", e.Topic)
	}
}

// Run delivers queued events until ctx is cancelled or Close is called.
// Events still buffered at that point are delivered before Run returns.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case e := <-q.events:
			q.deliver(e)
		case <-ctx.Done():
			q.drain()
			return
		case <-q.done:
			q.drain()
			return
		}
	}
}

// Close stops accepting events. Run drains what is buffered and returns.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}

// Pending returns the number of buffered events.
func (q *Queue) Pending() int {
	return len(q.events)
}

func (q *Queue) drain() {
	for {
		select {
		case e := <-q.events:
			q.deliver(e)
		default:
			return
		}
	}
}

// deliver forwards one event, recovering from a panicking publisher.
func (q *Queue) deliver(e Event) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("event publisher panic recovered", "type", e.Type, "panic", r)
		}
	}()
	q.next.Post(e)
}
