package event

import "time"

// EventWriter is the subset of the InfluxDB client used to record events.
type EventWriter interface {
	WriteEvent(eventType, topic, source string, at time.Time)
}

// HistoryRecorder writes every event as a time-series point so link and
// thing churn can be charted alongside device telemetry.
type HistoryRecorder struct {
	writer EventWriter
}

// NewHistoryRecorder creates a recorder backed by writer.
func NewHistoryRecorder(writer EventWriter) *HistoryRecorder {
	return &HistoryRecorder{writer: writer}
}

// Post implements Publisher.
func (h *HistoryRecorder) Post(e Event) {
	h.writer.WriteEvent(e.Type, e.Topic, e.Source, e.Timestamp)
}
