package duckdb

import (
	"time"

	"github.com/tinytelemetry/httpmon/internal/model"
)

// History is an event sink that records every event in the store through an
// EventBuffer.
type History struct {
	buffer *EventBuffer
	now    func() time.Time
}

// NewHistory creates a history sink writing through buffer.
func NewHistory(buffer *EventBuffer) *History {
	return &History{buffer: buffer, now: time.Now}
}

func (h *History) AlertRaised(e model.AlertRaised) {
	h.buffer.AddAlert(AlertRecord{Kind: model.EventAlertRaised, Load: e.Load, At: e.At, RecordedAt: h.now()})
}

func (h *History) AlertCleared(e model.AlertCleared) {
	h.buffer.AddAlert(AlertRecord{Kind: model.EventAlertCleared, Load: e.Load, At: e.At, RecordedAt: h.now()})
}

func (h *History) MetricsSnapshot(e model.MetricsSnapshot) {
	h.buffer.AddSnapshot(SnapshotRecord{MetricsSnapshot: e, RecordedAt: h.now()})
}
