package model

import "time"

// AlertRecord is a stored alert transition.
type AlertRecord struct {
	Kind       string    `json:"kind"` // EventAlertRaised or EventAlertCleared
	Load       int       `json:"load"`
	At         int64     `json:"at"`
	RecordedAt time.Time `json:"recorded_at"`
}

// SnapshotRecord is a stored metrics snapshot.
type SnapshotRecord struct {
	MetricsSnapshot
	RecordedAt time.Time `json:"recorded_at"`
}

// HistoryReader provides read-only queries over emitted events.
type HistoryReader interface {
	RecentAlerts(limit int) ([]AlertRecord, error)
	RecentSnapshots(limit int) ([]SnapshotRecord, error)
	EventCounts() (map[string]int64, error)
}

// HistoryWriter provides append-oriented writes for emitted events.
type HistoryWriter interface {
	InsertAlertBatch(records []AlertRecord) error
	InsertSnapshotBatch(records []SnapshotRecord) error
}
