package model

import "sort"

// Event type names used on the wire (JSON streams, websocket, redis).
const (
	EventAlertRaised     = "alert_raised"
	EventAlertCleared    = "alert_cleared"
	EventMetricsSnapshot = "metrics_snapshot"
)

// AlertRaised is emitted once when the windowed load first exceeds the threshold.
type AlertRaised struct {
	Load int   `json:"load" yaml:"load"`
	At   int64 `json:"at" yaml:"at"`
}

// AlertCleared is emitted once when the windowed load falls back to the threshold or below.
type AlertCleared struct {
	Load int   `json:"load" yaml:"load"`
	At   int64 `json:"at" yaml:"at"`
}

// MetricsSnapshot aggregates the records of one reporting window [From, To].
type MetricsSnapshot struct {
	From          int64            `json:"from" yaml:"from"`
	To            int64            `json:"to" yaml:"to"`
	TotalRequests int              `json:"total_requests" yaml:"total_requests"`
	TotalBytes    uint64           `json:"total_bytes" yaml:"total_bytes"`
	InboundBytes  uint64           `json:"inbound_bytes" yaml:"inbound_bytes"`
	OutboundBytes uint64           `json:"outbound_bytes" yaml:"outbound_bytes"`
	PerMethod     map[string]int64 `json:"per_method" yaml:"per_method"`
	PerSection    map[string]int64 `json:"per_section" yaml:"per_section"`
	PerRemote     map[string]int64 `json:"per_remote" yaml:"per_remote"`
	PerStatus     map[string]int64 `json:"per_status" yaml:"per_status"`
}

// NewMetricsSnapshot returns a snapshot covering [from, to] with empty tables.
func NewMetricsSnapshot(from, to int64) MetricsSnapshot {
	return MetricsSnapshot{
		From:       from,
		To:         to,
		PerMethod:  map[string]int64{},
		PerSection: map[string]int64{},
		PerRemote:  map[string]int64{},
		PerStatus:  map[string]int64{},
	}
}

// Top returns the n most frequent entries of a frequency table, ordered by
// count descending and then by value ascending. n <= 0 returns every entry.
func Top(table map[string]int64, n int) []DimensionCount {
	out := make([]DimensionCount, 0, len(table))
	for value, count := range table {
		out = append(out, DimensionCount{Value: value, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Count > out[j].Count ||
			(out[i].Count == out[j].Count && out[i].Value < out[j].Value)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// EventSink receives structured events from the monitor core.
// The sink owns presentation; the core never formats text.
type EventSink interface {
	AlertRaised(AlertRaised)
	AlertCleared(AlertCleared)
	MetricsSnapshot(MetricsSnapshot)
}

// Event is the tagged envelope used when events cross a process boundary.
type Event struct {
	Type    string `json:"type" yaml:"type"`
	Payload any    `json:"payload" yaml:"payload"`
}
