package monitor

import "github.com/tinytelemetry/httpmon/internal/model"

type recordingSink struct {
	raised    []model.AlertRaised
	cleared   []model.AlertCleared
	snapshots []model.MetricsSnapshot
}

func (s *recordingSink) AlertRaised(e model.AlertRaised)         { s.raised = append(s.raised, e) }
func (s *recordingSink) AlertCleared(e model.AlertCleared)       { s.cleared = append(s.cleared, e) }
func (s *recordingSink) MetricsSnapshot(e model.MetricsSnapshot) { s.snapshots = append(s.snapshots, e) }

func hit(ts int64) model.Record {
	return model.Record{Timestamp: ts, Remote: "10.0.0.1", Method: "GET", Section: "/api", Status: "200", Bytes: 100}
}
