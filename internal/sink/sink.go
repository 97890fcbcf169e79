// Package sink holds the presentation and forwarding ends of the monitor's
// event stream. The core hands structured events to a model.EventSink; the
// sinks here decide how they are shown, stored or published.
package sink

import (
	"github.com/tinytelemetry/httpmon/internal/model"
)

// RunSummary describes a finished run.
type RunSummary struct {
	Source   string `json:"source" yaml:"source"`
	Lines    uint64 `json:"lines" yaml:"lines"`
	Ingested uint64 `json:"ingested" yaml:"ingested"`
	Rejected uint64 `json:"rejected" yaml:"rejected"`
	Ticks    uint64 `json:"ticks" yaml:"ticks"`
	Reports  int    `json:"reports" yaml:"reports"`
	Alerts   int    `json:"alerts" yaml:"alerts"`
	Now      int64  `json:"now" yaml:"now"`
	State    string `json:"state" yaml:"state"`
}

// Finisher is implemented by sinks that render something once input ends.
type Finisher interface {
	Finish(RunSummary)
}

// Fanout forwards every event to each sink in order.
type Fanout []model.EventSink

// NewFanout drops nil sinks and returns the single sink directly when only
// one remains.
func NewFanout(sinks ...model.EventSink) model.EventSink {
	out := make(Fanout, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return Discard{}
	case 1:
		return out[0]
	}
	return out
}

func (f Fanout) AlertRaised(e model.AlertRaised) {
	for _, s := range f {
		s.AlertRaised(e)
	}
}

func (f Fanout) AlertCleared(e model.AlertCleared) {
	for _, s := range f {
		s.AlertCleared(e)
	}
}

func (f Fanout) MetricsSnapshot(e model.MetricsSnapshot) {
	for _, s := range f {
		s.MetricsSnapshot(e)
	}
}

// Finish forwards to every sink implementing Finisher.
func (f Fanout) Finish(summary RunSummary) {
	for _, s := range f {
		if fin, ok := s.(Finisher); ok {
			fin.Finish(summary)
		}
	}
}

// Finish calls s.Finish if s implements Finisher.
func Finish(s model.EventSink, summary RunSummary) {
	if fin, ok := s.(Finisher); ok {
		fin.Finish(summary)
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) AlertRaised(model.AlertRaised)         {}
func (Discard) AlertCleared(model.AlertCleared)       {}
func (Discard) MetricsSnapshot(model.MetricsSnapshot) {}

// Counter tallies events. It is useful for run summaries.
type Counter struct {
	Raised    int
	Cleared   int
	Snapshots int
}

func (c *Counter) AlertRaised(model.AlertRaised)         { c.Raised++ }
func (c *Counter) AlertCleared(model.AlertCleared)       { c.Cleared++ }
func (c *Counter) MetricsSnapshot(model.MetricsSnapshot) { c.Snapshots++ }
