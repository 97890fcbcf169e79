package monitor

import "github.com/tinytelemetry/httpmon/internal/model"

// Snapshotter produces a metrics snapshot for a window.
type Snapshotter interface {
	Metrics(asOf, window int64) model.MetricsSnapshot
}

// ReportScheduler emits one metrics snapshot every interval ticks, covering
// the last interval seconds.
type ReportScheduler struct {
	source    Snapshotter
	interval  int
	remaining int
	sink      model.EventSink
	reports   int
}

// NewReportScheduler creates a scheduler whose first report fires after
// exactly interval ticks.
func NewReportScheduler(source Snapshotter, interval int, sink model.EventSink) *ReportScheduler {
	return &ReportScheduler{
		source:    source,
		interval:  interval,
		remaining: interval,
		sink:      sink,
	}
}

// OnTick counts down and reports when the counter reaches zero.
func (r *ReportScheduler) OnTick(now int64) {
	r.remaining--
	if r.remaining > 0 {
		return
	}
	r.sink.MetricsSnapshot(r.source.Metrics(now, int64(r.interval)))
	r.reports++
	r.remaining = r.interval
}

// Remaining returns the ticks left until the next report.
func (r *ReportScheduler) Remaining() int { return r.remaining }

// Reports returns how many snapshots have been emitted.
func (r *ReportScheduler) Reports() int { return r.reports }
