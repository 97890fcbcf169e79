package monitor

import (
	"errors"
	"fmt"

	"github.com/tinytelemetry/httpmon/internal/model"
)

// Config holds the core parameters supplied by the CLI/config loader.
type Config struct {
	ReportInterval int // ticks between snapshots, also the snapshot window in seconds
	AlertWindow    int // seconds covered by the load window
	AlertThreshold int // alert when the windowed load is strictly above this

	// Retention, when > 0, drops buckets older than the widest query window
	// plus Retention seconds. Zero keeps every bucket for the whole run.
	Retention int
}

// DefaultConfig returns the stock reporting and alerting parameters.
func DefaultConfig() Config {
	return Config{
		ReportInterval: model.DefaultReportInterval,
		AlertWindow:    model.DefaultAlertWindow,
		AlertThreshold: model.DefaultAlertThreshold,
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	if c.ReportInterval < 1 {
		return fmt.Errorf("invalid report interval: %d", c.ReportInterval)
	}
	if c.AlertWindow < 1 {
		return fmt.Errorf("invalid alert window: %d", c.AlertWindow)
	}
	if c.AlertThreshold < 0 {
		return fmt.Errorf("invalid alert threshold: %d", c.AlertThreshold)
	}
	if c.Retention < 0 {
		return fmt.Errorf("invalid retention: %d", c.Retention)
	}
	return nil
}

// TickListener is notified once per logical second.
type TickListener interface {
	OnTick(now int64)
}

// TickListenerFunc adapts a function to TickListener.
type TickListenerFunc func(now int64)

func (f TickListenerFunc) OnTick(now int64) { f(now) }

// Status is a point-in-time view of the core.
type Status struct {
	Started  bool   `json:"started"`
	Now      int64  `json:"now"`
	Load     int    `json:"load"`
	State    string `json:"state"`
	Ticks    uint64 `json:"ticks"`
	Ingested uint64 `json:"ingested"`
	Rejected uint64 `json:"rejected"`
	Reports  int    `json:"reports"`
	Buckets  int    `json:"buckets"`
}

// Monitor is the time-series aggregation engine. It is not safe for
// concurrent use: a single goroutine must own it and feed it records.
type Monitor struct {
	cfg       Config
	store     *BucketStore
	clock     Clock
	agg       *Aggregator
	alerts    *AlertMachine
	reports   *ReportScheduler
	listeners []TickListener

	ticks    uint64
	ingested uint64
}

// New builds a monitor emitting to sink. The alert machine and report
// scheduler are always notified first, in that order, followed by extra
// listeners in the order given.
func New(cfg Config, sink model.EventSink, extra ...TickListener) (*Monitor, error) {
	if sink == nil {
		return nil, errors.New("monitor: nil event sink")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := NewBucketStore()
	agg := NewAggregator(store)
	m := &Monitor{
		cfg:     cfg,
		store:   store,
		agg:     agg,
		alerts:  NewAlertMachine(agg, int64(cfg.AlertWindow), cfg.AlertThreshold, sink),
		reports: NewReportScheduler(agg, cfg.ReportInterval, sink),
	}
	m.listeners = append(m.listeners, m.alerts, m.reports)
	m.listeners = append(m.listeners, extra...)
	return m, nil
}

// Ingest advances the clock to the record's timestamp, fanning out one tick
// per synthesized second, then stores the record under its own timestamp.
// It returns the number of ticks emitted.
func (m *Monitor) Ingest(rec model.Record) int {
	ticks := m.clock.Observe(rec.Timestamp, m.tick)
	m.store.Insert(rec.Timestamp, rec)
	m.ingested++
	return ticks
}

func (m *Monitor) tick(now int64) {
	m.ticks++
	for _, l := range m.listeners {
		l.OnTick(now)
	}
	if m.cfg.Retention > 0 {
		m.store.PruneBefore(now - m.horizon())
	}
}

// horizon is how far back any query can reach, plus the retention slack.
func (m *Monitor) horizon() int64 {
	widest := max(m.cfg.AlertWindow, m.cfg.ReportInterval)
	return int64(widest + m.cfg.Retention)
}

// Now returns the current logical time.
func (m *Monitor) Now() int64 { return m.clock.Now() }

// Aggregator exposes the read-side queries over the store.
func (m *Monitor) Aggregator() *Aggregator { return m.agg }

// Status returns a snapshot of the core counters.
func (m *Monitor) Status() Status {
	return Status{
		Started:  m.clock.Started(),
		Now:      m.clock.Now(),
		Load:     m.alerts.LastLoad(),
		State:    m.alerts.State().String(),
		Ticks:    m.ticks,
		Ingested: m.ingested,
		Reports:  m.reports.Reports(),
		Buckets:  m.store.Buckets(),
	}
}
