package monitor

import "github.com/tinytelemetry/httpmon/internal/model"

// AlertState is the hysteresis state of the load alert.
type AlertState int

const (
	Normal AlertState = iota
	Alerting
)

func (s AlertState) String() string {
	switch s {
	case Alerting:
		return "alerting"
	default:
		return "normal"
	}
}

// Loader reports the record count of a window.
type Loader interface {
	Load(asOf, window int64) int
}

// AlertMachine raises an alert when the windowed load goes above the
// threshold and clears it once the load is back at or below it. Each
// transition emits exactly one event; staying in a state emits nothing.
type AlertMachine struct {
	loader    Loader
	window    int64
	threshold int
	sink      model.EventSink

	state    AlertState
	lastLoad int
}

// NewAlertMachine creates a machine in the Normal state.
func NewAlertMachine(loader Loader, window int64, threshold int, sink model.EventSink) *AlertMachine {
	return &AlertMachine{
		loader:    loader,
		window:    window,
		threshold: threshold,
		sink:      sink,
	}
}

// OnTick re-evaluates the load as of now.
func (m *AlertMachine) OnTick(now int64) {
	load := m.loader.Load(now, m.window)
	m.lastLoad = load

	switch {
	case m.state == Normal && load > m.threshold:
		m.state = Alerting
		m.sink.AlertRaised(model.AlertRaised{Load: load, At: now})
	case m.state == Alerting && load <= m.threshold:
		m.state = Normal
		m.sink.AlertCleared(model.AlertCleared{Load: load, At: now})
	}
}

// State returns the current alert state.
func (m *AlertMachine) State() AlertState { return m.state }

// LastLoad returns the load computed on the most recent tick.
func (m *AlertMachine) LastLoad() int { return m.lastLoad }
