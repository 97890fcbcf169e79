package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/httpmon/internal/model"
	"github.com/tinytelemetry/httpmon/internal/monitor"
	"github.com/tinytelemetry/httpmon/internal/sink"
)

// sender is the part of *tea.Program the sink uses.
type sender interface {
	Send(msg tea.Msg)
}

// Sink forwards monitor events to a running Bubble Tea program.
// Send is safe to call from the monitor goroutine.
type Sink struct {
	program sender
}

// NewSink creates a sink delivering to program.
func NewSink(program sender) *Sink {
	return &Sink{program: program}
}

func (s *Sink) AlertRaised(e model.AlertRaised)         { s.program.Send(alertRaisedMsg(e)) }
func (s *Sink) AlertCleared(e model.AlertCleared)       { s.program.Send(alertClearedMsg(e)) }
func (s *Sink) MetricsSnapshot(e model.MetricsSnapshot) { s.program.Send(snapshotMsg(e)) }

// ObserveStatus pushes a status update to the dashboard header.
func (s *Sink) ObserveStatus(st monitor.Status) { s.program.Send(statusMsg(st)) }

// Finish tells the dashboard the input is exhausted. The program keeps
// running until the user quits.
func (s *Sink) Finish(summary sink.RunSummary) { s.program.Send(finishedMsg(summary)) }

// Options configures the dashboard program.
type Options struct {
	TopN      int
	Threshold int
}

// NewProgram builds the dashboard and its sink.
func NewProgram(opts Options, teaOpts ...tea.ProgramOption) (*tea.Program, *Sink) {
	app := NewApp(NewDashboardPage(opts.TopN, opts.Threshold), NewAlertsPage())
	teaOpts = append([]tea.ProgramOption{tea.WithAltScreen()}, teaOpts...)
	p := tea.NewProgram(app, teaOpts...)
	return p, NewSink(p)
}
