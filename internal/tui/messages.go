package tui

import (
	"github.com/tinytelemetry/httpmon/internal/model"
	"github.com/tinytelemetry/httpmon/internal/monitor"
	"github.com/tinytelemetry/httpmon/internal/sink"
)

type alertRaisedMsg model.AlertRaised
type alertClearedMsg model.AlertCleared
type snapshotMsg model.MetricsSnapshot
type statusMsg monitor.Status
type finishedMsg sink.RunSummary

func isMonitorMsg(msg any) bool {
	switch msg.(type) {
	case alertRaisedMsg, alertClearedMsg, snapshotMsg, statusMsg, finishedMsg:
		return true
	}
	return false
}
