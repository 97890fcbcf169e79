package model

// Shared defaults used by the monitor core, the CLI and the sinks.
const (
	DefaultReportInterval = 10  // ticks between metrics snapshots
	DefaultAlertWindow    = 120 // seconds covered by the load window
	DefaultAlertThreshold = 10  // requests per window
	DefaultTopN           = 5
)
