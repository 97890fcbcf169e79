package main

import (
	"time"

	"github.com/tinytelemetry/httpmon/internal/logsource"
	"github.com/tinytelemetry/httpmon/internal/model"
)

const (
	defaultReportInterval      = model.DefaultReportInterval
	defaultAlertWindow         = model.DefaultAlertWindow
	defaultAlertThreshold      = model.DefaultAlertThreshold
	defaultTopN                = model.DefaultTopN
	defaultBindHost            = "127.0.0.1"
	defaultTCPPort             = 4000
	defaultAPIPort             = 3000
	defaultSourceBuffer        = logsource.DefaultBuffer
	defaultMaxLineSize         = logsource.DefaultMaxLineSize
	defaultQueryTimeout        = 30 * time.Second
	defaultInsertBatchSize     = 256
	defaultInsertFlushInterval = 250 * time.Millisecond
	defaultHistoryRetention    = 0 // days, 0 = disabled
)

// Input modes.
const (
	inputAuto  = "auto"
	inputFile  = "file"
	inputStdin = "stdin"
	inputTCP   = "tcp"
)

// Output modes.
const (
	outputConsole = "console"
	outputJSON    = "json"
	outputYAML    = "yaml"
	outputTUI     = "tui"
	outputNone    = "none"
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	ReportInterval      int           `mapstructure:"report-interval"`
	AlertWindow         int           `mapstructure:"alert-window"`
	AlertThreshold      int           `mapstructure:"alert-threshold"`
	Retention           int           `mapstructure:"retention"`
	Input               string        `mapstructure:"input"`
	File                string        `mapstructure:"file"`
	HasHeader           string        `mapstructure:"has-header"`
	Host                string        `mapstructure:"host"`
	TCPPort             int           `mapstructure:"tcp-port"`
	TCPAddr             string        `mapstructure:"tcp-addr"`
	SourceBuffer        int           `mapstructure:"source-buffer"`
	MaxLineSize         int           `mapstructure:"max-line-size"`
	Output              string        `mapstructure:"output"`
	NoColor             bool          `mapstructure:"no-color"`
	TopN                int           `mapstructure:"top-n"`
	APIEnabled          bool          `mapstructure:"api-enabled"`
	APIPort             int           `mapstructure:"api-port"`
	APIAddr             string        `mapstructure:"api-addr"`
	MetricsEnabled      bool          `mapstructure:"metrics-enabled"`
	DBPath              string        `mapstructure:"db-path"`
	QueryTimeout        time.Duration `mapstructure:"query-timeout"`
	InsertBatchSize     int           `mapstructure:"insert-batch-size"`
	InsertFlushInterval time.Duration `mapstructure:"insert-flush-interval"`
	HistoryRetention    int           `mapstructure:"history-retention"`
	RedisAddr           string        `mapstructure:"redis-addr"`
	RedisChannel        string        `mapstructure:"redis-channel"`
	ConfigPath          string        `mapstructure:"-"` // not from config file
}

// historyEnabled reports whether alert and snapshot history is recorded.
// The API always gets a store, in memory when no db-path is set.
func (c appConfig) historyEnabled() bool {
	return c.DBPath != "" || c.APIEnabled
}

// ownsStdout reports whether the selected output writes to the terminal,
// in which case runtime logs go to a file instead.
func (c appConfig) ownsStdout() bool {
	switch c.Output {
	case outputConsole, outputTUI:
		return true
	}
	return false
}
