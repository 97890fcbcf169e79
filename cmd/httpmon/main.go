package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/httpmon/internal/accesslog"
	"github.com/tinytelemetry/httpmon/internal/monitor"
	"github.com/tinytelemetry/httpmon/internal/sink"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

// GetVersionInfo returns the current version and commit information.
func GetVersionInfo() (string, string) {
	return version, commit
}

// cliOverrides holds flag values that take precedence over config and env.
// Zero values mean the flag was not given.
type cliOverrides struct {
	File      string
	Threshold int
	Output    string
	hasThresh bool
}

func main() {
	var configPath string
	var showVersion bool
	var over cliOverrides

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/httpmon/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.StringVar(&over.File, "file", "", "access log file to read, - for stdin")
	flag.StringVar(&over.File, "f", "", "shorthand for -file")
	flag.IntVar(&over.Threshold, "threshold", defaultAlertThreshold, "requests per alert window that raise an alert")
	flag.IntVar(&over.Threshold, "t", defaultAlertThreshold, "shorthand for -threshold")
	flag.StringVar(&over.Output, "output", "", "console, json, yaml, tui or none")
	flag.StringVar(&over.Output, "o", "", "shorthand for -output")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "threshold" || f.Name == "t" {
			over.hasThresh = true
		}
	})

	if showVersion {
		fmt.Printf("httpmon - HTTP Access Log Monitor\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	if flag.NArg() > 0 && over.File == "" {
		over.File = flag.Arg(0)
	}

	cfg, err := loadConfig(configPath, over)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := runMonitor(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(configPath string, over ...cliOverrides) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("HTTPMON")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("report-interval", defaultReportInterval)
	v.SetDefault("alert-window", defaultAlertWindow)
	v.SetDefault("alert-threshold", defaultAlertThreshold)
	v.SetDefault("retention", 0)
	v.SetDefault("input", inputAuto)
	v.SetDefault("file", "")
	v.SetDefault("has-header", string(accesslog.HeaderAuto))
	v.SetDefault("host", defaultBindHost)
	v.SetDefault("tcp-port", defaultTCPPort)
	v.SetDefault("source-buffer", defaultSourceBuffer)
	v.SetDefault("max-line-size", defaultMaxLineSize)
	v.SetDefault("output", outputConsole)
	v.SetDefault("no-color", false)
	v.SetDefault("top-n", defaultTopN)
	v.SetDefault("api-enabled", false)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("metrics-enabled", true)
	v.SetDefault("db-path", "")
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("insert-batch-size", defaultInsertBatchSize)
	v.SetDefault("insert-flush-interval", defaultInsertFlushInterval)
	v.SetDefault("history-retention", defaultHistoryRetention)
	v.SetDefault("redis-addr", "")
	v.SetDefault("redis-channel", sink.DefaultRedisChannel)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		defaultConfigPath := filepath.Join(home, ".config", "httpmon", "config.yml")
		v.SetConfigFile(defaultConfigPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		cfg.ConfigPath = ""
	}

	if len(over) > 0 {
		applyOverrides(&cfg, over[0])
	}

	if err := validateConfig(&cfg); err != nil {
		return cfg, err
	}

	// Expand ~ in db-path
	if strings.HasPrefix(cfg.DBPath, "~/") {
		cfg.DBPath = filepath.Join(home, cfg.DBPath[2:])
	}

	if cfg.TCPAddr == "" {
		cfg.TCPAddr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.TCPPort))
	}
	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}

func applyOverrides(cfg *appConfig, over cliOverrides) {
	if over.File != "" {
		cfg.File = over.File
		if cfg.Input == inputAuto {
			cfg.Input = inputFile
			if over.File == "-" {
				cfg.Input = inputStdin
			}
		}
	}
	if over.hasThresh {
		cfg.AlertThreshold = over.Threshold
	}
	if over.Output != "" {
		cfg.Output = over.Output
	}
}

func validateConfig(cfg *appConfig) error {
	core := cfg.monitorConfig()
	if err := core.Validate(); err != nil {
		return err
	}
	if cfg.TCPPort <= 0 || cfg.TCPPort > 65535 {
		return fmt.Errorf("invalid tcp-port: %d", cfg.TCPPort)
	}
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.TopN < 1 {
		return fmt.Errorf("invalid top-n: %d", cfg.TopN)
	}
	if cfg.HistoryRetention < 0 {
		return fmt.Errorf("invalid history-retention: %d", cfg.HistoryRetention)
	}

	cfg.Input = strings.ToLower(strings.TrimSpace(cfg.Input))
	switch cfg.Input {
	case inputAuto, inputStdin, inputTCP:
	case inputFile:
		if cfg.File == "" || cfg.File == "-" {
			return errors.New("input file requires a file path")
		}
	default:
		return fmt.Errorf("invalid input: %q", cfg.Input)
	}

	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
	switch cfg.Output {
	case outputConsole, outputJSON, outputYAML, outputTUI, outputNone:
	default:
		return fmt.Errorf("invalid output: %q", cfg.Output)
	}

	mode, err := accesslog.ParseHeaderMode(cfg.HasHeader)
	if err != nil {
		return fmt.Errorf("invalid has-header: %w", err)
	}
	cfg.HasHeader = string(mode)
	return nil
}

func (c appConfig) monitorConfig() monitor.Config {
	return monitor.Config{
		ReportInterval: c.ReportInterval,
		AlertWindow:    c.AlertWindow,
		AlertThreshold: c.AlertThreshold,
		Retention:      c.Retention,
	}
}
