package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tinytelemetry/httpmon/internal/logsource"
	"github.com/tinytelemetry/httpmon/internal/tcpserver"
)

// NamedLogSource aliases the shared source abstraction to keep app-layer APIs explicit.
type NamedLogSource = logsource.LogSource

// InputSourcePlugin is a small plugin primitive for wiring log inputs.
type InputSourcePlugin interface {
	Name() string
	Enabled() bool
	Build(ctx context.Context) (NamedLogSource, error)
}

// InputPluginConfig defines runtime input selection.
type InputPluginConfig struct {
	Input   string
	File    string
	TCPAddr string
	Source  logsource.Config

	// stdinPiped overrides stdin detection in tests.
	stdinPiped func() bool
}

var errNoInput = errors.New("no input: pass -f <file>, pipe a log to stdin, or set input: tcp")

func buildInputPlugins(cfg InputPluginConfig) []InputSourcePlugin {
	piped := cfg.stdinPiped
	if piped == nil {
		piped = stdinIsPiped
	}
	plugins := make([]InputSourcePlugin, 0, 3)
	plugins = append(plugins, fileInputPlugin{
		path:    cfg.File,
		enabled: cfg.Input == inputFile || (cfg.Input == inputAuto && cfg.File != "" && cfg.File != "-"),
		conf:    cfg.Source,
	})
	plugins = append(plugins, stdinInputPlugin{
		enabled: cfg.Input == inputStdin || (cfg.Input == inputAuto && (cfg.File == "-" || (cfg.File == "" && piped()))),
		conf:    cfg.Source,
	})
	plugins = append(plugins, tcpInputPlugin{
		addr:    cfg.TCPAddr,
		enabled: cfg.Input == inputTCP,
		conf:    cfg.Source,
	})
	return plugins
}

// selectInput builds the first enabled plugin. Only one source runs at a
// time so record timestamps arrive in a single order.
func selectInput(ctx context.Context, plugins []InputSourcePlugin) (NamedLogSource, error) {
	for _, plugin := range plugins {
		if !plugin.Enabled() {
			continue
		}
		src, err := plugin.Build(ctx)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", plugin.Name(), err)
		}
		return src, nil
	}
	return nil, errNoInput
}

type fileInputPlugin struct {
	path    string
	enabled bool
	conf    logsource.Config
}

func (p fileInputPlugin) Name() string { return "file" }

func (p fileInputPlugin) Enabled() bool { return p.enabled }

func (p fileInputPlugin) Build(ctx context.Context) (NamedLogSource, error) {
	src, err := logsource.NewFileSource(ctx, p.path, p.conf)
	if err != nil {
		return nil, err
	}
	return src, nil
}

type tcpInputPlugin struct {
	addr    string
	enabled bool
	conf    logsource.Config
}

func (p tcpInputPlugin) Name() string { return "tcp" }

func (p tcpInputPlugin) Enabled() bool { return p.enabled }

func (p tcpInputPlugin) Build(_ context.Context) (NamedLogSource, error) {
	server := tcpserver.NewServer(p.addr, tcpserver.ServerConfig{
		LineChannelSize: p.conf.BufferSize,
		MaxLineSize:     p.conf.MaxLineSize,
	})
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("start tcp server: %w", err)
	}
	return logsource.NewTCPSource(server), nil
}

type stdinInputPlugin struct {
	enabled bool
	conf    logsource.Config
}

func (p stdinInputPlugin) Name() string { return "stdin" }

func (p stdinInputPlugin) Enabled() bool { return p.enabled }

func (p stdinInputPlugin) Build(ctx context.Context) (NamedLogSource, error) {
	return logsource.NewStdinSource(ctx, p.conf), nil
}

func stdinIsPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
