package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/httpmon/internal/httpserver"
	"github.com/tinytelemetry/httpmon/internal/logsource"
)

// runMonitor reads the selected input to the end (or until interrupted),
// feeding every record through the core and its sinks.
func runMonitor(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger(cfg.ownsStdout())
	defer cleanupLogger()

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src, err := selectInput(ctx, buildInputPlugins(InputPluginConfig{
		Input:   cfg.Input,
		File:    cfg.File,
		TCPAddr: cfg.TCPAddr,
		Source: logsource.Config{
			BufferSize:  cfg.SourceBuffer,
			MaxLineSize: cfg.MaxLineSize,
		},
	}))
	if err != nil {
		return err
	}
	defer src.Stop()

	p, err := newPipeline(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer p.close()
	p.processor.SetSourceName(src.Name())

	// Start HTTP API server if enabled
	var apiServer *httpserver.Server
	if cfg.APIEnabled {
		apiServer = httpserver.NewServer(cfg.APIAddr, p.apiOptions())
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}
		if p.program != nil {
			p.program.Quit()
		} else {
			fmt.Fprintln(os.Stderr, "\nShutting down gracefully... (press Ctrl+C again to force)")
		}
		cancel()

		// Shutdown deadline starts now, not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nForce shutdown.")
		case <-deadline.C:
			fmt.Fprintln(os.Stderr, "Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	if cfg.Output == outputConsole {
		printStartupBanner(os.Stdout, cfg, src.Name(), p.processor.Name())
	}

	// Use errgroup for concurrent goroutine lifecycle management.
	g, gctx := errgroup.WithContext(ctx)

	// Ingestion loop. It is the only goroutine touching the core.
	g.Go(func() error {
		defer p.finish(src.Name())
		lines := src.Lines()
		for {
			select {
			case <-gctx.Done():
				return nil
			case env, ok := <-lines:
				if !ok {
					return nil
				}
				p.processor.ProcessEnvelope(env)
			}
		}
	})

	if p.program != nil {
		// The dashboard owns the terminal until the user quits; quitting
		// before the input ends stops ingestion.
		_, runErr := p.program.Run()
		cancel()
		if err := g.Wait(); err != nil {
			log.Printf("server: errgroup exited with error: %v", err)
		}
		if runErr != nil {
			if strings.Contains(runErr.Error(), "TTY") || strings.Contains(runErr.Error(), "/dev/tty") {
				return fmt.Errorf("TUI requires a real terminal")
			}
			return fmt.Errorf("error running TUI: %w", runErr)
		}
		return nil
	}

	if err := g.Wait(); err != nil {
		log.Printf("server: errgroup exited with error: %v", err)
	}

	// Keep the API up after a finite input so history stays queryable.
	if apiServer != nil && ctx.Err() == nil {
		log.Printf("server: input finished, serving API on %s until interrupted", apiServer.Addr())
		fmt.Fprintf(os.Stderr, "Input finished. API still serving on %s (Ctrl+C to stop)\n", apiServer.Addr())
		<-ctx.Done()
	}

	cancel()
	return nil
}

// configureRuntimeLogger sends operational logs to a file when the terminal
// belongs to the console or the dashboard, and to stderr otherwise.
func configureRuntimeLogger(toFile bool) func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if !toFile {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "httpmon")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "httpmon.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	}
}

func printStartupBanner(w io.Writer, cfg appConfig, sourceName, processorName string) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╦ ╦╔╦╗╔╦╗╔═╗╔╦╗╔═╗╔╗╔
    ╠═╣ ║  ║ ╠═╝║║║║ ║║║║
    ╩ ╩ ╩  ╩ ╩  ╩ ╩╚═╝╝╚╝`)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	// Input
	lines = append(lines, bold.Render("    Input"))
	lines = append(lines, "")

	switch sourceName {
	case "file":
		lines = append(lines, fmt.Sprintf("    %s  File           %s", check, cyan.Render(shortenPath(cfg.File))))
	case "tcp":
		lines = append(lines, fmt.Sprintf("    %s  TCP Ingest     %s", check, cyan.Render(cfg.TCPAddr)))
	default:
		lines = append(lines, fmt.Sprintf("    %s  Stdin          %s", check, cyan.Render("piped")))
	}
	lines = append(lines, fmt.Sprintf("    %s  Parser         %s", check, dim.Render(processorName+", header "+cfg.HasHeader)))
	lines = append(lines, "")

	// Alerting
	lines = append(lines, bold.Render("    Alerting"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  Threshold      %s", check,
		dim.Render(fmt.Sprintf("> %d requests / %ds", cfg.AlertThreshold, cfg.AlertWindow))))
	lines = append(lines, fmt.Sprintf("    %s  Reports        %s", check,
		dim.Render(fmt.Sprintf("every %ds", cfg.ReportInterval))))
	lines = append(lines, "")

	// Gateway
	lines = append(lines, bold.Render("    Gateway"))
	lines = append(lines, "")

	if cfg.APIEnabled {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", dot, dim.Render("disabled")))
	}
	if cfg.RedisAddr != "" {
		lines = append(lines, fmt.Sprintf("    %s  Redis          %s", check, cyan.Render(cfg.RedisAddr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Redis          %s", dot, dim.Render("disabled")))
	}

	switch {
	case cfg.DBPath != "":
		lines = append(lines, fmt.Sprintf("    %s  History        %s", check, dim.Render(shortenPath(cfg.DBPath))))
	case cfg.historyEnabled():
		lines = append(lines, fmt.Sprintf("    %s  History        %s", check, dim.Render("in-memory")))
	default:
		lines = append(lines, fmt.Sprintf("    %s  History        %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
