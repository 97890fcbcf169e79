package main

import (
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tinytelemetry/httpmon/internal/accesslog"
	"github.com/tinytelemetry/httpmon/internal/duckdb"
	"github.com/tinytelemetry/httpmon/internal/httpserver"
	"github.com/tinytelemetry/httpmon/internal/model"
	"github.com/tinytelemetry/httpmon/internal/monitor"
	"github.com/tinytelemetry/httpmon/internal/sink"
	"github.com/tinytelemetry/httpmon/internal/tui"
)

// statusObserver receives the core status after every tick.
type statusObserver interface {
	ObserveStatus(monitor.Status)
}

// pipeline owns the core and everything hanging off its event stream.
// Only the ingest goroutine touches monitor and processor.
type pipeline struct {
	cfg       appConfig
	board     *monitor.StatusBoard
	monitor   *monitor.Monitor
	processor *accesslog.Processor
	events    model.EventSink
	counter   *sink.Counter
	observers []statusObserver

	store   *duckdb.Store
	buffer  *duckdb.EventBuffer
	cleaner *duckdb.RetentionCleaner
	redis   *sink.Redis
	prom    *sink.Prometheus
	hub     *httpserver.Hub
	program *tea.Program
}

// newPipeline wires the sinks selected by cfg around a fresh monitor.
// Presentation output goes to out.
func newPipeline(cfg appConfig, out io.Writer) (*pipeline, error) {
	p := &pipeline{
		cfg:     cfg,
		board:   &monitor.StatusBoard{},
		counter: &sink.Counter{},
	}

	sinks := []model.EventSink{p.counter}

	switch cfg.Output {
	case outputConsole:
		sinks = append(sinks, sink.NewConsole(out, sink.ConsoleConfig{TopN: cfg.TopN, NoColor: cfg.NoColor}))
	case outputJSON, outputYAML:
		stream, err := sink.NewStream(out, cfg.Output)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, stream)
	case outputTUI:
		program, tuiSink := tui.NewProgram(tui.Options{TopN: cfg.TopN, Threshold: cfg.AlertThreshold})
		p.program = program
		p.observers = append(p.observers, tuiSink)
		sinks = append(sinks, tuiSink)
	}

	if cfg.historyEnabled() {
		store, err := duckdb.NewStore(cfg.DBPath, cfg.QueryTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize DuckDB: %w", err)
		}
		p.store = store
		p.buffer = duckdb.NewEventBuffer(store, duckdb.EventBufferConfig{
			BatchSize:     cfg.InsertBatchSize,
			FlushInterval: cfg.InsertFlushInterval,
		})
		if cfg.DBPath != "" {
			p.cleaner = duckdb.NewRetentionCleaner(store, duckdb.RetentionConfig{
				RetentionDays: cfg.HistoryRetention,
			})
		}
		sinks = append(sinks, duckdb.NewHistory(p.buffer))
	}

	if cfg.RedisAddr != "" {
		r, err := sink.NewRedis(cfg.RedisAddr, sink.RedisConfig{Channel: cfg.RedisChannel})
		if err != nil {
			log.Printf("Warning: redis sink disabled: %v", err)
		} else {
			p.redis = r
			sinks = append(sinks, r)
		}
	}

	if cfg.APIEnabled {
		p.hub = httpserver.NewHub()
		sinks = append(sinks, p.hub)
		if cfg.MetricsEnabled {
			p.prom = sink.NewPrometheus()
			p.observers = append(p.observers, p.prom)
			sinks = append(sinks, p.prom)
		}
	}

	p.events = sink.NewFanout(sinks...)

	m, err := monitor.New(cfg.monitorConfig(), p.events, monitor.TickListenerFunc(p.onTick))
	if err != nil {
		p.close()
		return nil, err
	}
	p.monitor = m
	p.processor = accesslog.NewProcessor(m, "", accesslog.NewParser(accesslog.ParserConfig{
		Header: accesslog.HeaderMode(cfg.HasHeader),
	}))
	return p, nil
}

// onTick runs after the alert machine and report scheduler for each second.
func (p *pipeline) onTick(int64) {
	p.publishStatus()
}

func (p *pipeline) publishStatus() monitor.Status {
	st := p.monitor.Status()
	st.Rejected = p.processor.Rejected()
	p.board.Publish(st)
	for _, o := range p.observers {
		o.ObserveStatus(st)
	}
	return st
}

// apiOptions exposes the read side of the pipeline to the HTTP API.
func (p *pipeline) apiOptions() httpserver.Options {
	opts := httpserver.Options{Status: p.board, Hub: p.hub}
	if p.store != nil {
		opts.History = p.store
	}
	if p.prom != nil {
		opts.Metrics = promhttp.HandlerFor(p.prom.Registry(), promhttp.HandlerOpts{})
	}
	return opts
}

// finish publishes the final status and tells every sink the input is done.
// No partial window is flushed.
func (p *pipeline) finish(source string) sink.RunSummary {
	st := p.publishStatus()
	summary := sink.RunSummary{
		Source:   source,
		Lines:    p.processor.Lines(),
		Ingested: p.processor.Ingested(),
		Rejected: p.processor.Rejected(),
		Ticks:    st.Ticks,
		Reports:  st.Reports,
		Alerts:   p.counter.Raised,
		Now:      st.Now,
		State:    st.State,
	}
	sink.Finish(p.events, summary)
	return summary
}

// close flushes history and releases collaborators. Safe on a partially
// built pipeline.
func (p *pipeline) close() {
	if p.buffer != nil {
		p.buffer.Stop()
	}
	if p.cleaner != nil {
		p.cleaner.Stop()
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			log.Printf("duckdb: close: %v", err)
		}
	}
	if p.redis != nil {
		if err := p.redis.Close(); err != nil {
			log.Printf("redis: close: %v", err)
		}
	}
}
