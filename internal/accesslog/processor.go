package accesslog

import (
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/tinytelemetry/httpmon/internal/model"
)

// verboseWarnings is how many malformed lines are logged individually before
// switching to a throttled summary.
const verboseWarnings = 10

// Ingester is the core entry point. monitor.Monitor satisfies it.
type Ingester interface {
	Ingest(model.Record) int
}

// EnvelopeProcessor consumes source-tagged lines and feeds records to the core.
type EnvelopeProcessor interface {
	Name() string
	ProcessEnvelope(model.IngestEnvelope) *ProcessResult
}

// ProcessResult holds the result of processing one line.
type ProcessResult struct {
	Record model.Record
	Ticks  int   // logical seconds the clock advanced
	Err    error // nil, ErrHeader, or a malformed-line error
}

// Accepted reports whether the line reached the core.
func (r *ProcessResult) Accepted() bool { return r.Err == nil }

// Processor parses lines and hands well-formed records to the core.
// Malformed lines are counted and logged, never fatal.
type Processor struct {
	parser     *Parser
	target     Ingester
	sourceName string

	lines    atomic.Uint64
	ingested atomic.Uint64
	rejected atomic.Uint64
	headers  atomic.Uint64

	lastWarnLog atomic.Int64 // unix timestamp of last summary warning
}

// NewProcessor creates a processor feeding target.
func NewProcessor(target Ingester, sourceName string, parser *Parser) *Processor {
	if parser == nil {
		parser = NewParser()
	}
	return &Processor{
		parser:     parser,
		target:     target,
		sourceName: sourceName,
	}
}

// Name returns the processor name.
func (p *Processor) Name() string { return "csv" }

// ProcessEnvelope parses one line and, if well formed, ingests it.
func (p *Processor) ProcessEnvelope(env model.IngestEnvelope) *ProcessResult {
	lineNo := p.lines.Add(1)

	rec, err := p.parser.ParseLine(env.Line)
	if errors.Is(err, ErrHeader) {
		p.headers.Add(1)
		log.Printf("accesslog: header detected on %s, columns %+v", p.source(env), p.parser.Columns())
		return &ProcessResult{Err: err}
	}
	if err != nil {
		p.warnMalformed(env, lineNo, err)
		return &ProcessResult{Err: err}
	}

	ticks := 0
	if p.target != nil {
		ticks = p.target.Ingest(rec)
	}
	p.ingested.Add(1)
	return &ProcessResult{Record: rec, Ticks: ticks}
}

// Ingested returns the number of records handed to the core.
func (p *Processor) Ingested() uint64 { return p.ingested.Load() }

// Rejected returns the number of malformed lines skipped.
func (p *Processor) Rejected() uint64 { return p.rejected.Load() }

// Lines returns the number of lines seen, headers included.
func (p *Processor) Lines() uint64 { return p.lines.Load() }

// SetSourceName updates the default source name.
func (p *Processor) SetSourceName(name string) {
	p.sourceName = name
}

func (p *Processor) source(env model.IngestEnvelope) string {
	if env.Source != "" {
		return env.Source
	}
	return p.sourceName
}

// warnMalformed logs the first few rejections individually, then at most one
// summary every 10 seconds.
func (p *Processor) warnMalformed(env model.IngestEnvelope, lineNo uint64, err error) {
	count := p.rejected.Add(1)
	if count <= verboseWarnings {
		log.Printf("accesslog: skipping malformed line %d from %s: %v", lineNo, p.source(env), err)
		return
	}
	now := time.Now().Unix()
	last := p.lastWarnLog.Load()
	if now-last >= 10 && p.lastWarnLog.CompareAndSwap(last, now) {
		log.Printf("accesslog: %d malformed lines skipped so far (latest line %d: %v)", count, lineNo, err)
	}
}
