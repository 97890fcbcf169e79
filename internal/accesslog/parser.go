package accesslog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tinytelemetry/httpmon/internal/logparse"
	"github.com/tinytelemetry/httpmon/internal/model"
	"github.com/tinytelemetry/httpmon/internal/timestamp"
)

var (
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrMalformedRequest   = logparse.ErrMalformedRequest
	ErrMalformedBytes     = errors.New("malformed byte count")
	ErrFieldCount         = errors.New("too few fields")
	// ErrHeader marks a header row. It is not a rejection.
	ErrHeader = errors.New("header row")
)

// HeaderMode controls how the first row of the input is treated.
type HeaderMode string

const (
	HeaderAuto   HeaderMode = "auto"   // detect a header on the first row
	HeaderAlways HeaderMode = "always" // the first row is a header
	HeaderNever  HeaderMode = "never"  // every row is data
)

// ParseHeaderMode maps a config value to a HeaderMode. Boolean spellings are
// accepted so that has-header: true works in YAML.
func ParseHeaderMode(value string) (HeaderMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return HeaderAuto, nil
	case "always", "true", "yes", "1":
		return HeaderAlways, nil
	case "never", "false", "no", "0":
		return HeaderNever, nil
	default:
		return "", fmt.Errorf("invalid header mode %q", value)
	}
}

// ParserConfig holds tunable parameters for the line parser.
type ParserConfig struct {
	Columns Columns
	Header  HeaderMode
}

// Parser turns CSV access-log lines into records. It keeps header state and
// must be used from a single goroutine.
type Parser struct {
	cols   Columns
	header HeaderMode
	ts     *timestamp.Parser
	rows   int
}

// NewParser creates a parser using DefaultColumns and HeaderAuto unless conf
// overrides them.
func NewParser(conf ...ParserConfig) *Parser {
	p := &Parser{
		cols:   DefaultColumns(),
		header: HeaderAuto,
		ts:     timestamp.NewParser(),
	}
	if len(conf) > 0 {
		if conf[0].Columns != (Columns{}) {
			p.cols = conf[0].Columns
		}
		if conf[0].Header != "" {
			p.header = conf[0].Header
		}
	}
	return p
}

// Columns returns the active column mapping.
func (p *Parser) Columns() Columns { return p.cols }

// ParseLine parses one line. It returns ErrHeader for a header row and a
// wrapped sentinel for malformed rows.
func (p *Parser) ParseLine(line string) (model.Record, error) {
	fields, err := splitCSV(line)
	if err != nil {
		return model.Record{}, fmt.Errorf("%w: %v", ErrFieldCount, err)
	}
	p.rows++

	if p.rows == 1 && p.header != HeaderNever {
		if cols, ok := columnsFromHeader(fields, p.cols); ok {
			if p.header == HeaderAlways || !p.dateParses(fields) {
				p.cols = cols
				return model.Record{}, ErrHeader
			}
		} else if p.header == HeaderAlways {
			return model.Record{}, ErrHeader
		}
	}

	return p.record(fields)
}

func (p *Parser) dateParses(fields []string) bool {
	if p.cols.Date >= len(fields) {
		return false
	}
	_, ok := p.ts.Parse(fields[p.cols.Date])
	return ok
}

func (p *Parser) record(fields []string) (model.Record, error) {
	if len(fields) < p.cols.width() {
		return model.Record{}, fmt.Errorf("%w: got %d, need %d", ErrFieldCount, len(fields), p.cols.width())
	}

	ts, ok := p.ts.Parse(fields[p.cols.Date])
	if !ok {
		return model.Record{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, fields[p.cols.Date])
	}

	req, err := logparse.ParseRequestLine(fields[p.cols.Request])
	if err != nil {
		return model.Record{}, fmt.Errorf("%w: %q", err, fields[p.cols.Request])
	}

	raw := strings.TrimSpace(fields[p.cols.Bytes])
	bytes, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return model.Record{}, fmt.Errorf("%w: %q", ErrMalformedBytes, raw)
	}

	return model.Record{
		Timestamp: ts,
		Remote:    strings.TrimSpace(fields[p.cols.Remote]),
		Method:    req.Method,
		Section:   req.Section,
		Status:    strings.TrimSpace(fields[p.cols.Status]),
		Bytes:     bytes,
	}, nil
}

func splitCSV(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return r.Read()
}
