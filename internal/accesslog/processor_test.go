package accesslog

import (
	"errors"
	"testing"

	"github.com/tinytelemetry/httpmon/internal/model"
)

type recordingIngester struct {
	records []model.Record
}

func (r *recordingIngester) Ingest(rec model.Record) int {
	r.records = append(r.records, rec)
	return 1
}

func TestProcessor_ProcessEnvelope(t *testing.T) {
	t.Parallel()

	target := &recordingIngester{}
	p := NewProcessor(target, "file", nil)

	lines := []string{
		`"remotehost","rfc931","authuser","date","request","status","bytes"`,
		`"10.0.0.2","-","apache",1549573860,"GET /api/user HTTP/1.0",200,1234`,
		`"10.0.0.2","-","apache",notatime,"GET /api/user HTTP/1.0",200,1234`,
		`"10.0.0.3","-","apache",1549573861,"PUT /api/user HTTP/1.0",201,10`,
	}

	var results []*ProcessResult
	for _, line := range lines {
		results = append(results, p.ProcessEnvelope(model.IngestEnvelope{Line: line}))
	}

	if !errors.Is(results[0].Err, ErrHeader) {
		t.Fatalf("header result err = %v, want ErrHeader", results[0].Err)
	}
	if !results[1].Accepted() || results[1].Ticks != 1 {
		t.Fatalf("data result = %+v, want accepted with 1 tick", results[1])
	}
	if !errors.Is(results[2].Err, ErrMalformedTimestamp) {
		t.Fatalf("bad row err = %v, want ErrMalformedTimestamp", results[2].Err)
	}

	if got := len(target.records); got != 2 {
		t.Fatalf("ingested records = %d, want 2", got)
	}
	if target.records[1].Method != "PUT" {
		t.Fatalf("second record method = %q, want PUT", target.records[1].Method)
	}
	if p.Ingested() != 2 || p.Rejected() != 1 || p.Lines() != 4 {
		t.Fatalf("counters ingested=%d rejected=%d lines=%d, want 2/1/4", p.Ingested(), p.Rejected(), p.Lines())
	}
}

func TestProcessor_RejectionsNeverStopStream(t *testing.T) {
	t.Parallel()

	target := &recordingIngester{}
	p := NewProcessor(target, "stdin", NewParser(ParserConfig{Header: HeaderNever}))

	for i := 0; i < 50; i++ {
		p.ProcessEnvelope(model.IngestEnvelope{Source: "stdin", Line: "garbage"})
	}
	res := p.ProcessEnvelope(model.IngestEnvelope{Line: `"10.0.0.2","-","apache",1549573860,"GET / HTTP/1.0",200,1`})
	if !res.Accepted() {
		t.Fatalf("valid line after garbage rejected: %v", res.Err)
	}
	if res.Record.Section != "/" {
		t.Fatalf("section = %q, want /", res.Record.Section)
	}
	if p.Rejected() != 50 {
		t.Fatalf("rejected = %d, want 50", p.Rejected())
	}
}

func TestProcessor_NilTarget(t *testing.T) {
	t.Parallel()

	p := NewProcessor(nil, "stdin", NewParser(ParserConfig{Header: HeaderNever}))
	res := p.ProcessEnvelope(model.IngestEnvelope{Line: `"10.0.0.2","-","apache",1549573860,"GET / HTTP/1.0",200,1`})
	if !res.Accepted() || res.Ticks != 0 {
		t.Fatalf("result = %+v, want accepted without ticks", res)
	}
}
