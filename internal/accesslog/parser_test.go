package accesslog

import (
	"errors"
	"testing"
)

func TestParseLine_DefaultColumns(t *testing.T) {
	t.Parallel()

	p := NewParser(ParserConfig{Header: HeaderNever})
	rec, err := p.ParseLine(`"10.0.0.2","-","apache",1549573860,"GET /api/user HTTP/1.0",200,1234`)
	if err != nil {
		t.Fatalf("ParseLine returned error: %v", err)
	}

	if rec.Timestamp != 1549573860 {
		t.Fatalf("timestamp = %d, want %d", rec.Timestamp, 1549573860)
	}
	if rec.Remote != "10.0.0.2" {
		t.Fatalf("remote = %q, want %q", rec.Remote, "10.0.0.2")
	}
	if rec.Method != "GET" || rec.Section != "/api" {
		t.Fatalf("method/section = %q %q, want GET /api", rec.Method, rec.Section)
	}
	if rec.Status != "200" || rec.Bytes != 1234 {
		t.Fatalf("status/bytes = %q %d, want 200 1234", rec.Status, rec.Bytes)
	}
}

func TestParseLine_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want error
	}{
		{"timestamp", `"10.0.0.2","-","apache",yesterday,"GET /api HTTP/1.0",200,12`, ErrMalformedTimestamp},
		{"request", `"10.0.0.2","-","apache",1549573860,"-",200,12`, ErrMalformedRequest},
		{"bytes", `"10.0.0.2","-","apache",1549573860,"GET /api HTTP/1.0",200,12.5`, ErrMalformedBytes},
		{"dash bytes", `"10.0.0.2","-","apache",1549573860,"GET /api HTTP/1.0",200,-`, ErrMalformedBytes},
		{"short row", `"10.0.0.2","-","apache",1549573860`, ErrFieldCount},
		{"empty", ``, ErrFieldCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewParser(ParserConfig{Header: HeaderNever})
			_, err := p.ParseLine(tt.line)
			if !errors.Is(err, tt.want) {
				t.Fatalf("ParseLine error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseLine_HeaderAutoDetected(t *testing.T) {
	t.Parallel()

	p := NewParser()
	_, err := p.ParseLine(`"remotehost","rfc931","authuser","date","request","status","bytes"`)
	if !errors.Is(err, ErrHeader) {
		t.Fatalf("first row error = %v, want ErrHeader", err)
	}

	rec, err := p.ParseLine(`"10.0.0.4","-","apache",1549573860,"POST /report HTTP/1.0",503,7`)
	if err != nil {
		t.Fatalf("data row returned error: %v", err)
	}
	if rec.Method != "POST" || rec.Section != "/report" || rec.Status != "503" {
		t.Fatalf("record = %+v", rec)
	}
}

func TestParseLine_HeaderRemapsColumns(t *testing.T) {
	t.Parallel()

	p := NewParser()
	_, err := p.ParseLine(`status,bytes,request,timestamp,ip`)
	if !errors.Is(err, ErrHeader) {
		t.Fatalf("first row error = %v, want ErrHeader", err)
	}

	want := Columns{Remote: 4, Date: 3, Request: 2, Status: 0, Bytes: 1}
	if got := p.Columns(); got != want {
		t.Fatalf("columns = %+v, want %+v", got, want)
	}

	rec, err := p.ParseLine(`404,99,"GET /missing/page HTTP/1.1",1549573861,192.168.0.9`)
	if err != nil {
		t.Fatalf("data row returned error: %v", err)
	}
	if rec.Remote != "192.168.0.9" || rec.Section != "/missing" || rec.Bytes != 99 || rec.Timestamp != 1549573861 {
		t.Fatalf("record = %+v", rec)
	}
}

func TestParseLine_AutoKeepsFirstDataRow(t *testing.T) {
	t.Parallel()

	p := NewParser()
	if _, err := p.ParseLine(`"10.0.0.2","-","apache",1549573860,"GET /api HTTP/1.0",200,1`); err != nil {
		t.Fatalf("first data row returned error: %v", err)
	}
}

func TestParseLine_HeaderOnlyOnFirstRow(t *testing.T) {
	t.Parallel()

	p := NewParser()
	if _, err := p.ParseLine(`"10.0.0.2","-","apache",1549573860,"GET /api HTTP/1.0",200,1`); err != nil {
		t.Fatalf("first row returned error: %v", err)
	}
	_, err := p.ParseLine(`"remotehost","rfc931","authuser","date","request","status","bytes"`)
	if !errors.Is(err, ErrMalformedTimestamp) {
		t.Fatalf("late header error = %v, want ErrMalformedTimestamp", err)
	}
}

func TestParseLine_HeaderAlwaysSkipsUnknownHeader(t *testing.T) {
	t.Parallel()

	p := NewParser(ParserConfig{Header: HeaderAlways})
	if _, err := p.ParseLine(`a,b,c,d,e,f,g`); !errors.Is(err, ErrHeader) {
		t.Fatalf("first row error = %v, want ErrHeader", err)
	}
	if got := p.Columns(); got != DefaultColumns() {
		t.Fatalf("columns = %+v, want defaults", got)
	}
}

func TestParseHeaderMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    HeaderMode
		wantErr bool
	}{
		{"", HeaderAuto, false},
		{"auto", HeaderAuto, false},
		{"true", HeaderAlways, false},
		{"ALWAYS", HeaderAlways, false},
		{"false", HeaderNever, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := ParseHeaderMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseHeaderMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseHeaderMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
