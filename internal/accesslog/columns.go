package accesslog

import "strings"

// Columns holds the zero-based position of each field the monitor reads.
type Columns struct {
	Remote  int
	Date    int
	Request int
	Status  int
	Bytes   int
}

// DefaultColumns matches the W3C-style CSV export:
// "remotehost","rfc931","authuser","date","request","status","bytes".
func DefaultColumns() Columns {
	return Columns{Remote: 0, Date: 3, Request: 4, Status: 5, Bytes: 6}
}

// width is the minimum number of fields a row needs.
func (c Columns) width() int {
	return max(c.Remote, c.Date, c.Request, c.Status, c.Bytes) + 1
}

var headerAliases = map[string][]string{
	"remote":  {"remotehost", "remote", "remote_addr", "client", "ip"},
	"date":    {"date", "time", "timestamp"},
	"request": {"request"},
	"status":  {"status", "code"},
	"bytes":   {"bytes", "size", "body_bytes_sent"},
}

// columnsFromHeader maps header names to positions. It reports false when the
// row does not name at least the date and request columns.
func columnsFromHeader(fields []string, fallback Columns) (Columns, bool) {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.ToLower(strings.TrimSpace(f))
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	lookup := func(key string, def int) (int, bool) {
		for _, alias := range headerAliases[key] {
			if pos, ok := index[alias]; ok {
				return pos, true
			}
		}
		return def, false
	}

	cols := fallback
	var okDate, okRequest bool
	cols.Date, okDate = lookup("date", fallback.Date)
	cols.Request, okRequest = lookup("request", fallback.Request)
	if !okDate || !okRequest {
		return fallback, false
	}
	cols.Remote, _ = lookup("remote", fallback.Remote)
	cols.Status, _ = lookup("status", fallback.Status)
	cols.Bytes, _ = lookup("bytes", fallback.Bytes)
	return cols, true
}
