package logparse

import (
	"errors"
	"strings"
)

// ErrMalformedRequest is returned when a request line has no METHOD PATH structure.
var ErrMalformedRequest = errors.New("malformed request line")

// Request is the parsed form of an HTTP request line such as
// "GET /api/user HTTP/1.0".
type Request struct {
	Method   string
	Path     string
	Section  string
	Protocol string
}

// ParseRequestLine splits a request line into method, path and protocol and
// derives the section from the path.
func ParseRequestLine(line string) (Request, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Request{}, ErrMalformedRequest
	}

	method := strings.ToUpper(fields[0])
	if !isToken(method) {
		return Request{}, ErrMalformedRequest
	}

	path := stripAuthority(fields[1])
	if !strings.HasPrefix(path, "/") {
		return Request{}, ErrMalformedRequest
	}

	req := Request{
		Method:  method,
		Path:    path,
		Section: Section(path),
	}
	if len(fields) > 2 {
		req.Protocol = fields[2]
	}
	return req, nil
}

// Section returns the first segment of an absolute path with its leading
// slash: "/api/user" -> "/api", "/" -> "/". Query strings and fragments are
// ignored.
func Section(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	rest := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return "/" + rest
}

// stripAuthority turns an absolute-form target ("http://host/a/b") into its path.
func stripAuthority(target string) string {
	i := strings.Index(target, "://")
	if i < 0 {
		return target
	}
	rest := target[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		return rest[j:]
	}
	return "/"
}

func isToken(s string) bool {
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return s != ""
}
