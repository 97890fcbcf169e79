package model

// Record is one parsed access-log entry. It is immutable once constructed.
type Record struct {
	Timestamp int64  // epoch seconds, drives the logical clock
	Remote    string // remote address
	Method    string // HTTP method, e.g. GET
	Section   string // first path segment with its leading slash, e.g. /api
	Status    string // HTTP status code as logged
	Bytes     uint64 // response size
}

// Outbound reports whether the record counts toward outbound traffic.
// GET requests are outbound, every other method is inbound.
func (r Record) Outbound() bool {
	return r.Method == "GET"
}

// DimensionCount represents one entry of a frequency table
// (a method, section, remote or status and how often it was seen).
type DimensionCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}
