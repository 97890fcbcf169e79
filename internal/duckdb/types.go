package duckdb

import "github.com/tinytelemetry/httpmon/internal/model"

// Type aliases re-export model types so callers of the store do not need
// to import model for method signatures.
type AlertRecord = model.AlertRecord
type SnapshotRecord = model.SnapshotRecord
type HistoryReader = model.HistoryReader
type HistoryWriter = model.HistoryWriter

var (
	_ HistoryReader = (*Store)(nil)
	_ HistoryWriter = (*Store)(nil)
)
