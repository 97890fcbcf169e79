package monitor

import "github.com/tinytelemetry/httpmon/internal/model"

// Aggregator computes window figures over a BucketStore. Both queries are
// pure reads.
type Aggregator struct {
	store *BucketStore
}

// NewAggregator creates an aggregator reading from store.
func NewAggregator(store *BucketStore) *Aggregator {
	return &Aggregator{store: store}
}

// Load returns the number of records in the window ending at asOf.
func (a *Aggregator) Load(asOf, window int64) int {
	load := 0
	a.store.Scan(asOf, window, func(_ int64, records []model.Record) {
		load += len(records)
	})
	return load
}

// Metrics aggregates the window ending at asOf into a snapshot covering
// [asOf-window, asOf].
func (a *Aggregator) Metrics(asOf, window int64) model.MetricsSnapshot {
	snap := model.NewMetricsSnapshot(asOf-window, asOf)
	a.store.Scan(asOf, window, func(_ int64, records []model.Record) {
		snap.TotalRequests += len(records)
		for _, r := range records {
			snap.TotalBytes += r.Bytes
			if r.Outbound() {
				snap.OutboundBytes += r.Bytes
			} else {
				snap.InboundBytes += r.Bytes
			}
			snap.PerMethod[r.Method]++
			snap.PerSection[r.Section]++
			snap.PerRemote[r.Remote]++
			snap.PerStatus[r.Status]++
		}
	})
	return snap
}
