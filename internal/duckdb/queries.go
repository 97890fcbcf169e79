package duckdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tinytelemetry/httpmon/internal/model"
)

// DefaultQueryLimit caps list queries when the caller passes limit <= 0.
const DefaultQueryLimit = 100

// queryCtx returns a context with the store's configured query timeout.
func (s *Store) queryCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.QueryTimeout)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultQueryLimit
	}
	return limit
}

// RecentAlerts returns the most recent alert transitions, newest first.
func (s *Store) RecentAlerts(limit int) ([]AlertRecord, error) {
	ctx, cancel := s.queryCtx()
	defer cancel()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, window_load, logical_time, recorded_at
		FROM alerts
		ORDER BY seq DESC
		LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []AlertRecord
	for rows.Next() {
		var r AlertRecord
		if err := rows.Scan(&r.Kind, &r.Load, &r.At, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecentSnapshots returns the most recent snapshots, newest first.
func (s *Store) RecentSnapshots(limit int) ([]SnapshotRecord, error) {
	ctx, cancel := s.queryCtx()
	defer cancel()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT window_from, window_to, total_requests, total_bytes, inbound_bytes, outbound_bytes,
			per_method, per_section, per_remote, per_status, recorded_at
		FROM snapshots
		ORDER BY seq DESC
		LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotRecord
	for rows.Next() {
		var (
			from, to                      int64
			total, bytes, inbound, outbnd int64
			method, section, remote, stat string
			recordedAt                    time.Time
		)
		if err := rows.Scan(&from, &to, &total, &bytes, &inbound, &outbnd,
			&method, &section, &remote, &stat, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}

		snap := model.NewMetricsSnapshot(from, to)
		snap.TotalRequests = int(total)
		snap.TotalBytes = uint64(bytes)
		snap.InboundBytes = uint64(inbound)
		snap.OutboundBytes = uint64(outbnd)
		for _, t := range []struct {
			raw  string
			dest map[string]int64
		}{
			{method, snap.PerMethod},
			{section, snap.PerSection},
			{remote, snap.PerRemote},
			{stat, snap.PerStatus},
		} {
			if err := decodeTable(t.raw, t.dest); err != nil {
				return nil, err
			}
		}
		out = append(out, SnapshotRecord{MetricsSnapshot: snap, RecordedAt: recordedAt})
	}
	return out, rows.Err()
}

// EventCounts returns how many events of each type are stored.
func (s *Store) EventCounts() (map[string]int64, error) {
	ctx, cancel := s.queryCtx()
	defer cancel()

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[string]int64{
		model.EventAlertRaised:     0,
		model.EventAlertCleared:    0,
		model.EventMetricsSnapshot: 0,
	}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM alerts GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count alerts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan alert count: %w", err)
		}
		counts[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var snaps int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&snaps); err != nil {
		return nil, fmt.Errorf("count snapshots: %w", err)
	}
	counts[model.EventMetricsSnapshot] = snaps
	return counts, nil
}

func decodeTable(raw string, dest map[string]int64) error {
	if raw == "" || raw == "{}" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &dest); err != nil {
		return fmt.Errorf("decode frequency table: %w", err)
	}
	return nil
}
