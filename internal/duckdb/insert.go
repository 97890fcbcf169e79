package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
)

// InsertAlertBatch appends alert transitions in a single transaction.
func (s *Store) InsertAlertBatch(records []AlertRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := s.queryCtx()
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range records {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO alerts (kind, window_load, logical_time, recorded_at) VALUES (?, ?, ?, ?)`,
				r.Kind, r.Load, r.At, r.RecordedAt,
			); err != nil {
				return fmt.Errorf("alert insert: %w", err)
			}
		}
		return nil
	})
}

// InsertSnapshotBatch appends metrics snapshots in a single transaction.
// Frequency tables are stored as JSON objects.
func (s *Store) InsertSnapshotBatch(records []SnapshotRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := s.queryCtx()
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range records {
			tables := make([]string, 0, 4)
			for _, table := range []map[string]int64{r.PerMethod, r.PerSection, r.PerRemote, r.PerStatus} {
				tables = append(tables, encodeTable(table))
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO snapshots (window_from, window_to, total_requests, total_bytes, inbound_bytes, outbound_bytes,
					per_method, per_section, per_remote, per_status, recorded_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.From, r.To, int64(r.TotalRequests),
				int64(r.TotalBytes), int64(r.InboundBytes), int64(r.OutboundBytes),
				tables[0], tables[1], tables[2], tables[3], r.RecordedAt,
			); err != nil {
				return fmt.Errorf("snapshot insert: %w", err)
			}
		}
		return nil
	})
}

// withTx runs fn inside a transaction and commits when it returns nil.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func encodeTable(table map[string]int64) string {
	if len(table) == 0 {
		return "{}"
	}
	data, err := json.Marshal(table)
	if err != nil {
		log.Printf("duckdb: failed to marshal frequency table, using empty: %v", err)
		return "{}"
	}
	return string(data)
}
