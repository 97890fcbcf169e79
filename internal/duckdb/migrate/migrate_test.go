package migrate

import (
	"database/sql"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunAppliesAllMigrations(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db)

	if err := r.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, table := range []string{"alerts", "snapshots", "schema_migrations"} {
		var name string
		err := db.QueryRow("SELECT table_name FROM information_schema.tables WHERE table_name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db)

	if err := r.Run(); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := r.Run(); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	cur, pending, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if cur != 2 || pending != 0 {
		t.Errorf("expected version=2 pending=0, got version=%d pending=%d", cur, pending)
	}
}

func TestStatusReportsPendingBeforeRun(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db)

	cur, pending, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if cur != 0 || pending != 2 {
		t.Errorf("before run: expected version=0 pending=2, got version=%d pending=%d", cur, pending)
	}
}

func TestLoadMigrationsSorted(t *testing.T) {
	migs, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	for i := 1; i < len(migs); i++ {
		if migs[i-1].version >= migs[i].version {
			t.Fatalf("migrations out of order: %s before %s", migs[i-1].name, migs[i].name)
		}
	}
}

func TestPendingListsUnappliedFiles(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db)

	names, err := r.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(names) != 2 || names[0] != "001_alerts.sql" || names[1] != "002_snapshots.sql" {
		t.Fatalf("pending = %v", names)
	}

	if err := r.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	names, err = r.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("pending after run = %v", names)
	}
}
