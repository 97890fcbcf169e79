package migrate

import (
	"cmp"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"path"
	"slices"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrations embed.FS

const bootstrapSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       VARCHAR NOT NULL,
	applied_at TIMESTAMP DEFAULT current_timestamp
)`

// Runner applies the embedded history schema, one NNN_name.sql file per
// version, in version order.
type Runner struct{ db *sql.DB }

// NewRunner creates a migration runner for the given database connection.
func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

type migration struct {
	version int
	name    string
	sql     string
}

func loadMigrations() ([]migration, error) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("reading embedded migrations: %w", err)
	}

	migs := make([]migration, 0, len(names))
	seen := make(map[int]string, len(names))
	for _, full := range names {
		name := path.Base(full)
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		ver, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("parsing version from %s: %w", name, err)
		}
		if other, dup := seen[ver]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %d", other, name, ver)
		}
		seen[ver] = name

		data, err := migrations.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		migs = append(migs, migration{version: ver, name: name, sql: string(data)})
	}

	slices.SortFunc(migs, func(a, b migration) int { return cmp.Compare(a.version, b.version) })
	return migs, nil
}

// state bootstraps the bookkeeping table and returns the applied version
// together with the migrations still to run.
func (r *Runner) state(ctx context.Context) (int, []migration, error) {
	if _, err := r.db.ExecContext(ctx, bootstrapSQL); err != nil {
		return 0, nil, fmt.Errorf("bootstrap schema_migrations: %w", err)
	}

	var v sql.NullInt64
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return 0, nil, fmt.Errorf("reading applied version: %w", err)
	}
	current := int(v.Int64)

	migs, err := loadMigrations()
	if err != nil {
		return 0, nil, err
	}
	pending := slices.DeleteFunc(migs, func(m migration) bool { return m.version <= current })
	return current, pending, nil
}

// Run applies all pending migrations.
func (r *Runner) Run() error {
	return r.RunContext(context.Background())
}

// RunContext applies every pending migration in its own transaction and
// records it in schema_migrations.
func (r *Runner) RunContext(ctx context.Context) error {
	_, pending, err := r.state(ctx)
	if err != nil {
		return err
	}
	for _, m := range pending {
		if err := r.apply(ctx, m); err != nil {
			return err
		}
		log.Printf("duckdb: applied migration %s", m.name)
	}
	return nil
}

func (r *Runner) apply(ctx context.Context, m migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for %s: %w", m.name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("executing %s: %w", m.name, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name); err != nil {
		return fmt.Errorf("recording %s: %w", m.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", m.name, err)
	}
	return nil
}

// Status returns the applied version and the number of pending migrations.
func (r *Runner) Status() (current int, pending int, err error) {
	current, migs, err := r.state(context.Background())
	if err != nil {
		return 0, 0, err
	}
	return current, len(migs), nil
}

// Pending lists the file names of migrations not yet applied.
func (r *Runner) Pending() ([]string, error) {
	_, migs, err := r.state(context.Background())
	if err != nil {
		return nil, err
	}
	names := make([]string, len(migs))
	for i, m := range migs {
		names[i] = m.name
	}
	return names, nil
}
