// Package ledger keeps a queryable registry of generated batches and their
// runs in a SQLite database under the batch output root. The generate
// command inserts rows, the invoker updates run status, and the runs
// command lists them.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DBName is the ledger filename inside the output root.
const DBName = "lmpens.db"

// Run statuses.
const (
	StatusPlanned      = "planned"
	StatusMaterialized = "materialized"
	StatusOK           = "ok"
	StatusFailed       = "failed"
)

// Ledger wraps the SQLite handle.
type Ledger struct {
	db   *sql.DB
	path string
}

// Batch is one ledger batch row.
type Batch struct {
	ID           string
	TemplatePath string
	OutRoot      string
	Runs         int
	BaseSeed     int64
	Style        string
	CreatedAt    time.Time
}

// Run is one ledger run row. ExitCode is only valid once Status is ok or
// failed.
type Run struct {
	BatchID  string
	Index    int
	RunID    string
	Seed     int64
	X        float64
	Y        float64
	Dir      string
	Status   string
	ExitCode sql.NullInt64
}

// Open opens (creating if needed) the ledger at dir/lmpens.db.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output root %s: %w", dir, err)
	}
	path := filepath.Join(dir, DBName)
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return &Ledger{db: db, path: path}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// CreateBatch inserts a batch row.
func (l *Ledger) CreateBatch(ctx context.Context, b Batch) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO batches (id, template_path, out_root, runs, base_seed, style, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.TemplatePath, b.OutRoot, b.Runs, b.BaseSeed, b.Style,
		b.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording batch %s: %w", b.ID, err)
	}
	return nil
}

// RecordRun upserts a run row. Re-materializing a run index replaces its
// previous row, matching the materializer's overwrite semantics.
func (l *Ledger) RecordRun(ctx context.Context, r Run) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (batch_id, run_index, run_id, seed, x_pos, y_pos, dir, status, exit_code, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)
		 ON CONFLICT(batch_id, run_index) DO UPDATE SET
		   run_id = excluded.run_id,
		   seed = excluded.seed,
		   x_pos = excluded.x_pos,
		   y_pos = excluded.y_pos,
		   dir = excluded.dir,
		   status = excluded.status,
		   exit_code = NULL,
		   updated_at = excluded.updated_at`,
		r.BatchID, r.Index, r.RunID, r.Seed, r.X, r.Y, r.Dir, r.Status,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.RunID, err)
	}
	return nil
}

// UpdateRunStatus sets the outcome of one run's invocation.
func (l *Ledger) UpdateRunStatus(ctx context.Context, batchID string, index int, status string, exitCode int) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, exit_code = ?, updated_at = ? WHERE batch_id = ? AND run_index = ?`,
		status, exitCode, time.Now().UTC().Format(time.RFC3339Nano), batchID, index)
	if err != nil {
		return fmt.Errorf("updating run %d of batch %s: %w", index, batchID, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("run %d of batch %s not found in ledger", index, batchID)
	}
	return nil
}

// ListBatches returns all batches, newest first.
func (l *Ledger) ListBatches(ctx context.Context) ([]Batch, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, template_path, out_root, runs, base_seed, style, created_at
		 FROM batches ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		var created string
		if err := rows.Scan(&b.ID, &b.TemplatePath, &b.OutRoot, &b.Runs, &b.BaseSeed, &b.Style, &created); err != nil {
			return nil, fmt.Errorf("scanning batch row: %w", err)
		}
		b.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// ListRuns returns the runs of one batch in index order.
func (l *Ledger) ListRuns(ctx context.Context, batchID string) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT batch_id, run_index, run_id, seed, x_pos, y_pos, dir, status, exit_code
		 FROM runs WHERE batch_id = ? ORDER BY run_index`, batchID)
	if err != nil {
		return nil, fmt.Errorf("listing runs of batch %s: %w", batchID, err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var x, y sql.NullFloat64
		if err := rows.Scan(&r.BatchID, &r.Index, &r.RunID, &r.Seed, &x, &y, &r.Dir, &r.Status, &r.ExitCode); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		r.X, r.Y = x.Float64, y.Float64
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
