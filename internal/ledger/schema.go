package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS batches (
    id TEXT PRIMARY KEY,          -- uuid
    template_path TEXT NOT NULL,
    out_root TEXT NOT NULL,
    runs INTEGER NOT NULL,
    base_seed INTEGER NOT NULL,
    style TEXT NOT NULL,          -- 'simple' | 'loop-random-xy'
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
    batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
    run_index INTEGER NOT NULL,   -- 1-based ordinal
    run_id TEXT NOT NULL,         -- zero-padded identifier, e.g. run_01
    seed INTEGER NOT NULL,
    x_pos REAL,
    y_pos REAL,
    dir TEXT NOT NULL,
    status TEXT NOT NULL,         -- 'planned' | 'materialized' | 'ok' | 'failed'
    exit_code INTEGER,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (batch_id, run_index)
);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);

CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER PRIMARY KEY
);
`

// InitSchema creates the ledger tables if they do not exist and records the
// schema version.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("creating ledger schema: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_info (version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return nil
}
