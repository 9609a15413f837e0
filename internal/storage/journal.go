// Package storage persists the refresh journal: one row per refresh run
// plus per-file extraction diagnostics, for the operator-facing history
// view. The ledger and flow tables themselves are deliberately never
// persisted; they are rebuilt from the data directory on every refresh.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/mkarpov/razborka/internal/model"
)

// maxRuns bounds the journal; older runs are pruned on insert.
const maxRuns = 100

// Run statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// RefreshRun is one journaled refresh.
type RefreshRun struct {
	ID           int64     `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Trigger      string    `json:"trigger"`
	FilesFound   int       `json:"files_found"`
	FilesLoaded  int       `json:"files_loaded"`
	FilesSkipped int       `json:"files_skipped"`
	Records      int       `json:"records"`
	Dates        int       `json:"dates"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
}

// Journal is a SQLite-backed refresh history.
type Journal struct {
	db *sql.DB
}

// NewJournal opens (creating if needed) the journal database.
func NewJournal(dbPath string) (*Journal, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("journal path must not be empty")
	}
	if dir := filepath.Dir(dbPath); dir != "." && !strings.HasPrefix(dbPath, ":memory:") {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	// SQLite does not benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping journal database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS refreshes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			trigger_source TEXT NOT NULL,
			files_found INTEGER NOT NULL DEFAULT 0,
			files_loaded INTEGER NOT NULL DEFAULT 0,
			files_skipped INTEGER NOT NULL DEFAULT 0,
			records INTEGER NOT NULL DEFAULT 0,
			dates INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			refresh_id INTEGER NOT NULL REFERENCES refreshes(id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			flow TEXT NOT NULL,
			rows_kept INTEGER NOT NULL DEFAULT 0,
			dropped_no_date INTEGER NOT NULL DEFAULT 0,
			dropped_bad_qty INTEGER NOT NULL DEFAULT 0,
			positional_columns TEXT NOT NULL DEFAULT '[]',
			error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_files_refresh ON refresh_files(refresh_id)`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate journal schema: %w", err)
		}
	}
	return nil
}

// Record journals one refresh run with its per-file diagnostics and
// prunes runs beyond the retention cap. Sets run.ID on success.
func (j *Journal) Record(ctx context.Context, run *RefreshRun, files []model.FileDiagnostics) error {
	if run == nil {
		return fmt.Errorf("run must not be nil")
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin journal transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO refreshes (started_at, finished_at, trigger_source,
			files_found, files_loaded, files_skipped, records, dates, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt, run.FinishedAt, run.Trigger,
		run.FilesFound, run.FilesLoaded, run.FilesSkipped,
		run.Records, run.Dates, run.Status, run.Error)
	if err != nil {
		return fmt.Errorf("failed to insert refresh run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read refresh run id: %w", err)
	}
	run.ID = id

	for _, f := range files {
		cols, err := json.Marshal(f.PositionalColumns)
		if err != nil {
			cols = []byte("[]")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO refresh_files (refresh_id, path, flow, rows_kept,
				dropped_no_date, dropped_bad_qty, positional_columns, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, f.Path, string(f.Flow), f.RowsKept,
			f.DroppedNoDate, f.DroppedBadQty, string(cols), f.Err); err != nil {
			return fmt.Errorf("failed to insert file diagnostics: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM refreshes WHERE id NOT IN (
			SELECT id FROM refreshes ORDER BY id DESC LIMIT ?)`, maxRuns); err != nil {
		return fmt.Errorf("failed to prune journal: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM refresh_files WHERE refresh_id NOT IN (SELECT id FROM refreshes)`); err != nil {
		return fmt.Errorf("failed to prune file diagnostics: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit journal transaction: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (j *Journal) List(ctx context.Context, limit int) ([]RefreshRun, error) {
	if limit <= 0 || limit > maxRuns {
		limit = maxRuns
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, trigger_source,
			files_found, files_loaded, files_skipped, records, dates, status, error
		 FROM refreshes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RefreshRun
	for rows.Next() {
		var r RefreshRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Trigger,
			&r.FilesFound, &r.FilesLoaded, &r.FilesSkipped,
			&r.Records, &r.Dates, &r.Status, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan refresh run: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate refresh runs: %w", err)
	}
	return out, nil
}

// Files returns the diagnostics journaled for one refresh run.
func (j *Journal) Files(ctx context.Context, refreshID int64) ([]model.FileDiagnostics, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT path, flow, rows_kept, dropped_no_date, dropped_bad_qty,
			positional_columns, error
		 FROM refresh_files WHERE refresh_id = ? ORDER BY id`, refreshID)
	if err != nil {
		return nil, fmt.Errorf("failed to query file diagnostics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.FileDiagnostics
	for rows.Next() {
		var f model.FileDiagnostics
		var flow, cols string
		if err := rows.Scan(&f.Path, &flow, &f.RowsKept,
			&f.DroppedNoDate, &f.DroppedBadQty, &cols, &f.Err); err != nil {
			return nil, fmt.Errorf("failed to scan file diagnostics: %w", err)
		}
		f.Flow = model.FlowType(flow)
		if err := json.Unmarshal([]byte(cols), &f.PositionalColumns); err != nil {
			f.PositionalColumns = nil
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate file diagnostics: %w", err)
	}
	return out, nil
}
