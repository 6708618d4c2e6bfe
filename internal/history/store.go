// Package history persists completed audit runs to a local SQLite database
// so past results can be listed and re-exported without re-running the
// pipeline.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dusk-indust/rfpaudit/internal/audit"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	document_ref TEXT NOT NULL,
	status       TEXT NOT NULL,
	corrections  INTEGER NOT NULL,
	failures     INTEGER NOT NULL,
	completed_at TEXT NOT NULL,
	result_json  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_runs_ref ON audit_runs(document_ref);
`

// RunSummary is one row of the run history.
type RunSummary struct {
	ID          int64     `json:"id"`
	DocumentRef string    `json:"document_ref"`
	Status      string    `json:"status"`
	Corrections int       `json:"corrections"`
	Failures    int       `json:"failures"`
	CompletedAt time.Time `json:"completed_at"`
}

// Store is a SQLite-backed audit run history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun records a completed run with its serialized result.
func (s *Store) SaveRun(ctx context.Context, result *audit.DocumentAuditResult) (int64, error) {
	blob, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("history: marshal result: %w", err)
	}

	status := "completed"
	if len(result.StageFailures) > 0 {
		status = "degraded"
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_runs (document_ref, status, corrections, failures, completed_at, result_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		result.SourceDocumentRef, status, len(result.Corrections), len(result.StageFailures),
		time.Now().UTC().Format(time.RFC3339), string(blob),
	)
	if err != nil {
		return 0, fmt.Errorf("history: insert run: %w", err)
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_ref, status, corrections, failures, completed_at
		 FROM audit_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var completed string
		if err := rows.Scan(&r.ID, &r.DocumentRef, &r.Status, &r.Corrections, &r.Failures, &completed); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		r.CompletedAt, _ = time.Parse(time.RFC3339, completed)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetResult loads the stored result for a run id.
func (s *Store) GetResult(ctx context.Context, id int64) (*audit.DocumentAuditResult, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT result_json FROM audit_runs WHERE id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("history: no run with id %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("history: load run %d: %w", id, err)
	}

	var result audit.DocumentAuditResult
	if err := json.Unmarshal([]byte(blob), &result); err != nil {
		return nil, fmt.Errorf("history: unmarshal run %d: %w", id, err)
	}
	return &result, nil
}

// Prune deletes all but the newest keep runs. Returns the number removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM audit_runs WHERE id NOT IN (
			SELECT id FROM audit_runs ORDER BY id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	return res.RowsAffected()
}
