// Package history keeps a local SQLite index of pipeline runs so repeated
// invocations against the same repository can be reviewed later.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded pipeline run.
type Run struct {
	RunID        string    `json:"run_id"`
	Repo         string    `json:"repo"`
	Issue        string    `json:"issue"`
	Applied      int       `json:"applied"`
	Total        int       `json:"total"`
	Confidence   float64   `json:"confidence"`
	BestReviewer string    `json:"best_reviewer,omitempty"`
	OutputDir    string    `json:"output_dir"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Store is the SQLite-backed run index.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, initializing the schema.
func Open(path string) (*Store, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" {
		return nil, errors.New("missing history db path")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return fmt.Errorf("pragma journal_mode: %w", err)
	}
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  run_id        TEXT PRIMARY KEY,
  repo          TEXT NOT NULL,
  issue         TEXT NOT NULL,
  applied       INTEGER NOT NULL,
  total         INTEGER NOT NULL,
  confidence    REAL NOT NULL DEFAULT 0,
  best_reviewer TEXT NOT NULL DEFAULT '',
  output_dir    TEXT NOT NULL DEFAULT '',
  started_at    INTEGER NOT NULL,
  finished_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_repo_issue ON runs (repo, issue, finished_at DESC);
`)
	return err
}

// Record inserts one finished run.
func (s *Store) Record(ctx context.Context, run Run) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialized")
	}
	if strings.TrimSpace(run.RunID) == "" {
		return errors.New("missing run_id")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (run_id, repo, issue, applied, total, confidence, best_reviewer, output_dir, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Repo, run.Issue, run.Applied, run.Total, run.Confidence,
		run.BestReviewer, run.OutputDir, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// List returns the most recent runs for a repo/issue pair; empty issue means
// every issue in the repo.
func (s *Store) List(ctx context.Context, repo, issue string, limit int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
SELECT run_id, repo, issue, applied, total, confidence, best_reviewer, output_dir, started_at, finished_at
FROM runs WHERE repo = ?`
	args := []any{repo}
	if strings.TrimSpace(issue) != "" {
		query += ` AND issue = ?`
		args = append(args, issue)
	}
	query += ` ORDER BY finished_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.RunID, &r.Repo, &r.Issue, &r.Applied, &r.Total,
			&r.Confidence, &r.BestReviewer, &r.OutputDir, &started, &finished); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		r.FinishedAt = time.UnixMilli(finished).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
