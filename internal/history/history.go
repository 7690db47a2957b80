// Package history persists analysis reports in a local SQLite
// database so earlier runs can be listed and re-read.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/OpenCircuitLab/CircuitLint/pkg/report"
)

// ErrNotFound is returned when a report id is absent from the store.
var ErrNotFound = errors.New("history entry not found")

// Store is a report ledger backed by SQLite.
type Store struct {
	conn *sql.DB
}

// Open opens or creates the history database at the given path. Parent
// directories are created as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			project_name TEXT,
			analysis_type TEXT NOT NULL,
			created_at TEXT NOT NULL,
			errors INTEGER NOT NULL,
			warnings INTEGER NOT NULL,
			infos INTEGER NOT NULL,
			body TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at DESC);
	`
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Save stores a finished report.
func (s *Store) Save(ctx context.Context, rep *report.Report) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO reports
			(id, project_name, analysis_type, created_at, errors, warnings, infos, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.ID, rep.ProjectName, rep.AnalysisType,
		rep.CreatedAt.Format(time.RFC3339), rep.Summary.Errors,
		rep.Summary.Warnings, rep.Summary.Infos, string(body))
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

// Entry is one history listing row.
type Entry struct {
	ID           string    `json:"id"`
	ProjectName  string    `json:"project_name"`
	AnalysisType string    `json:"analysis_type"`
	CreatedAt    time.Time `json:"created_at"`
	Errors       int       `json:"errors"`
	Warnings     int       `json:"warnings"`
	Infos        int       `json:"infos"`
}

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, project_name, analysis_type, created_at, errors, warnings, infos
		FROM reports ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.ProjectName, &e.AnalysisType, &created,
			&e.Errors, &e.Warnings, &e.Infos); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get loads a full report by id.
func (s *Store) Get(ctx context.Context, id string) (*report.Report, error) {
	var body string
	err := s.conn.QueryRowContext(ctx,
		`SELECT body FROM reports WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", id, err)
	}
	var rep report.Report
	if err := json.Unmarshal([]byte(body), &rep); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", id, err)
	}
	return &rep, nil
}

// Delete removes a report by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting report %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
