// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists a ledger of conversion attempts in SQLite and
// exports it as YAML or JSON.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdf2docx/pkg/types"
)

const (
	// defaultLimit bounds List when the caller passes a non-positive limit.
	defaultLimit = 20

	// timeLayout is fixed-width so stored timestamps sort chronologically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Record is one conversion attempt.
type Record struct {
	ID         string                 `json:"id" yaml:"id"`
	InputPath  string                 `json:"input" yaml:"input"`
	OutputPath string                 `json:"output" yaml:"output"`
	Backend    string                 `json:"backend" yaml:"backend"`
	Status     types.ConversionStatus `json:"status" yaml:"status"`
	Error      string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Bytes      int64                  `json:"bytes" yaml:"bytes"`
	StartedAt  time.Time              `json:"started_at" yaml:"started_at"`
	Duration   time.Duration          `json:"duration" yaml:"duration"`
}

// Store manages the history SQLite database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns ~/.local/state/pdf2docx/history.db, or a path in the
// working directory when the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".pdf2docx", "history.db")
	}
	return filepath.Join(home, ".local", "state", "pdf2docx", "history.db")
}

// Open opens or creates the database at path, creating its directory and
// schema when missing.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id TEXT PRIMARY KEY,
			input_path TEXT NOT NULL,
			output_path TEXT NOT NULL,
			backend TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			bytes INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_started_at ON conversions(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts r, assigning an ID when r.ID is empty, and returns the
// stored record.
func (s *Store) Record(ctx context.Context, r Record) (Record, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	r.StartedAt = r.StartedAt.UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (id, input_path, output_path, backend, status, error, bytes, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.InputPath, r.OutputPath, r.Backend, string(r.Status), r.Error, r.Bytes,
		r.StartedAt.Format(timeLayout), r.Duration.Milliseconds(),
	)
	if err != nil {
		return Record{}, fmt.Errorf("recording conversion of %s: %w", r.InputPath, err)
	}
	return r, nil
}

// List returns up to limit records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_path, output_path, backend, status, COALESCE(error, ''), bytes, started_at, duration_ms
		 FROM conversions ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r          Record
			status     string
			startedAt  string
			durationMS int64
		)
		if err := rows.Scan(&r.ID, &r.InputPath, &r.OutputPath, &r.Backend, &status,
			&r.Error, &r.Bytes, &startedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		r.Status = types.ConversionStatus(status)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		if r.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at of %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
