// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checkpoint persists batch runs in SQLite: one row per run with
// its budget ledger, the outcome of every processed reference, and the
// validation results behind each outcome. A run can be resumed by ID and
// exported as YAML or JSON.
package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath is where the CLI keeps the checkpoint database.
const DefaultPath = ".refresolve/checkpoint.db"

// Run statuses.
const (
	StatusRunning        = "running"
	StatusCompleted      = "completed"
	StatusBudgetExceeded = "budget_exceeded"
	StatusInterrupted    = "interrupted"
)

// ErrUnknownRun is returned when a run ID is not in the database.
var ErrUnknownRun = errors.New("unknown checkpoint run")

// timeFmt is fixed width so stored timestamps sort as text.
const timeFmt = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the checkpoint SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the checkpoint database at path and creates the
// schema if it does not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating checkpoint directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
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
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			batch TEXT NOT NULL,
			source TEXT,
			budget REAL NOT NULL DEFAULT 0,
			spent REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			ref_id TEXT NOT NULL,
			primary_url TEXT,
			secondary_url TEXT,
			tertiary_url TEXT,
			flags TEXT,
			review_reason TEXT,
			candidates INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			processed_at TEXT NOT NULL,
			seq INTEGER NOT NULL,
			PRIMARY KEY (run_id, ref_id)
		)`,
		`CREATE TABLE IF NOT EXISTS validations (
			run_id TEXT NOT NULL,
			ref_id TEXT NOT NULL,
			url TEXT NOT NULL,
			accessible INTEGER NOT NULL,
			score INTEGER NOT NULL,
			reason TEXT,
			barriers TEXT,
			matched INTEGER NOT NULL DEFAULT 0,
			confidence REAL NOT NULL DEFAULT 0,
			status_code INTEGER,
			final_url TEXT,
			PRIMARY KEY (run_id, ref_id, url),
			FOREIGN KEY (run_id, ref_id) REFERENCES outcomes(run_id, ref_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id, seq)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RunInfo describes one batch run.
type RunInfo struct {
	ID         string    `json:"id" yaml:"id"`
	Batch      string    `json:"batch" yaml:"batch"`
	Source     string    `json:"source,omitempty" yaml:"source,omitempty"`
	Budget     float64   `json:"budget" yaml:"budget"`
	Spent      float64   `json:"spent" yaml:"spent"`
	Status     string    `json:"status" yaml:"status"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero" yaml:"finished_at,omitempty"`
}

// StartRun creates a new run with a fresh UUID.
func (s *Store) StartRun(ctx context.Context, batch, source string, budget float64) (*Run, error) {
	info := RunInfo{
		ID:        uuid.NewString(),
		Batch:     batch,
		Source:    source,
		Budget:    budget,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, batch, source, budget, spent, status, started_at) VALUES (?, ?, ?, ?, 0, ?, ?)`,
		info.ID, info.Batch, info.Source, info.Budget, info.Status, info.StartedAt.Format(timeFmt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return &Run{store: s, info: info}, nil
}

// ResumeRun reopens an existing run and marks it running again. Its spent
// cost carries over.
func (s *Store) ResumeRun(ctx context.Context, id string) (*Run, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("run id %q: %w", id, ErrUnknownRun)
	}
	info, err := s.run(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = NULL WHERE id = ?`, StatusRunning, id,
	); err != nil {
		return nil, fmt.Errorf("reopening run: %w", err)
	}
	info.Status = StatusRunning
	info.FinishedAt = time.Time{}
	return &Run{store: s, info: info}, nil
}

func (s *Store) run(ctx context.Context, id string) (RunInfo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, batch, source, budget, spent, status, started_at, finished_at FROM runs WHERE id = ?`, id)
	info, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunInfo{}, fmt.Errorf("run %s: %w", id, ErrUnknownRun)
	}
	return info, err
}

// Runs lists all runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, batch, source, budget, spent, status, started_at, finished_at FROM runs ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunInfo, error) {
	var (
		info             RunInfo
		source, finished sql.NullString
		started          string
	)
	if err := sc.Scan(&info.ID, &info.Batch, &source, &info.Budget, &info.Spent, &info.Status, &started, &finished); err != nil {
		return RunInfo{}, err
	}
	info.Source = source.String
	info.StartedAt, _ = time.Parse(timeFmt, started)
	if finished.Valid {
		info.FinishedAt, _ = time.Parse(timeFmt, finished.String)
	}
	return info, nil
}

// Run is an open batch run. Its methods are safe to call from one
// goroutine at a time; the resolver records references sequentially.
type Run struct {
	store *Store
	info  RunInfo
}

// ID returns the run's UUID.
func (r *Run) ID() string { return r.info.ID }

// Info returns the run metadata as of the last update.
func (r *Run) Info() RunInfo { return r.info }

// SetSpent stores the budget units spent so far.
func (r *Run) SetSpent(ctx context.Context, spent float64) error {
	if _, err := r.store.db.ExecContext(ctx, `UPDATE runs SET spent = ? WHERE id = ?`, spent, r.info.ID); err != nil {
		return fmt.Errorf("updating spent: %w", err)
	}
	r.info.Spent = spent
	return nil
}

// Finish records the final status of the run.
func (r *Run) Finish(ctx context.Context, status string) error {
	now := time.Now().UTC()
	if _, err := r.store.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`, status, now.Format(timeFmt), r.info.ID,
	); err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	r.info.Status = status
	r.info.FinishedAt = now
	return nil
}
