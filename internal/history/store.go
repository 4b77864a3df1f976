// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a SQLite record of directory conversion runs so
// that past reports can be listed, inspected, and exported.
package history

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

	"github.com/pdiddy/officeconv/internal/convert"
	"github.com/pdiddy/officeconv/pkg/types"
)

const (
	defaultListLimit = 20

	// timeLayout is fixed width so that stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var (
	// ErrRunNotFound is returned by Get when no run matches the ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrAmbiguousID is returned by Get when an ID prefix matches more than
	// one run.
	ErrAmbiguousID = errors.New("run id prefix is ambiguous")
)

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path, creating its parent
// directory and schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
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
			mode TEXT NOT NULL,
			dir TEXT NOT NULL,
			output_dir TEXT,
			recursive INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			success_count INTEGER NOT NULL,
			fail_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_files (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			input TEXT NOT NULL,
			output TEXT,
			status TEXT NOT NULL,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_files_run_id ON run_files(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// NewRun builds a record of a finished walk. Files are listed in the order
// the walk recorded them.
func NewRun(mode types.Mode, dir string, opts convert.Options, started, finished time.Time, res *convert.Result) types.RunRecord {
	run := types.RunRecord{
		Mode:         mode,
		Dir:          dir,
		OutputDir:    opts.OutputDir,
		Recursive:    opts.Recursive,
		StartedAt:    started.UTC(),
		FinishedAt:   finished.UTC(),
		SuccessCount: res.SuccessCount,
		FailCount:    res.FailCount,
	}
	for _, e := range res.Entries {
		f := types.FileRecord{Input: e.Input, Output: e.Output, Status: types.FileConverted}
		if e.Err != nil {
			f.Status = types.FileFailed
			f.Error = e.Err.Error()
		}
		run.Files = append(run.Files, f)
	}
	// A failure recorded twice keeps only its latest message in the result.
	for i, f := range run.Files {
		if f.Status == types.FileFailed {
			if msg, ok := res.FailureFor(f.Input); ok {
				run.Files[i].Error = msg
			}
		}
	}
	return run
}

// Record stores run and its files in one transaction and returns the run
// ID. A UUID is assigned when run.ID is empty.
func (s *Store) Record(ctx context.Context, run types.RunRecord) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, mode, dir, output_dir, recursive, started_at, finished_at, success_count, fail_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Mode), run.Dir, run.OutputDir, run.Recursive,
		run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout),
		run.SuccessCount, run.FailCount,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_files (run_id, input, output, status, error) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range run.Files {
		if _, err := stmt.ExecContext(ctx, run.ID, f.Input, f.Output, string(f.Status), f.Error); err != nil {
			return "", fmt.Errorf("inserting file %s: %w", f.Input, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return run.ID, nil
}

// List returns the most recent runs, newest first, without their files.
// A limit of zero or less uses the default of 20.
func (s *Store) List(ctx context.Context, limit int) ([]types.RunRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.list(ctx, limit)
}

// list returns runs newest first. A negative limit returns every run.
func (s *Store) list(ctx context.Context, limit int) ([]types.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, dir, output_dir, recursive, started_at, finished_at, success_count, fail_count
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns the run whose ID equals id or starts with it, including its
// files. The prefix is compared literally.
func (s *Store) Get(ctx context.Context, id string) (types.RunRecord, error) {
	if id == "" {
		return types.RunRecord{}, ErrRunNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, dir, output_dir, recursive, started_at, finished_at, success_count, fail_count
		 FROM runs WHERE substr(id, 1, length(?)) = ? ORDER BY id LIMIT 2`, id, id)
	if err != nil {
		return types.RunRecord{}, fmt.Errorf("querying run: %w", err)
	}

	var matches []types.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return types.RunRecord{}, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return types.RunRecord{}, err
	}
	rows.Close()

	var run types.RunRecord
	switch len(matches) {
	case 0:
		return types.RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		run = matches[0]
	default:
		if matches[0].ID != id {
			return types.RunRecord{}, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
		}
		run = matches[0]
	}

	files, err := s.files(ctx, run.ID)
	if err != nil {
		return types.RunRecord{}, err
	}
	run.Files = files
	return run, nil
}

func (s *Store) files(ctx context.Context, runID string) ([]types.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT input, COALESCE(output, ''), status, COALESCE(error, '')
		 FROM run_files WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying files for run %s: %w", runID, err)
	}
	defer rows.Close()

	var files []types.FileRecord
	for rows.Next() {
		var (
			f      types.FileRecord
			status string
		)
		if err := rows.Scan(&f.Input, &f.Output, &status, &f.Error); err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		f.Status = types.FileStatus(status)
		files = append(files, f)
	}
	return files, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (types.RunRecord, error) {
	var (
		run               types.RunRecord
		mode              string
		outputDir         sql.NullString
		started, finished string
	)
	if err := row.Scan(&run.ID, &mode, &run.Dir, &outputDir, &run.Recursive,
		&started, &finished, &run.SuccessCount, &run.FailCount); err != nil {
		return types.RunRecord{}, fmt.Errorf("scanning run row: %w", err)
	}
	run.Mode = types.Mode(mode)
	run.OutputDir = outputDir.String

	var err error
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return types.RunRecord{}, fmt.Errorf("parsing started_at of run %s: %w", run.ID, err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return types.RunRecord{}, fmt.Errorf("parsing finished_at of run %s: %w", run.ID, err)
	}
	return run, nil
}
