package ops

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// SQLiteStore backs the ops store with an embedded SQLite file, the
// default for local/dev runs (spec's OpsStoreConfig.Type == "sqlite").
type SQLiteStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

func NewSQLiteStore(path string, logger *logrus.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create ops store directory: %w", err)
		}
	}
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("connect to ops sqlite: %w", err)
	}
	db.Exec("PRAGMA journal_mode = WAL")

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init ops schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	profile TEXT NOT NULL,
	delta INTEGER NOT NULL DEFAULT 0,
	subpath TEXT,
	status TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	finished_at DATETIME,
	current_stage TEXT,
	stages_completed INTEGER NOT NULL DEFAULT 0,
	total_stages INTEGER NOT NULL DEFAULT 0,
	percent_complete REAL NOT NULL DEFAULT 0,
	progress_json TEXT,
	error TEXT,
	result_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

CREATE TABLE IF NOT EXISTS validation_runs (
	id TEXT PRIMARY KEY,
	check_name TEXT NOT NULL,
	ran_at DATETIME NOT NULL,
	passed INTEGER NOT NULL,
	detail_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_validation_runs_ran_at ON validation_runs(ran_at);
`)
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) SaveJob(ctx context.Context, job *Job) error {
	_, err := s.db.NamedExecContext(ctx, `
INSERT INTO jobs (id, profile, delta, subpath, status, started_at, updated_at, finished_at,
	current_stage, stages_completed, total_stages, percent_complete, progress_json, error, result_json)
VALUES (:id, :profile, :delta, :subpath, :status, :started_at, :updated_at, :finished_at,
	:current_stage, :stages_completed, :total_stages, :percent_complete, :progress_json, :error, :result_json)
ON CONFLICT(id) DO UPDATE SET
	status = excluded.status, updated_at = excluded.updated_at, finished_at = excluded.finished_at,
	current_stage = excluded.current_stage, stages_completed = excluded.stages_completed,
	total_stages = excluded.total_stages, percent_complete = excluded.percent_complete,
	progress_json = excluded.progress_json, error = excluded.error, result_json = excluded.result_json
`, job)
	return err
}

func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*Job, error) {
	var job Job
	err := s.db.GetContext(ctx, &job, `SELECT * FROM jobs WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (s *SQLiteStore) GetRunningJob(ctx context.Context) (*Job, error) {
	var job Job
	err := s.db.GetContext(ctx, &job, `SELECT * FROM jobs WHERE status = 'running' ORDER BY started_at DESC LIMIT 1`)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (s *SQLiteStore) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	var jobs []*Job
	err := s.db.SelectContext(ctx, &jobs, `SELECT * FROM jobs ORDER BY started_at DESC LIMIT ?`, limit)
	return jobs, err
}

func (s *SQLiteStore) SaveValidationRun(ctx context.Context, run *ValidationRun) error {
	_, err := s.db.NamedExecContext(ctx, `
INSERT INTO validation_runs (id, check_name, ran_at, passed, detail_json)
VALUES (:id, :check_name, :ran_at, :passed, :detail_json)
`, run)
	return err
}

func (s *SQLiteStore) ListValidationRuns(ctx context.Context, limit int) ([]*ValidationRun, error) {
	var runs []*ValidationRun
	err := s.db.SelectContext(ctx, &runs, `SELECT * FROM validation_runs ORDER BY ran_at DESC LIMIT ?`, limit)
	return runs, err
}
