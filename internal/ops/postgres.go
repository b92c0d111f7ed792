package ops

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// PostgresStore backs the ops store with Postgres, for multi-replica
// deployments that need a shared job registry (spec's
// OpsStoreConfig.Type == "postgres").
type PostgresStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

func NewPostgresStore(dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to ops postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &PostgresStore{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init ops schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	profile TEXT NOT NULL,
	delta BOOLEAN NOT NULL DEFAULT false,
	subpath TEXT,
	status TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	current_stage TEXT,
	stages_completed INT NOT NULL DEFAULT 0,
	total_stages INT NOT NULL DEFAULT 0,
	percent_complete DOUBLE PRECISION NOT NULL DEFAULT 0,
	progress_json TEXT,
	error TEXT,
	result_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

CREATE TABLE IF NOT EXISTS validation_runs (
	id TEXT PRIMARY KEY,
	check_name TEXT NOT NULL,
	ran_at TIMESTAMPTZ NOT NULL,
	passed BOOLEAN NOT NULL,
	detail_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_validation_runs_ran_at ON validation_runs(ran_at);
`)
	return err
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) SaveJob(ctx context.Context, job *Job) error {
	_, err := s.db.NamedExecContext(ctx, `
INSERT INTO jobs (id, profile, delta, subpath, status, started_at, updated_at, finished_at,
	current_stage, stages_completed, total_stages, percent_complete, progress_json, error, result_json)
VALUES (:id, :profile, :delta, :subpath, :status, :started_at, :updated_at, :finished_at,
	:current_stage, :stages_completed, :total_stages, :percent_complete, :progress_json, :error, :result_json)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status, updated_at = EXCLUDED.updated_at, finished_at = EXCLUDED.finished_at,
	current_stage = EXCLUDED.current_stage, stages_completed = EXCLUDED.stages_completed,
	total_stages = EXCLUDED.total_stages, percent_complete = EXCLUDED.percent_complete,
	progress_json = EXCLUDED.progress_json, error = EXCLUDED.error, result_json = EXCLUDED.result_json
`, job)
	if err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*Job, error) {
	var job Job
	err := s.db.GetContext(ctx, &job, `SELECT * FROM jobs WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

func (s *PostgresStore) GetRunningJob(ctx context.Context) (*Job, error) {
	var job Job
	err := s.db.GetContext(ctx, &job, `SELECT * FROM jobs WHERE status = 'running' ORDER BY started_at DESC LIMIT 1`)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get running job: %w", err)
	}
	return &job, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	var jobs []*Job
	err := s.db.SelectContext(ctx, &jobs, `SELECT * FROM jobs ORDER BY started_at DESC LIMIT $1`, limit)
	return jobs, err
}

func (s *PostgresStore) SaveValidationRun(ctx context.Context, run *ValidationRun) error {
	_, err := s.db.NamedExecContext(ctx, `
INSERT INTO validation_runs (id, check_name, ran_at, passed, detail_json)
VALUES (:id, :check_name, :ran_at, :passed, :detail_json)
`, run)
	return err
}

func (s *PostgresStore) ListValidationRuns(ctx context.Context, limit int) ([]*ValidationRun, error) {
	var runs []*ValidationRun
	err := s.db.SelectContext(ctx, &runs, `SELECT * FROM validation_runs ORDER BY ran_at DESC LIMIT $1`, limit)
	return runs, err
}
