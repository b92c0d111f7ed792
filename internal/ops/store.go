// Package ops persists the ingestion job registry and the validator's
// audit log, mirroring the teacher's storage.Store split between a
// sqlite and a postgres backend (spec §4.11 job model, §4.12 validator).
package ops

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound mirrors the teacher's storage.ErrNotFound sentinel.
var ErrNotFound = errors.New("not found")

// Job is the persisted lifecycle record for one ingestion run (spec
// §4.11 "Job model").
type Job struct {
	ID               string    `db:"id"`
	Profile          string    `db:"profile"`
	Delta            bool      `db:"delta"`
	Subpath          string    `db:"subpath"`
	Status           string    `db:"status"`
	StartedAt        time.Time `db:"started_at"`
	UpdatedAt        time.Time `db:"updated_at"`
	FinishedAt       *time.Time `db:"finished_at"`
	CurrentStage     string    `db:"current_stage"`
	StagesCompleted  int       `db:"stages_completed"`
	TotalStages      int       `db:"total_stages"`
	PercentComplete  float64   `db:"percent_complete"`
	ProgressJSON     string    `db:"progress_json"`
	Error            string    `db:"error"`
	ResultJSON       string    `db:"result_json"`
}

// ValidationRun is one audit-log entry written by the Data Validator
// (spec §4.12).
type ValidationRun struct {
	ID         string    `db:"id"`
	Check      string    `db:"check_name"`
	RanAt      time.Time `db:"ran_at"`
	Passed     bool      `db:"passed"`
	DetailJSON string    `db:"detail_json"`
}

// Store is the capability the orchestrator and validator depend on.
// Two implementations exist (sqlite, postgres), selected by
// config.OpsStoreConfig.Type (spec §10 "Configuration").
type Store interface {
	SaveJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	GetRunningJob(ctx context.Context) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)

	SaveValidationRun(ctx context.Context, run *ValidationRun) error
	ListValidationRuns(ctx context.Context, limit int) ([]*ValidationRun, error)

	Close() error
}
