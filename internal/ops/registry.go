package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Open selects a Store implementation by storeType ("sqlite" | "postgres"),
// mirroring the teacher's StorageConfig.Type switch.
func Open(storeType, postgresDSN, sqlitePath string, logger *logrus.Logger) (Store, error) {
	switch storeType {
	case "postgres":
		return NewPostgresStore(postgresDSN, logger)
	case "sqlite", "":
		return NewSQLiteStore(sqlitePath, logger)
	default:
		return nil, fmt.Errorf("unknown ops store type %q", storeType)
	}
}

// ErrJobRunning is returned by Registry.Start when a job is already in
// flight (spec §4.11 "start rejects when a job is running").
type ErrJobRunning struct {
	JobID string
}

func (e ErrJobRunning) Error() string {
	return fmt.Sprintf("job %s is already running", e.JobID)
}

// Registry serializes job lifecycle transitions against a Store (spec
// §5 "the registry serializes job lifecycle transitions").
type Registry struct {
	store Store
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

// Start creates a new job record, rejecting the request if one is
// already running.
func (r *Registry) Start(ctx context.Context, profile string, delta bool, subpath string, totalStages int) (*Job, error) {
	if running, err := r.store.GetRunningJob(ctx); err == nil {
		return nil, ErrJobRunning{JobID: running.ID}
	} else if err != ErrNotFound {
		return nil, err
	}

	now := time.Now().UTC()
	job := &Job{
		ID:          uuid.NewString(),
		Profile:     profile,
		Delta:       delta,
		Subpath:     subpath,
		Status:      "running",
		StartedAt:   now,
		UpdatedAt:   now,
		TotalStages: totalStages,
	}
	if err := r.store.SaveJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Save persists an in-flight job's updated fields (progress, stage,
// status transitions).
func (r *Registry) Save(ctx context.Context, job *Job) error {
	return r.store.SaveJob(ctx, job)
}

// RequestStop marks the currently running job "stopping", so a
// separate kgctl invocation (no shared memory with the process
// actually running the job) can signal cancellation through the store
// the running process polls (spec §4.11 "Cancellation").
func (r *Registry) RequestStop(ctx context.Context) (*Job, error) {
	job, err := r.store.GetRunningJob(ctx)
	if err != nil {
		return nil, err
	}
	job.Status = "stopping"
	job.UpdatedAt = time.Now().UTC()
	if err := r.store.SaveJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Get returns one job by id.
func (r *Registry) Get(ctx context.Context, id string) (*Job, error) {
	return r.store.GetJob(ctx, id)
}

// List returns the most recent jobs, newest first.
func (r *Registry) List(ctx context.Context, limit int) ([]*Job, error) {
	return r.store.ListJobs(ctx, limit)
}
