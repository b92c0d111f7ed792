package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	jobs map[string]*Job
}

func newFakeStore() *fakeStore { return &fakeStore{jobs: map[string]*Job{}} }

func (f *fakeStore) SaveJob(ctx context.Context, job *Job) error {
	f.jobs[job.ID] = job
	return nil
}
func (f *fakeStore) GetJob(ctx context.Context, id string) (*Job, error) {
	j, ok := f.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return j, nil
}
func (f *fakeStore) GetRunningJob(ctx context.Context) (*Job, error) {
	for _, j := range f.jobs {
		if j.Status == "running" {
			return j, nil
		}
	}
	return nil, ErrNotFound
}
func (f *fakeStore) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	var out []*Job
	for _, j := range f.jobs {
		out = append(out, j)
	}
	return out, nil
}
func (f *fakeStore) SaveValidationRun(ctx context.Context, run *ValidationRun) error { return nil }
func (f *fakeStore) ListValidationRuns(ctx context.Context, limit int) ([]*ValidationRun, error) {
	return nil, nil
}
func (f *fakeStore) Close() error { return nil }

func TestRegistryStartCreatesRunningJob(t *testing.T) {
	store := newFakeStore()
	reg := NewRegistry(store)
	job, err := reg.Start(context.Background(), "full", false, "", 8)
	require.NoError(t, err)
	assert.Equal(t, "running", job.Status)
	assert.Equal(t, 8, job.TotalStages)
}

func TestRegistryStartRejectsConcurrentJob(t *testing.T) {
	store := newFakeStore()
	reg := NewRegistry(store)
	_, err := reg.Start(context.Background(), "full", false, "", 8)
	require.NoError(t, err)

	_, err = reg.Start(context.Background(), "delta", true, "", 8)
	require.Error(t, err)
	var jobRunning ErrJobRunning
	assert.ErrorAs(t, err, &jobRunning)
}
