// Package orchestrator drives the 8-stage ingestion pipeline described
// in spec §4.11: reset_and_schema, commits, chunking, a reused
// code-chunk-summary view, sprint_mapping, derivation, embeddings and
// connectivity, under a single job registry with cooperative
// cancellation.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ternarybob/kgraph/internal/chunker"
	"github.com/ternarybob/kgraph/internal/commitingest"
	"github.com/ternarybob/kgraph/internal/deriver"
	"github.com/ternarybob/kgraph/internal/embedding"
	"github.com/ternarybob/kgraph/internal/git"
	"github.com/ternarybob/kgraph/internal/graph"
	"github.com/ternarybob/kgraph/internal/linker"
	"github.com/ternarybob/kgraph/internal/ops"
	"github.com/ternarybob/kgraph/internal/schema"
	"github.com/ternarybob/kgraph/internal/sprint"
	"github.com/ternarybob/kgraph/internal/symbols"
	"github.com/ternarybob/kgraph/internal/telemetry"
)

const embeddingBatchSize = 256

// Orchestrator wires every pipeline component behind one job lifecycle
// (spec §4.11, §5 "the registry serializes job lifecycle transitions").
type Orchestrator struct {
	registry *ops.Registry
	schema   *schema.Manager
	reader   *git.Reader
	client   *graph.Client
	commits  *commitingest.Service
	chunks   *chunker.Service
	sprints  *sprint.Service
	deriver  *deriver.Service
	embed    *embedding.Client
	symbols  *symbols.Service
	linker   *linker.Service
	metrics  *telemetry.Metrics
	logger   *logrus.Entry

	mu      sync.Mutex
	current *runState
}

type runState struct {
	job            *ops.Job
	stop           atomic.Bool
	progress       map[string]*Progress
	lastCodeChunks int
}

func New(
	registry *ops.Registry,
	schemaManager *schema.Manager,
	reader *git.Reader,
	client *graph.Client,
	commits *commitingest.Service,
	chunks *chunker.Service,
	sprints *sprint.Service,
	deriver *deriver.Service,
	embed *embedding.Client,
	symbolsSvc *symbols.Service,
	linkerSvc *linker.Service,
	metrics *telemetry.Metrics,
	logger *logrus.Logger,
) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		schema:   schemaManager,
		reader:   reader,
		client:   client,
		commits:  commits,
		chunks:   chunks,
		sprints:  sprints,
		deriver:  deriver,
		embed:    embed,
		symbols:  symbolsSvc,
		linker:   linkerSvc,
		metrics:  metrics,
		logger:   logger.WithField("component", "orchestrator"),
	}
}

// Start registers a new job and runs its pipeline in the background,
// rejecting the call when a job is already running (spec §4.11 "one
// job runs at a time").
func (o *Orchestrator) Start(ctx context.Context, opts Options) (string, error) {
	job, err := o.registry.Start(ctx, string(opts.Profile), opts.Delta, opts.Subpath, TotalStages)
	if err != nil {
		return "", err
	}

	state := &runState{job: job, progress: map[string]*Progress{}}
	o.mu.Lock()
	o.current = state
	o.mu.Unlock()

	go o.run(context.Background(), state, opts)
	return job.ID, nil
}

// Stop requests cooperative cancellation. When the job is running in
// this process, the in-memory flag takes effect immediately; otherwise
// (a separate kgctl invocation from the one running the job) the
// request is persisted and picked up at the running process's next
// stage boundary poll.
func (o *Orchestrator) Stop(ctx context.Context) (bool, error) {
	o.mu.Lock()
	if o.current != nil && o.current.job.Status == "running" {
		o.current.stop.Store(true)
		o.current.job.Status = "stopping"
		o.mu.Unlock()
		return true, nil
	}
	o.mu.Unlock()

	if _, err := o.registry.RequestStop(ctx); err != nil {
		if err == ops.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns the most recent jobs, newest first.
func (o *Orchestrator) List(ctx context.Context, limit int) ([]*ops.Job, error) {
	return o.registry.List(ctx, limit)
}

// Status returns a snapshot of the current or most recent job.
func (o *Orchestrator) Status() (*Snapshot, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return nil, false
	}
	return snapshotOf(o.current), true
}

// LoadSnapshot reconstructs a Snapshot from the persisted job record,
// for inspecting a job from a process other than the one that ran it.
func (o *Orchestrator) LoadSnapshot(ctx context.Context, jobID string) (*Snapshot, error) {
	job, err := o.registry.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return snapshotFromJob(job), nil
}

// LatestSnapshot returns the most recently started job's snapshot.
func (o *Orchestrator) LatestSnapshot(ctx context.Context) (*Snapshot, bool, error) {
	jobs, err := o.registry.List(ctx, 1)
	if err != nil {
		return nil, false, err
	}
	if len(jobs) == 0 {
		return nil, false, nil
	}
	return snapshotFromJob(jobs[0]), true, nil
}

func snapshotFromJob(j *ops.Job) *Snapshot {
	snap := &Snapshot{
		JobID:           j.ID,
		Profile:         Profile(j.Profile),
		Delta:           j.Delta,
		Subpath:         j.Subpath,
		Status:          Status(j.Status),
		StartedAt:       j.StartedAt,
		UpdatedAt:       j.UpdatedAt,
		FinishedAt:      j.FinishedAt,
		CurrentStage:    j.CurrentStage,
		StagesCompleted: j.StagesCompleted,
		TotalStages:     j.TotalStages,
		PercentComplete: j.PercentComplete,
		Error:           j.Error,
	}
	if j.ProgressJSON != "" {
		var progress map[string]*Progress
		if err := json.Unmarshal([]byte(j.ProgressJSON), &progress); err == nil {
			snap.Progress = progress
		}
	}
	if j.ResultJSON != "" {
		var report QualityReport
		if err := json.Unmarshal([]byte(j.ResultJSON), &report); err == nil {
			snap.Result = &report
		}
	}
	return snap
}

func snapshotOf(s *runState) *Snapshot {
	j := s.job
	snap := &Snapshot{
		JobID:           j.ID,
		Profile:         Profile(j.Profile),
		Delta:           j.Delta,
		Subpath:         j.Subpath,
		Status:          Status(j.Status),
		StartedAt:       j.StartedAt,
		UpdatedAt:       j.UpdatedAt,
		FinishedAt:      j.FinishedAt,
		CurrentStage:    j.CurrentStage,
		StagesCompleted: j.StagesCompleted,
		TotalStages:     j.TotalStages,
		PercentComplete: j.PercentComplete,
		Progress:        s.progress,
		Error:           j.Error,
	}
	if j.ResultJSON != "" {
		var report QualityReport
		if err := json.Unmarshal([]byte(j.ResultJSON), &report); err == nil {
			snap.Result = &report
		}
	}
	return snap
}

func (o *Orchestrator) run(ctx context.Context, state *runState, opts Options) {
	job := state.job
	var lastErr error

	for i, stage := range stageOrder {
		if persisted, err := o.registry.Get(ctx, job.ID); err == nil && persisted.Status == "stopping" {
			state.stop.Store(true)
		}
		if state.stop.Load() {
			o.finish(ctx, state, "stopped", IngestionStopped{Stage: stage}.Error())
			return
		}

		start := time.Now()
		payload, err := o.runStage(ctx, state, opts, stage)
		elapsed := time.Since(start)

		failures := 0
		errMsg := ""
		if err != nil {
			failures = 1
			errMsg = err.Error()
			if _, stopped := err.(IngestionStopped); stopped {
				o.finish(ctx, state, "stopped", errMsg)
				return
			}
		}
		o.metrics.RecordStage(stage, failures, elapsed.Seconds())

		state.progress[fmt.Sprintf("stage_%d", i+1)] = &Progress{
			Stage:      stage,
			DurationMS: elapsed.Milliseconds(),
			Payload:    payload,
			Errors:     errsOrNil(errMsg),
		}
		job.CurrentStage = stage
		job.StagesCompleted = i + 1
		job.PercentComplete = float64(i+1) / float64(len(stageOrder)) * 100
		job.UpdatedAt = time.Now().UTC()
		if persisted, gerr := o.registry.Get(ctx, job.ID); gerr == nil && persisted.Status == "stopping" {
			state.stop.Store(true)
			job.Status = "stopping"
		}
		o.persist(ctx, job, state)

		if err != nil {
			lastErr = err
			break
		}
	}

	if lastErr != nil {
		o.finish(ctx, state, "failed", lastErr.Error())
		return
	}

	report, err := o.finalReport(ctx)
	if err != nil {
		o.finish(ctx, state, "failed", err.Error())
		return
	}
	resultJSON, _ := json.Marshal(report)
	job.ResultJSON = string(resultJSON)
	o.finish(ctx, state, "completed", "")
}

func errsOrNil(msg string) []string {
	if msg == "" {
		return nil
	}
	return []string{msg}
}

func (o *Orchestrator) finish(ctx context.Context, state *runState, status, errMsg string) {
	now := time.Now().UTC()
	state.job.Status = status
	state.job.Error = errMsg
	state.job.FinishedAt = &now
	state.job.UpdatedAt = now
	o.persist(ctx, state.job, state)
}

func (o *Orchestrator) persist(ctx context.Context, job *ops.Job, state *runState) {
	progressJSON, _ := json.Marshal(state.progress)
	job.ProgressJSON = string(progressJSON)
	if err := o.registry.Save(ctx, job); err != nil {
		o.logger.WithError(err).Warn("failed to persist job progress")
	}
}

func (o *Orchestrator) runStage(ctx context.Context, state *runState, opts Options, stage string) (map[string]any, error) {
	switch stage {
	case StageResetAndSchema:
		return o.stageResetAndSchema(ctx, opts)
	case StageCommits:
		return o.stageCommits(ctx, state, opts)
	case StageChunking:
		return o.stageChunking(ctx, state, opts)
	case StageCodeChunkSummary:
		return o.stageCodeChunkSummary(ctx, state)
	case StageSprintMapping:
		return o.stageSprintMapping(ctx, state)
	case StageDerivation:
		return o.stageDerivation(ctx, opts)
	case StageEmbeddings:
		return o.stageEmbeddings(ctx, state)
	case StageConnectivity:
		return o.stageConnectivity(ctx, state, opts)
	default:
		return nil, fmt.Errorf("unknown stage %q", stage)
	}
}

func (o *Orchestrator) checkStop(state *runState, stage string) error {
	if state.stop.Load() {
		return IngestionStopped{Stage: stage}
	}
	return nil
}

func (o *Orchestrator) finalReport(ctx context.Context) (*QualityReport, error) {
	totalNodes, totalEdges, orphans, missingTS, err := qualityCounts(ctx, o.client)
	if err != nil {
		return nil, err
	}
	var score float64
	if totalNodes == 0 {
		score = 0
	} else {
		score = 100.0
		score -= 50 * (float64(orphans) / float64(totalNodes))
		if totalEdges > 0 {
			score -= 30 * (float64(missingTS) / float64(totalEdges))
		}
		score = max(0, score)
	}
	return &QualityReport{
		Score:             score,
		TotalNodes:        totalNodes,
		TotalEdges:        totalEdges,
		OrphanNodes:       orphans,
		MissingTimestamps: missingTS,
	}, nil
}
