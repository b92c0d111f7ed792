package orchestrator

import "time"

// Status mirrors Job.status (spec §4.11 "Job model").
type Status string

const (
	StatusRunning   Status = "running"
	StatusStopping  Status = "stopping"
	StatusStopped   Status = "stopped"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Profile selects how much of the repository a run covers (spec §4.11,
// §4.1 "profile").
type Profile string

const (
	ProfileFull  Profile = "full"
	ProfileDelta Profile = "delta"
	ProfileQuick Profile = "quick"
)

// Options configures one ingestion run, matching the Start request
// shape named in spec §6.
type Options struct {
	Profile Profile
	Delta   bool
	Subpath string
}

// Progress is one stage's recorded payload (spec §4.11 "Each stage
// records its payload verbatim in progress.stage_<i>").
type Progress struct {
	Stage     string         `json:"stage"`
	DurationMS int64         `json:"duration_ms"`
	Payload   map[string]any `json:"payload"`
	Errors    []string       `json:"errors,omitempty"`
}

// QualityReport is the final-report breakdown alongside the quality
// score (spec §4.11 "Final report").
type QualityReport struct {
	Score             float64 `json:"score"`
	TotalNodes        int64   `json:"total_nodes"`
	TotalEdges        int64   `json:"total_edges"`
	OrphanNodes       int64   `json:"orphan_nodes"`
	MissingTimestamps int64   `json:"missing_timestamps"`
}

// Snapshot is the orchestrator's in-memory view of the running or most
// recently finished job, returned by Status, LoadSnapshot and
// LatestSnapshot.
type Snapshot struct {
	JobID           string               `json:"job_id"`
	Profile         Profile              `json:"profile"`
	Delta           bool                 `json:"delta"`
	Subpath         string               `json:"subpath,omitempty"`
	Status          Status               `json:"status"`
	StartedAt       time.Time            `json:"started_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	FinishedAt      *time.Time           `json:"finished_at,omitempty"`
	CurrentStage    string               `json:"current_stage"`
	StagesCompleted int                  `json:"stages_completed"`
	TotalStages     int                  `json:"total_stages"`
	PercentComplete float64              `json:"percent_complete"`
	Progress        map[string]*Progress `json:"progress"`
	Error           string               `json:"error,omitempty"`
	Result          *QualityReport       `json:"result,omitempty"`
}

// IngestionStopped is raised by a stage when the cooperative stop flag
// was set mid-run (spec §4.11 "Cancellation").
type IngestionStopped struct {
	Stage string
}

func (e IngestionStopped) Error() string {
	return "ingestion stopped during stage " + e.Stage
}
