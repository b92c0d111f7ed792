package orchestrator

// Stage names, in the fixed execution order (spec §4.11 "Stages").
// Stage 4 is a dedicated "code chunk summary" view over stage 3's
// output and is a no-op once stage 3 has chunked code files — it
// exists so progress.stage_4 always has a slot, matching the spec's
// explicit 8-stage count.
const (
	StageResetAndSchema   = "reset_and_schema"
	StageCommits          = "commits"
	StageChunking         = "chunking"
	StageCodeChunkSummary = "code_chunk_summary"
	StageSprintMapping    = "sprint_mapping"
	StageDerivation       = "derivation"
	StageEmbeddings       = "embeddings"
	StageConnectivity     = "connectivity"
)

var stageOrder = []string{
	StageResetAndSchema,
	StageCommits,
	StageChunking,
	StageCodeChunkSummary,
	StageSprintMapping,
	StageDerivation,
	StageEmbeddings,
	StageConnectivity,
}

// TotalStages is the fixed pipeline length the Job model records (spec
// §4.11 "total_stages").
var TotalStages = len(stageOrder)
