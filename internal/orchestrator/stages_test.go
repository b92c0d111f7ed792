package orchestrator

import "testing"

func TestStageOrderMatchesSpecSequence(t *testing.T) {
	want := []string{
		StageResetAndSchema,
		StageCommits,
		StageChunking,
		StageCodeChunkSummary,
		StageSprintMapping,
		StageDerivation,
		StageEmbeddings,
		StageConnectivity,
	}
	if len(stageOrder) != len(want) {
		t.Fatalf("stageOrder length = %d, want %d", len(stageOrder), len(want))
	}
	for i, s := range want {
		if stageOrder[i] != s {
			t.Errorf("stageOrder[%d] = %q, want %q", i, stageOrder[i], s)
		}
	}
	if TotalStages != 8 {
		t.Errorf("TotalStages = %d, want 8", TotalStages)
	}
}

func TestIngestionStoppedError(t *testing.T) {
	err := IngestionStopped{Stage: StageChunking}
	if err.Error() == "" {
		t.Fatal("expected non-empty error message")
	}
}
