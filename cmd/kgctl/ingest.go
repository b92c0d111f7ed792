package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ternarybob/kgraph/internal/cliutil"
	"github.com/ternarybob/kgraph/internal/orchestrator"
)

var (
	ingestProfile string
	ingestDelta   bool
	ingestSubpath string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run an ingestion job (reset_and_schema through connectivity)",
	Long: `Starts a job in the registry and blocks until it finishes.

kgctl has no background daemon: the job's goroutine lives only for the
duration of this process, so the command always waits out the run
rather than detaching (use --profile quick for a fast smoke run).`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestProfile, "profile", "full", "full | delta | quick")
	ingestCmd.Flags().BoolVar(&ingestDelta, "delta", false, "only ingest commits/chunks since the last run")
	ingestCmd.Flags().StringVar(&ingestSubpath, "subpath", "", "restrict chunking and symbol extraction to this prefix")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := buildApp(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	jobID, err := a.orch.Start(ctx, orchestrator.Options{
		Profile: orchestrator.Profile(ingestProfile),
		Delta:   ingestDelta,
		Subpath: ingestSubpath,
	})
	if err != nil {
		return fmt.Errorf("start ingestion: %w", err)
	}
	fmt.Printf("started job %s\n", jobID)

	for {
		snap, ok := a.orch.Status()
		if !ok {
			return fmt.Errorf("job %s vanished from the registry", jobID)
		}
		if snap.Status == orchestrator.StatusCompleted ||
			snap.Status == orchestrator.StatusFailed ||
			snap.Status == orchestrator.StatusStopped {
			cliutil.RenderJobSnapshot(snap)
			return nil
		}
		time.Sleep(2 * time.Second)
	}
}
