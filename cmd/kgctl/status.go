package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/kgraph/internal/cliutil"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current or most recent job, or list recent jobs with --list",
	RunE:  runStatus,
}

var statusList bool

func init() {
	statusCmd.Flags().BoolVar(&statusList, "list", false, "list recent jobs instead of the latest snapshot")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "max jobs to list")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := buildApp(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if statusList {
		jobs, err := a.orch.List(ctx, statusLimit)
		if err != nil {
			return fmt.Errorf("list jobs: %w", err)
		}
		cliutil.RenderJobList(jobs)
		return nil
	}

	if snap, ok := a.orch.Status(); ok {
		cliutil.RenderJobSnapshot(snap)
		return nil
	}
	snap, ok, err := a.orch.LatestSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load latest job: %w", err)
	}
	if !ok {
		fmt.Println("no job has run yet")
		return nil
	}
	cliutil.RenderJobSnapshot(snap)
	return nil
}
