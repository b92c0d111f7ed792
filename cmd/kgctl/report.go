package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/kgraph/internal/cliutil"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the most recent job's final quality report",
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := buildApp(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	snap, ok := a.orch.Status()
	if !ok || snap.Result == nil {
		var err error
		snap, ok, err = a.orch.LatestSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("load latest job: %w", err)
		}
	}
	if !ok || snap.Result == nil {
		fmt.Println("no completed job to report on")
		return nil
	}
	cliutil.RenderJobSnapshot(snap)
	return nil
}
