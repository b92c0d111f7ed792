package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Request cooperative cancellation of the running job",
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := buildApp(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	stopped, err := a.orch.Stop(ctx)
	if err != nil {
		return fmt.Errorf("request stop: %w", err)
	}
	if !stopped {
		fmt.Println("no job is currently running")
		return nil
	}
	fmt.Println("stop requested; the job will finalize at the next stage boundary")
	return nil
}
