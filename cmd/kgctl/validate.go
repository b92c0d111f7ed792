package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/kgraph/internal/cliutil"
)

var (
	validateCleanupLimit int
	validateBackfill      bool
	validateCleanup       bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run data validator checks (schema, temporal, relationship integrity, duplicates)",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateCleanup, "cleanup", false, "also delete orphaned degree-0 nodes")
	validateCmd.Flags().IntVar(&validateCleanupLimit, "cleanup-limit", 1000, "max orphaned nodes to delete")
	validateCmd.Flags().BoolVar(&validateBackfill, "backfill", false, "also backfill missing temporal edge timestamps")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := buildApp(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	schemaResult, err := a.valid.ValidateSchemaCompleteness(ctx)
	if err != nil {
		return fmt.Errorf("validate schema completeness: %w", err)
	}
	cliutil.RenderCheckResult("schema_completeness", schemaResult.Passed, nil)
	for _, c := range schemaResult.MissingConstraints {
		fmt.Printf("  missing constraint: %s\n", c)
	}

	temporalResult, err := a.valid.ValidateTemporalConsistency(ctx)
	if err != nil {
		return fmt.Errorf("validate temporal consistency: %w", err)
	}
	cliutil.RenderCheckResult("temporal_consistency", temporalResult.Passed, temporalResult.MissingByType)

	integrityResult, err := a.valid.ValidateRelationshipIntegrity(ctx)
	if err != nil {
		return fmt.Errorf("validate relationship integrity: %w", err)
	}
	cliutil.RenderCheckResult("relationship_integrity", integrityResult.Passed, integrityResult.DanglingByType)

	dupResult, err := a.valid.DetectDuplicateRelationships(ctx)
	if err != nil {
		return fmt.Errorf("detect duplicate relationships: %w", err)
	}
	cliutil.RenderCheckResult("duplicate_relationships", dupResult.Passed, nil)
	for _, g := range dupResult.Groups {
		fmt.Printf("  %s: %s -> %s (x%d)\n", g.Type, g.Start, g.End, g.Count)
	}

	if validateCleanup {
		cleanupResult, err := a.valid.CleanupOrphanedNodes(ctx, validateCleanupLimit)
		if err != nil {
			return fmt.Errorf("cleanup orphaned nodes: %w", err)
		}
		fmt.Printf("removed %d orphaned nodes\n", cleanupResult.Removed)
	}

	if validateBackfill {
		backfillResult, err := a.valid.BackfillMissingTimestamps(ctx)
		if err != nil {
			return fmt.Errorf("backfill missing timestamps: %w", err)
		}
		fmt.Printf("backfilled %d edge timestamps\n", backfillResult.Backfilled)
	}

	return nil
}
