// Package validator runs read-only graph health checks plus two
// mutating cleanup/backfill operations (spec §4.12), recording every
// run to the ops audit log.
package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ternarybob/kgraph/internal/graph"
	"github.com/ternarybob/kgraph/internal/ops"
)

// temporalEdgeTypes mirrors the schema manager's set, checked for null
// timestamps (spec §4.3, §4.12).
var temporalEdgeTypes = []string{
	"TOUCHED", "NEXT_COMMIT", "PREV_COMMIT", "IMPLEMENTS",
	"EVOLVES_FROM", "REFACTORED_TO", "DEPRECATED_BY", "LINKS_TO",
}

// danglingEdgeTypes are checked for an endpoint that no longer exists
// (spec §4.12 "validate_relationship_integrity").
var danglingEdgeTypes = []string{"IMPLEMENTS", "CONTAINS_CHUNK", "PART_OF", "INCLUDES", "LINKS_TO"}

// expectedConstraints mirrors the schema manager's uniqueConstraints
// list, checked for presence (spec §4.12 "validate_schema_completeness").
var expectedConstraints = []struct{ Label, Prop string }{
	{"GitCommit", "hash"}, {"File", "path"}, {"Directory", "path"},
	{"Chunk", "id"}, {"Document", "path"}, {"Symbol", "symbol_id"},
	{"Requirement", "id"}, {"Sprint", "number"}, {"Library", "name"},
}

// Validator runs the checks and records each run's outcome.
type Validator struct {
	client *graph.Client
	store  ops.Store
	logger *logrus.Entry
}

func New(client *graph.Client, store ops.Store, logger *logrus.Logger) *Validator {
	return &Validator{client: client, store: store, logger: logger.WithField("component", "validator")}
}

// SchemaCompletenessResult reports missing constraints/indexes.
type SchemaCompletenessResult struct {
	MissingConstraints []string `json:"missing_constraints"`
	VectorIndexPresent bool     `json:"vector_index_present"`
	Passed             bool     `json:"passed"`
}

// ValidateSchemaCompleteness checks that every expected uniqueness
// constraint and the chunk vector (or scalar fallback) index exist.
func (v *Validator) ValidateSchemaCompleteness(ctx context.Context) (*SchemaCompletenessResult, error) {
	rows, err := v.client.RunRead(ctx, `SHOW CONSTRAINTS YIELD labelsOrTypes, properties
RETURN labelsOrTypes AS labels, properties AS props`, nil)
	if err != nil {
		return nil, fmt.Errorf("show constraints: %w", err)
	}
	present := make(map[string]bool, len(rows))
	for _, row := range rows {
		labels, _ := row["labels"].([]any)
		props, _ := row["props"].([]any)
		if len(labels) == 1 && len(props) == 1 {
			label, _ := labels[0].(string)
			prop, _ := props[0].(string)
			present[label+"."+prop] = true
		}
	}

	result := &SchemaCompletenessResult{}
	for _, c := range expectedConstraints {
		if !present[c.Label+"."+c.Prop] {
			result.MissingConstraints = append(result.MissingConstraints, c.Label+"."+c.Prop)
		}
	}

	idxRows, err := v.client.RunRead(ctx, `SHOW INDEXES YIELD name WHERE name CONTAINS 'chunk' RETURN name`, nil)
	if err != nil {
		return nil, fmt.Errorf("show indexes: %w", err)
	}
	result.VectorIndexPresent = len(idxRows) > 0
	result.Passed = len(result.MissingConstraints) == 0 && result.VectorIndexPresent
	return result, v.record(ctx, "schema_completeness", result.Passed, result)
}

// TemporalConsistencyResult reports null-timestamp counts per edge type.
type TemporalConsistencyResult struct {
	MissingByType map[string]int64 `json:"missing_by_type"`
	Passed        bool             `json:"passed"`
}

// ValidateTemporalConsistency counts, per temporal edge type, how many
// instances are missing a timestamp.
func (v *Validator) ValidateTemporalConsistency(ctx context.Context) (*TemporalConsistencyResult, error) {
	result := &TemporalConsistencyResult{MissingByType: map[string]int64{}}
	for _, edgeType := range temporalEdgeTypes {
		rows, err := v.client.RunRead(ctx, fmt.Sprintf(
			`MATCH ()-[r:%s]->() WHERE r.timestamp IS NULL RETURN count(r) AS c`, edgeType), nil)
		if err != nil {
			return nil, fmt.Errorf("count missing timestamps for %s: %w", edgeType, err)
		}
		result.MissingByType[edgeType] = countFrom(rows)
	}
	result.Passed = allZero(result.MissingByType)
	return result, v.record(ctx, "temporal_consistency", result.Passed, result)
}

// RelationshipIntegrityResult reports dangling-edge counts per type.
type RelationshipIntegrityResult struct {
	DanglingByType map[string]int64 `json:"dangling_by_type"`
	Passed         bool             `json:"passed"`
}

// ValidateRelationshipIntegrity counts edges of the checked types whose
// start or end node no longer exists.
func (v *Validator) ValidateRelationshipIntegrity(ctx context.Context) (*RelationshipIntegrityResult, error) {
	result := &RelationshipIntegrityResult{DanglingByType: map[string]int64{}}
	for _, edgeType := range danglingEdgeTypes {
		rows, err := v.client.RunRead(ctx, fmt.Sprintf(
			`MATCH (a)-[r:%s]->(b) WHERE a IS NULL OR b IS NULL RETURN count(r) AS c`, edgeType), nil)
		if err != nil {
			return nil, fmt.Errorf("count dangling %s: %w", edgeType, err)
		}
		result.DanglingByType[edgeType] = countFrom(rows)
	}
	result.Passed = allZero(result.DanglingByType)
	return result, v.record(ctx, "relationship_integrity", result.Passed, result)
}

// DuplicateGroup is one (type, start, end) tuple with more than one edge.
type DuplicateGroup struct {
	Type  string `json:"type"`
	Start string `json:"start"`
	End   string `json:"end"`
	Count int64  `json:"count"`
}

// DuplicateRelationshipsResult lists every duplicated (type, start, end)
// triple.
type DuplicateRelationshipsResult struct {
	Groups []DuplicateGroup `json:"groups"`
	Passed bool             `json:"passed"`
}

// DetectDuplicateRelationships groups edges by (type, start, end) and
// reports every group with size > 1.
func (v *Validator) DetectDuplicateRelationships(ctx context.Context) (*DuplicateRelationshipsResult, error) {
	rows, err := v.client.RunRead(ctx, `
MATCH (a)-[r]->(b)
WITH type(r) AS t, elementId(a) AS s, elementId(b) AS e, count(r) AS c
WHERE c > 1
RETURN t, s, e, c
ORDER BY c DESC
LIMIT 500`, nil)
	if err != nil {
		return nil, fmt.Errorf("detect duplicate relationships: %w", err)
	}
	result := &DuplicateRelationshipsResult{}
	for _, row := range rows {
		t, _ := row["t"].(string)
		s, _ := row["s"].(string)
		e, _ := row["e"].(string)
		result.Groups = append(result.Groups, DuplicateGroup{
			Type: t, Start: s, End: e, Count: intFrom(row["c"]),
		})
	}
	result.Passed = len(result.Groups) == 0
	return result, v.record(ctx, "duplicate_relationships", result.Passed, result)
}

// CleanupOrphanedNodesResult reports how many degree-0 nodes were removed.
type CleanupOrphanedNodesResult struct {
	Removed int64 `json:"removed"`
}

// CleanupOrphanedNodes deletes up to limit nodes with degree 0.
func (v *Validator) CleanupOrphanedNodes(ctx context.Context, limit int) (*CleanupOrphanedNodesResult, error) {
	rows, err := v.client.Run(ctx, `
MATCH (n)
WHERE NOT EXISTS { MATCH (n)--() }
WITH n LIMIT $limit
DETACH DELETE n
RETURN count(n) AS removed`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("cleanup orphaned nodes: %w", err)
	}
	result := &CleanupOrphanedNodesResult{Removed: countFrom(rows)}
	return result, v.record(ctx, "cleanup_orphaned_nodes", true, result)
}

// BackfillMissingTimestampsResult reports how many edges were backfilled.
type BackfillMissingTimestampsResult struct {
	Backfilled int64 `json:"backfilled"`
}

// BackfillMissingTimestamps sets timestamp on every temporal edge that
// lacks one, from the adjoining GitCommit.timestamp, falling back for
// IMPLEMENTS to the earliest TOUCHED timestamp on the target file.
func (v *Validator) BackfillMissingTimestamps(ctx context.Context) (*BackfillMissingTimestampsResult, error) {
	var total int64

	for _, edgeType := range temporalEdgeTypes {
		if edgeType == "IMPLEMENTS" {
			continue
		}
		rows, err := v.client.Run(ctx, fmt.Sprintf(`
MATCH (c:GitCommit)-[r:%s]->()
WHERE r.timestamp IS NULL
SET r.timestamp = c.timestamp
RETURN count(r) AS n`, edgeType), nil)
		if err != nil {
			return nil, fmt.Errorf("backfill %s from commit: %w", edgeType, err)
		}
		total += countFrom(rows)
	}

	rows, err := v.client.Run(ctx, `
MATCH (req:Requirement)-[r:IMPLEMENTS]->(f:File)
WHERE r.timestamp IS NULL
MATCH (c:GitCommit)-[t:TOUCHED]->(f)
WITH r, min(t.timestamp) AS earliest
WHERE earliest IS NOT NULL
SET r.timestamp = earliest
RETURN count(r) AS n`, nil)
	if err != nil {
		return nil, fmt.Errorf("backfill IMPLEMENTS from earliest TOUCHED: %w", err)
	}
	total += countFrom(rows)

	result := &BackfillMissingTimestampsResult{Backfilled: total}
	return result, v.record(ctx, "backfill_missing_timestamps", true, result)
}

func (v *Validator) record(ctx context.Context, check string, passed bool, detail any) error {
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal validation detail: %w", err)
	}
	run := &ops.ValidationRun{
		ID:         uuid.NewString(),
		Check:      check,
		RanAt:      time.Now().UTC(),
		Passed:     passed,
		DetailJSON: string(detailJSON),
	}
	if err := v.store.SaveValidationRun(ctx, run); err != nil {
		v.logger.WithError(err).Warn("failed to persist validation run")
	}
	return nil
}

func countFrom(rows []map[string]any) int64 {
	if len(rows) == 0 {
		return 0
	}
	for _, key := range []string{"c", "removed", "n"} {
		if v, ok := rows[0][key]; ok {
			return intFrom(v)
		}
	}
	return 0
}

func intFrom(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

func allZero(m map[string]int64) bool {
	for _, v := range m {
		if v != 0 {
			return false
		}
	}
	return true
}
