// Package schema idempotently declares the constraints and indexes the
// rest of the pipeline relies on (spec §4.3). Every statement uses
// IF NOT EXISTS so re-applying the schema on every full ingest is safe.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"
	"github.com/ternarybob/kgraph/internal/graph"
)

// Manager applies constraints/indexes against the graph store.
type Manager struct {
	client *graph.Client
	logger *logrus.Entry
}

func NewManager(client *graph.Client, logger *logrus.Logger) *Manager {
	return &Manager{client: client, logger: logger.WithField("component", "schema")}
}

// uniqueConstraint is (label, property).
type uniqueConstraint struct{ label, prop string }

var uniqueConstraints = []uniqueConstraint{
	{"GitCommit", "hash"},
	{"File", "path"},
	{"Directory", "path"},
	{"Chunk", "id"},
	{"Document", "path"},
	{"Symbol", "symbol_id"},
	{"Requirement", "id"},
	{"Sprint", "number"},
	{"Library", "name"},
}

type btreeIndex struct {
	label string
	props []string
}

var btreeIndexes = []btreeIndex{
	{"GitCommit", []string{"timestamp"}},
	{"File", []string{"path"}},
	{"Requirement", []string{"id"}},
	{"Chunk", []string{"id"}},
	{"Document", []string{"path"}},
	{"Sprint", []string{"number"}},
	{"Directory", []string{"path", "depth"}},
}

// temporalEdgeTypes get a timestamp index, per spec §3/§4.3.
var temporalEdgeTypes = []string{
	"TOUCHED", "NEXT_COMMIT", "PREV_COMMIT", "IMPLEMENTS",
	"EVOLVES_FROM", "REFACTORED_TO", "DEPRECATED_BY", "LINKS_TO",
}

type fulltextIndex struct {
	name  string
	label string
	props []string
}

var fulltextIndexes = []fulltextIndex{
	{"file_fulltext", "File", []string{"path"}},
	{"requirement_fulltext", "Requirement", []string{"id", "title"}},
	{"commit_fulltext", "GitCommit", []string{"message", "author"}},
	{"chunk_fulltext", "Chunk", []string{"text"}},
	{"document_fulltext", "Document", []string{"path", "title"}},
}

const (
	vectorIndexName = "chunk_vec_idx"
	vectorDims      = 512
)

// ApplyResult summarizes what happened, including whether the vector
// index had to be downgraded to a scalar index (spec §4.3, §7).
type ApplyResult struct {
	ConstraintsApplied int
	IndexesApplied     int
	FulltextApplied    int
	VectorIndexOK      bool
	VectorDowngraded   bool
	Failures           []string
}

// Apply declares every constraint/index idempotently.
func (m *Manager) Apply(ctx context.Context) (*ApplyResult, error) {
	result := &ApplyResult{}

	for _, c := range uniqueConstraints {
		stmt := fmt.Sprintf(
			"CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
			c.label, c.prop,
		)
		if err := m.exec(ctx, stmt); err != nil {
			result.Failures = append(result.Failures, fmt.Sprintf("constraint %s.%s: %v", c.label, c.prop, err))
			continue
		}
		result.ConstraintsApplied++
	}

	for _, idx := range btreeIndexes {
		name := fmt.Sprintf("%s_%s_idx", strings.ToLower(idx.label), strings.Join(idx.props, "_"))
		propList := make([]string, len(idx.props))
		for i, p := range idx.props {
			propList[i] = "n." + p
		}
		stmt := fmt.Sprintf(
			"CREATE INDEX %s IF NOT EXISTS FOR (n:%s) ON (%s)",
			name, idx.label, strings.Join(propList, ", "),
		)
		if err := m.exec(ctx, stmt); err != nil {
			result.Failures = append(result.Failures, fmt.Sprintf("index %s: %v", name, err))
			continue
		}
		result.IndexesApplied++
	}

	for _, edgeType := range temporalEdgeTypes {
		name := fmt.Sprintf("%s_timestamp_idx", strings.ToLower(edgeType))
		stmt := fmt.Sprintf(
			"CREATE INDEX %s IF NOT EXISTS FOR ()-[r:%s]-() ON (r.timestamp)",
			name, edgeType,
		)
		if err := m.exec(ctx, stmt); err != nil {
			result.Failures = append(result.Failures, fmt.Sprintf("edge index %s: %v", name, err))
			continue
		}
		result.IndexesApplied++
	}

	for _, ft := range fulltextIndexes {
		propList := make([]string, len(ft.props))
		for i, p := range ft.props {
			propList[i] = "n." + p
		}
		stmt := fmt.Sprintf(
			"CREATE FULLTEXT INDEX %s IF NOT EXISTS FOR (n:%s) ON EACH [%s]",
			ft.name, ft.label, strings.Join(propList, ", "),
		)
		if err := m.exec(ctx, stmt); err != nil {
			result.Failures = append(result.Failures, fmt.Sprintf("fulltext %s: %v", ft.name, err))
			continue
		}
		result.FulltextApplied++
	}

	if err := m.applyVectorIndex(ctx, result); err != nil {
		result.Failures = append(result.Failures, fmt.Sprintf("vector index: %v", err))
	}

	return result, nil
}

func (m *Manager) applyVectorIndex(ctx context.Context, result *ApplyResult) error {
	stmt := fmt.Sprintf(
		`CREATE VECTOR INDEX %s IF NOT EXISTS
FOR (c:Chunk) ON (c.embedding)
OPTIONS {indexConfig: {`+"`vector.dimensions`"+`: %d, `+"`vector.similarity_function`"+`: 'cosine'}}`,
		vectorIndexName, vectorDims,
	)
	if err := m.exec(ctx, stmt); err == nil {
		result.VectorIndexOK = true
		return nil
	}

	// Unsupported backend: downgrade to a scalar index (spec §4.3, §7).
	m.logger.Warn("vector index unsupported by backend, downgrading to scalar index")
	fallback := fmt.Sprintf(
		"CREATE INDEX chunk_embedding_scalar_idx IF NOT EXISTS FOR (c:Chunk) ON (c.embedding)",
	)
	if err := m.exec(ctx, fallback); err != nil {
		return err
	}
	result.VectorDowngraded = true
	return nil
}

// Reset detaches and deletes every node, used only ahead of a full
// profile re-ingest (spec §4.11 "reset_and_schema").
func (m *Manager) Reset(ctx context.Context) error {
	_, err := m.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `MATCH (n) DETACH DELETE n`, nil)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("reset graph: %w", err)
	}
	return nil
}

func (m *Manager) exec(ctx context.Context, stmt string) error {
	_, err := m.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, stmt, nil)
		return nil, err
	})
	return err
}
