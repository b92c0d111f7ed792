package deriver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"

	"github.com/ternarybob/kgraph/internal/graph"
)

// Service runs the evidence-based derivation strategies named in spec
// §4.8 against the already-ingested commit/chunk/symbol graph.
type Service struct {
	client *graph.Client
	logger *logrus.Entry
}

func NewService(client *graph.Client, logger *logrus.Logger) *Service {
	return &Service{client: client, logger: logger.WithField("component", "deriver")}
}

// Options narrows derivation to recent activity for incremental runs
// (spec §4.8 "optional since_timestamp").
type Options struct {
	SinceTimestamp string
	ComputeDependsOn bool
}

// Result summarizes one run for the orchestrator's progress payload.
type Result struct {
	ImplementsDerived    int
	RefactoredEnriched   int
	DependsOnSkipped     bool
	DependsOnDerived     int
}

func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{}

	n, err := s.deriveDocMentionImplements(ctx, opts.SinceTimestamp)
	if err != nil {
		return nil, fmt.Errorf("derive doc-mention IMPLEMENTS: %w", err)
	}
	result.ImplementsDerived += n

	n, err = s.deriveTestColocationImplements(ctx, opts.SinceTimestamp)
	if err != nil {
		return nil, fmt.Errorf("derive test-colocation IMPLEMENTS: %w", err)
	}
	result.ImplementsDerived += n

	n, err = s.enrichRefactoredToWithSymbolOverlap(ctx)
	if err != nil {
		return nil, fmt.Errorf("enrich REFACTORED_TO: %w", err)
	}
	result.RefactoredEnriched = n

	if !opts.ComputeDependsOn {
		result.DependsOnSkipped = true
		return result, nil
	}
	n, err = s.deriveDependsOn(ctx)
	if err != nil {
		return nil, fmt.Errorf("derive DEPENDS_ON: %w", err)
	}
	result.DependsOnDerived = n

	return result, nil
}

// deriveDocMentionImplements implements spec §4.8's "doc-mention"
// evidence: a requirement ID appears in a chunk whose document
// references the file (via C7's MENTIONS_FILE rollup). Base confidence
// 0.6, merged with any existing confidence by noisy-OR.
func (s *Service) deriveDocMentionImplements(ctx context.Context, since string) (int, error) {
	count := 0
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		rows, err := tx.Run(ctx, `
MATCH (c:Chunk)-[:MENTIONS]->(r:Requirement)
MATCH (d:Document)-[:CONTAINS_CHUNK]->(c)
MATCH (d)-[:MENTIONS_FILE]->(f:File)
WHERE $since = '' OR EXISTS {
  MATCH (gc:GitCommit)-[:TOUCHED]->(f)
  WHERE gc.timestamp >= $since
}
RETURN DISTINCT r.id AS req, f.path AS file`,
			map[string]any{"since": since})
		if err != nil {
			return nil, err
		}
		records, err := rows.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			req, _ := rec.Get("req")
			file, _ := rec.Get("file")
			if err := mergeImplementsEvidence(ctx, tx, req.(string), file.(string), "doc-mention", 0.6); err != nil {
				return nil, err
			}
			count++
		}
		return nil, nil
	})
	return count, err
}

// deriveTestColocationImplements implements spec §4.8's
// "test-colocation" evidence: when a requirement is implemented in a
// test file that pairs with an implementation file by naming
// convention, extend IMPLEMENTS to the implementation file too. Base
// confidence 0.5.
func (s *Service) deriveTestColocationImplements(ctx context.Context, since string) (int, error) {
	count := 0
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		files, err := tx.Run(ctx, `MATCH (f:File) RETURN f.path AS path`, nil)
		if err != nil {
			return nil, err
		}
		fileRecords, err := files.Collect(ctx)
		if err != nil {
			return nil, err
		}
		known := map[string]bool{}
		for _, rec := range fileRecords {
			p, _ := rec.Get("path")
			known[p.(string)] = true
		}

		implemented, err := tx.Run(ctx, `
MATCH (r:Requirement)-[:IMPLEMENTS]->(f:File)
WHERE $since = '' OR EXISTS {
  MATCH (gc:GitCommit)-[:TOUCHED]->(f)
  WHERE gc.timestamp >= $since
}
RETURN DISTINCT r.id AS req, f.path AS file`,
			map[string]any{"since": since})
		if err != nil {
			return nil, err
		}
		pairs, err := implemented.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range pairs {
			req, _ := rec.Get("req")
			file, _ := rec.Get("file")
			candidate := TestColocationCandidate(file.(string), known)
			if candidate == "" {
				continue
			}
			if err := mergeImplementsEvidence(ctx, tx, req.(string), candidate, "test-colocation", 0.5); err != nil {
				return nil, err
			}
			count++
		}
		return nil, nil
	})
	return count, err
}

// mergeImplementsEvidence reads the current IMPLEMENTS edge (if any),
// folds in the new evidence via noisy-OR, and writes back sources[]
// and confidence (spec I7).
func mergeImplementsEvidence(ctx context.Context, tx neo4j.ManagedTransaction, reqID, filePath, kind string, confidence float64) error {
	rows, err := tx.Run(ctx, `
MATCH (r:Requirement {id: $req})-[rel:IMPLEMENTS]->(f:File {path: $file})
RETURN rel.confidence AS confidence, rel.sources AS sources`,
		map[string]any{"req": reqID, "file": filePath})
	if err != nil {
		return err
	}
	record, err := rows.Single(ctx)

	existing := 0.0
	var sources []string
	if err == nil {
		if c, ok := record.Get("confidence"); ok && c != nil {
			existing, _ = c.(float64)
		}
		if raw, ok := record.Get("sources"); ok && raw != nil {
			if list, ok := raw.([]any); ok {
				for _, v := range list {
					sources = append(sources, v.(string))
				}
			}
		}
	}

	for _, k := range sources {
		if k == kind {
			return nil // already recorded this evidence kind (P6)
		}
	}
	sources = append(sources, kind)
	newConfidence := CombineConfidence(existing, confidence)

	_, err = tx.Run(ctx, `
MERGE (r:Requirement {id: $req})
MERGE (f:File {path: $file})
MERGE (r)-[rel:IMPLEMENTS]->(f)
SET rel.confidence = $confidence, rel.sources = $sources`,
		map[string]any{"req": reqID, "file": filePath, "confidence": newConfidence, "sources": sources})
	return err
}

const symbolOverlapThreshold = 0.8

// enrichRefactoredToWithSymbolOverlap adds evidence to existing
// REFACTORED_TO (rename) edges when the old and new files share at
// least 80% of their symbol names (spec §4.8 "REFACTORED_TO").
func (s *Service) enrichRefactoredToWithSymbolOverlap(ctx context.Context) (int, error) {
	count := 0
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		rows, err := tx.Run(ctx, `
MATCH (a:File)-[rel:REFACTORED_TO {refactor_type: "rename"}]->(b:File)
RETURN a.path AS oldPath, b.path AS newPath`, nil)
		if err != nil {
			return nil, err
		}
		pairs, err := rows.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range pairs {
			oldPath, _ := rec.Get("oldPath")
			newPath, _ := rec.Get("newPath")
			overlap, err := symbolOverlap(ctx, tx, oldPath.(string), newPath.(string))
			if err != nil {
				return nil, err
			}
			if overlap < symbolOverlapThreshold {
				continue
			}
			if _, err := tx.Run(ctx, `
MATCH (a:File {path: $old})-[rel:REFACTORED_TO]->(b:File {path: $new})
SET rel.symbol_overlap = $overlap, rel.confidence = $confidence`,
				map[string]any{
					"old": oldPath, "new": newPath, "overlap": overlap,
					"confidence": CombineConfidence(0.8, overlap),
				}); err != nil {
				return nil, err
			}
			count++
		}
		return nil, nil
	})
	return count, err
}

func symbolOverlap(ctx context.Context, tx neo4j.ManagedTransaction, oldPath, newPath string) (float64, error) {
	rows, err := tx.Run(ctx, `
MATCH (s:Symbol {file_path: $old}) WITH collect(s.name) AS oldNames
MATCH (t:Symbol {file_path: $new}) WITH oldNames, collect(t.name) AS newNames
RETURN oldNames, newNames`, map[string]any{"old": oldPath, "new": newPath})
	if err != nil {
		return 0, err
	}
	record, err := rows.Single(ctx)
	if err != nil {
		return 0, nil
	}
	oldRaw, _ := record.Get("oldNames")
	newRaw, _ := record.Get("newNames")
	oldSet := toStringSet(oldRaw)
	newSet := toStringSet(newRaw)
	if len(oldSet) == 0 || len(newSet) == 0 {
		return 0, nil
	}
	shared := 0
	for name := range oldSet {
		if newSet[name] {
			shared++
		}
	}
	denom := len(oldSet)
	if len(newSet) > denom {
		denom = len(newSet)
	}
	return float64(shared) / float64(denom), nil
}

func toStringSet(raw any) map[string]bool {
	out := map[string]bool{}
	list, ok := raw.([]any)
	if !ok {
		return out
	}
	for _, v := range list {
		if s, ok := v.(string); ok {
			out[s] = true
		}
	}
	return out
}

// deriveDependsOn is the optional transitive-reachability pass over
// IMPORTS (spec §4.8 "DEPENDS_ON ... may be skipped").
func (s *Service) deriveDependsOn(ctx context.Context) (int, error) {
	count := 0
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		rows, err := tx.Run(ctx, `
MATCH (a:File)-[:IMPORTS*1..3]->(b:File) WHERE a <> b
RETURN DISTINCT a.path AS from, b.path AS to`, nil)
		if err != nil {
			return nil, err
		}
		records, err := rows.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			from, _ := rec.Get("from")
			to, _ := rec.Get("to")
			if _, err := tx.Run(ctx, `
MATCH (a:File {path: $from}), (b:File {path: $to})
MERGE (a)-[:DEPENDS_ON]->(b)`,
				map[string]any{"from": from, "to": to}); err != nil {
				return nil, err
			}
			count++
		}
		return nil, nil
	})
	return count, err
}
