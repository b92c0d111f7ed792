package sprint

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"

	"github.com/ternarybob/kgraph/internal/git"
	"github.com/ternarybob/kgraph/internal/graph"
)

const statusFilePath = "docs/sprints/planning/SPRINT_STATUS.md"

// Service parses sprint windows and links Sprints to commits and
// documents (spec §4.9).
type Service struct {
	client   *graph.Client
	reader   *git.Reader
	repoPath string
	logger   *logrus.Entry

	mu      sync.RWMutex
	cached  []Window
	cachedAt time.Time
}

func NewService(client *graph.Client, reader *git.Reader, repoPath string, logger *logrus.Logger) *Service {
	return &Service{client: client, reader: reader, repoPath: repoPath, logger: logger.WithField("component", "sprint")}
}

// Result summarizes one run for the orchestrator's progress payload.
type Result struct {
	SprintsFound     int
	CommitsLinked    int
	DocumentsLinked  int
}

// Run parses SPRINT_STATUS.md, merges Sprint nodes, resolves each
// sprint's commit range via git log --since/--until, and links
// matching documents (spec §4.9 steps 1-3).
func (s *Service) Run(ctx context.Context, now time.Time) (*Result, error) {
	windows, err := s.GetSprintWindows(ctx, now)
	if err != nil {
		return nil, err
	}
	result := &Result{SprintsFound: len(windows)}

	for _, w := range windows {
		if err := s.mergeSprint(ctx, w); err != nil {
			return nil, fmt.Errorf("merge sprint %d: %w", w.Number, err)
		}
		commits, err := s.reader.ListCommitsInRange(ctx, w.StartDate, w.EndDate)
		if err != nil {
			return nil, fmt.Errorf("list commits for sprint %d: %w", w.Number, err)
		}
		if err := s.linkCommits(ctx, w.Number, commits); err != nil {
			return nil, err
		}
		result.CommitsLinked += len(commits)

		docsLinked, err := s.linkDocuments(ctx, w.Number)
		if err != nil {
			return nil, err
		}
		result.DocumentsLinked += docsLinked
	}
	return result, nil
}

// GetSprintWindows returns cached sprint windows, re-parsing
// SPRINT_STATUS.md only when the cache is empty (spec §4.9 "Sprint
// windows are cached; downstream ingesters query GetSprintWindows()
// rather than re-parsing").
func (s *Service) GetSprintWindows(ctx context.Context, now time.Time) ([]Window, error) {
	s.mu.RLock()
	if s.cached != nil {
		defer s.mu.RUnlock()
		return s.cached, nil
	}
	s.mu.RUnlock()

	content, err := os.ReadFile(s.repoPath + "/" + statusFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.cached = []Window{}
			s.cachedAt = now
			s.mu.Unlock()
			return s.cached, nil
		}
		return nil, fmt.Errorf("read %s: %w", statusFilePath, err)
	}

	windows := ParseSprintStatus(string(content), now)
	s.mu.Lock()
	s.cached = windows
	s.cachedAt = now
	s.mu.Unlock()
	return windows, nil
}

func (s *Service) mergeSprint(ctx context.Context, w Window) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
MERGE (s:Sprint {number: $number})
SET s.name = $name, s.start_date = $start, s.end_date = $end`,
			map[string]any{
				"number": w.Number, "name": w.Name,
				"start": w.StartDate.UTC().Format("2006-01-02"),
				"end":   w.EndDate.UTC().Format("2006-01-02"),
			})
		return nil, err
	})
	return err
}

func (s *Service) linkCommits(ctx context.Context, number int, commits []git.Commit) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, c := range commits {
			if _, err := tx.Run(ctx, `
MATCH (s:Sprint {number: $number}), (g:GitCommit {hash: $hash})
MERGE (s)-[:INCLUDES]->(g)`,
				map[string]any{"number": number, "hash": c.Hash}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// linkDocuments creates (Sprint)-[:CONTAINS_DOC]->(Document) for every
// document whose path matches docs/sprints/sprint-<number>/** (spec
// §4.9 step 3).
func (s *Service) linkDocuments(ctx context.Context, number int) (int, error) {
	prefix := fmt.Sprintf("docs/sprints/sprint-%d/", number)
	count := 0
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		rows, err := tx.Run(ctx, `MATCH (d:Document) WHERE d.path STARTS WITH $prefix RETURN d.path AS path`,
			map[string]any{"prefix": prefix})
		if err != nil {
			return nil, err
		}
		records, err := rows.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			p, _ := rec.Get("path")
			if _, err := tx.Run(ctx, `
MATCH (s:Sprint {number: $number}), (d:Document {path: $path})
MERGE (s)-[:CONTAINS_DOC]->(d)`,
				map[string]any{"number": number, "path": p}); err != nil {
				return nil, err
			}
			count++
		}
		return nil, nil
	})
	return count, err
}
