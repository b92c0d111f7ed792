// Package commitingest parses git history and writes GitCommit/File
// nodes and their TOUCHED/REFACTORED_TO/IMPLEMENTS/EVOLVES_FROM edges
// in batches (spec §4.5).
package commitingest

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/kgraph/internal/git"
	"github.com/ternarybob/kgraph/internal/graph"
)

const (
	batchSize     = 750
	defaultWorkers = 6
)

// Options configures one ingestion run.
type Options struct {
	Limit      int
	SinceHash  string // delta mode: only commits strictly after this hash
	Workers    int
	SubpathOnly string
}

// Result summarizes one run for the orchestrator's progress payload.
type Result struct {
	CommitsWritten int
	FilesTouched   int
	RenamesWritten int
	Requirements   int
	EvolutionEdges int
	SlowCommits    []string
}

// Service drives C5 end to end: enumerate, compute LOC, batch-write,
// and post-pass the commit chain.
type Service struct {
	reader *git.Reader
	client *graph.Client
	writer *graph.BatchWriter
	logger *logrus.Entry
}

func NewService(reader *git.Reader, client *graph.Client, logger *logrus.Logger) *Service {
	return &Service{
		reader: reader,
		client: client,
		writer: graph.NewBatchWriter(client),
		logger: logger.WithField("component", "commitingest"),
	}
}

// commitRecord is a Commit enriched with per-file lines_after, ready
// to flatten into NodeRow/EdgeRow batches.
type commitRecord struct {
	commit git.Commit
	locAfter map[string]int
}

// Run ingests commits per Options, returning before the stop signal
// fires if ctx is canceled between batches (spec §5 cancellation).
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	var commits []git.Commit
	var err error
	if opts.SinceHash != "" {
		commits, err = s.reader.ListCommitsSince(ctx, opts.SinceHash, opts.Limit)
	} else {
		commits, err = s.reader.ListCommits(ctx, opts.Limit, "")
	}
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	if opts.SubpathOnly != "" {
		commits = filterBySubpath(commits, opts.SubpathOnly)
	}
	if len(commits) == 0 {
		return &Result{}, nil
	}

	records, slow, err := s.computeLOC(ctx, commits, opts.Workers)
	if err != nil {
		return nil, err
	}

	result := &Result{SlowCommits: slow}
	if err := s.writeCommits(ctx, records, result); err != nil {
		return nil, err
	}
	if err := s.writeChain(ctx, commits); err != nil {
		return nil, err
	}
	result.CommitsWritten = len(commits)
	return result, nil
}

func filterBySubpath(commits []git.Commit, prefix string) []git.Commit {
	out := make([]git.Commit, 0, len(commits))
	for _, c := range commits {
		var files []git.FileChange
		for _, f := range c.Files {
			if strings.HasPrefix(f.Path, prefix) {
				files = append(files, f)
			}
		}
		if len(files) > 0 {
			c.Files = files
			out = append(out, c)
		}
	}
	return out
}

// computeLOC fetches each commit's per-file lines_after with a bounded
// worker pool (spec §4.5 "Concurrency").
func (s *Service) computeLOC(ctx context.Context, commits []git.Commit, workers int) ([]commitRecord, []string, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}
	records := make([]commitRecord, len(commits))
	slowCh := make(chan string, len(commits))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, c := range commits {
		i, c := i, c
		g.Go(func() error {
			loc := map[string]int{}
			for _, f := range c.Files {
				if f.ChangeType == git.ChangeDeleted {
					loc[f.Path] = 0
					continue
				}
				n, err := s.reader.LineCountAt(gctx, c.Hash, f.Path)
				if err != nil {
					slowCh <- c.Hash
					continue
				}
				loc[f.Path] = n
			}
			records[i] = commitRecord{commit: c, locAfter: loc}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("compute lines-after: %w", err)
	}
	close(slowCh)
	var slow []string
	for h := range slowCh {
		slow = append(slow, h)
	}
	return records, slow, nil
}

// writeCommits batches GitCommit/File/TOUCHED/REFACTORED_TO/IMPLEMENTS/
// EVOLVES_FROM writes per spec §4.5 steps 1-5.
func (s *Service) writeCommits(ctx context.Context, records []commitRecord, result *Result) error {
	commitRows := make([]graph.NodeRow, 0, len(records))
	touchedRows := make([]graph.EdgeRow, 0, len(records)*4)
	renameRows := make([]graph.EdgeRow, 0)
	fileRows := map[string]graph.NodeRow{}
	requirementRows := map[string]graph.NodeRow{}
	implementsRows := make([]graph.EdgeRow, 0)
	evolutionRows := make([]graph.EdgeRow, 0)

	for _, rec := range records {
		c := rec.commit
		commitRows = append(commitRows, graph.NodeRow{Props: map[string]any{
			"hash": c.Hash, "uid": c.Hash, "message": c.Message,
			"author": c.Author, "email": c.Email, "timestamp": c.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			"branch": c.Branch,
		}})

		for _, f := range c.Files {
			locAfter := rec.locAfter[f.Path]
			ext := path.Ext(f.Path)
			fileRows[f.Path] = graph.NodeRow{Props: map[string]any{
				"path": f.Path, "extension": ext,
				"is_code": isCodeExt(ext), "is_doc": isDocExt(ext),
			}}
			touchedRows = append(touchedRows, graph.EdgeRow{
				FromLabel: "GitCommit", FromKey: "hash", FromValue: c.Hash,
				ToLabel: "File", ToKey: "path", ToValue: f.Path,
				Props: map[string]any{
					"change_type": string(f.ChangeType),
					"timestamp":   c.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
					"lines_after": locAfter,
					"additions":   f.Additions,
					"deletions":   f.Deletions,
				},
			})
			if f.ChangeType == git.ChangeRenamed && f.OldPath != "" {
				renameRows = append(renameRows, graph.EdgeRow{
					FromLabel: "File", FromKey: "path", FromValue: f.OldPath,
					ToLabel: "File", ToKey: "path", ToValue: f.Path,
					Props: map[string]any{
						"refactor_type": "rename", "commit": c.Hash,
						"timestamp": c.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
					},
				})
			}
		}

		reqIDs := extractRequirementIDs(c.Message)
		for _, reqID := range reqIDs {
			requirementRows[reqID] = graph.NodeRow{Props: map[string]any{"id": reqID}}
			implementsRows = append(implementsRows, graph.EdgeRow{
				FromLabel: "GitCommit", FromKey: "hash", FromValue: c.Hash,
				ToLabel: "Requirement", ToKey: "id", ToValue: reqID,
				Props: map[string]any{
					"timestamp": c.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
					"sources":   []string{"commit-message"},
					"confidence": 0.9,
				},
			})
		}
		result.Requirements += len(reqIDs)

		for _, ev := range detectEvolutionPatterns(c.Message) {
			requirementRows[ev.newID] = graph.NodeRow{Props: map[string]any{"id": ev.newID}}
			requirementRows[ev.oldID] = graph.NodeRow{Props: map[string]any{"id": ev.oldID}}
			evolutionRows = append(evolutionRows, graph.EdgeRow{
				FromLabel: "Requirement", FromKey: "id", FromValue: ev.newID,
				ToLabel: "Requirement", ToKey: "id", ToValue: ev.oldID,
				Props: map[string]any{
					"commit": c.Hash,
					"timestamp": c.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
					"edge_kind": ev.kind,
				},
			})
			result.EvolutionEdges++
		}
	}

	if err := s.writer.MergeNodes(ctx, "GitCommit", "hash", commitRows, batchSize); err != nil {
		return err
	}

	fileRowSlice := make([]graph.NodeRow, 0, len(fileRows))
	for _, r := range fileRows {
		fileRowSlice = append(fileRowSlice, r)
	}
	if err := s.writer.MergeNodes(ctx, "File", "path", fileRowSlice, batchSize); err != nil {
		return err
	}
	result.FilesTouched = len(fileRowSlice)

	reqRowSlice := make([]graph.NodeRow, 0, len(requirementRows))
	for _, r := range requirementRows {
		reqRowSlice = append(reqRowSlice, r)
	}
	if err := s.writer.MergeNodes(ctx, "Requirement", "id", reqRowSlice, batchSize); err != nil {
		return err
	}

	if err := s.writer.MergeEdges(ctx, "TOUCHED", touchedRows, batchSize); err != nil {
		return err
	}
	if err := s.writer.MergeEdges(ctx, "REFACTORED_TO", renameRows, batchSize); err != nil {
		return err
	}
	result.RenamesWritten = len(renameRows)
	if err := s.writer.MergeEdges(ctx, "IMPLEMENTS", implementsRows, batchSize); err != nil {
		return err
	}

	// evolutionRows mix EVOLVES_FROM and DEPRECATED_BY; split by kind
	// since MergeEdges writes a single relationship type per call.
	var evolves, deprecated []graph.EdgeRow
	for _, r := range evolutionRows {
		kind, _ := r.Props["edge_kind"].(string)
		delete(r.Props, "edge_kind")
		if kind == "DEPRECATED_BY" {
			deprecated = append(deprecated, r)
		} else {
			evolves = append(evolves, r)
		}
	}
	if err := s.writer.MergeEdges(ctx, "EVOLVES_FROM", evolves, batchSize); err != nil {
		return err
	}
	if err := s.writer.MergeEdges(ctx, "DEPRECATED_BY", deprecated, batchSize); err != nil {
		return err
	}

	return s.refreshFileLOC(ctx, records)
}

// refreshFileLOC sets File.loc to the most recent lines_after observed
// for each path across this batch (spec §4.5 step 2 "update f.loc").
func (s *Service) refreshFileLOC(ctx context.Context, records []commitRecord) error {
	latest := map[string]struct {
		loc int
		ts  string
	}{}
	for _, rec := range records {
		ts := rec.commit.Timestamp.UTC().Format("2006-01-02T15:04:05Z")
		for _, f := range rec.commit.Files {
			if f.ChangeType == git.ChangeDeleted {
				continue
			}
			cur, ok := latest[f.Path]
			if !ok || ts > cur.ts {
				latest[f.Path] = struct {
					loc int
					ts  string
				}{loc: rec.locAfter[f.Path], ts: ts}
			}
		}
	}
	rows := make([]graph.NodeRow, 0, len(latest))
	for p, v := range latest {
		rows = append(rows, graph.NodeRow{Props: map[string]any{"path": p, "loc": v.loc}})
	}
	return s.writer.MergeNodes(ctx, "File", "path", rows, batchSize)
}

// writeChain sorts commits by (timestamp, hash) ascending and links
// consecutive pairs with NEXT_COMMIT/PREV_COMMIT (spec §4.5 "Post-pass").
func (s *Service) writeChain(ctx context.Context, commits []git.Commit) error {
	sorted := make([]git.Commit, len(commits))
	copy(sorted, commits)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].Hash < sorted[j].Hash
	})

	var next, prev []graph.EdgeRow
	for i := 0; i+1 < len(sorted); i++ {
		a, b := sorted[i], sorted[i+1]
		ts := b.Timestamp.UTC().Format("2006-01-02T15:04:05Z")
		next = append(next, graph.EdgeRow{
			FromLabel: "GitCommit", FromKey: "hash", FromValue: a.Hash,
			ToLabel: "GitCommit", ToKey: "hash", ToValue: b.Hash,
			Props: map[string]any{"timestamp": ts},
		})
		prev = append(prev, graph.EdgeRow{
			FromLabel: "GitCommit", FromKey: "hash", FromValue: b.Hash,
			ToLabel: "GitCommit", ToKey: "hash", ToValue: a.Hash,
			Props: map[string]any{"timestamp": ts},
		})
	}
	if err := s.writer.MergeEdges(ctx, "NEXT_COMMIT", next, batchSize); err != nil {
		return err
	}
	return s.writer.MergeEdges(ctx, "PREV_COMMIT", prev, batchSize)
}

var codeExtensions = map[string]bool{".py": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".go": true}
var docExtensions = map[string]bool{".md": true, ".rst": true, ".txt": true, ".adoc": true}

func isCodeExt(ext string) bool { return codeExtensions[ext] }
func isDocExt(ext string) bool  { return docExtensions[ext] }
