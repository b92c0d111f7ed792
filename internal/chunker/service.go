package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"
	"github.com/ternarybob/kgraph/internal/graph"
)

// Service chunks files and documents and replaces their prior chunks
// transactionally, preserving invariants I4/I5 (spec §4.4, §5).
type Service struct {
	client *graph.Client
	logger *logrus.Entry
}

func NewService(client *graph.Client, logger *logrus.Logger) *Service {
	return &Service{
		client: client,
		logger: logger.WithField("component", "chunker"),
	}
}

// Result summarizes one file's chunking outcome.
type Result struct {
	Path      string
	Kind      Kind
	Chunks    int
	Skipped   bool
	SkipCause string
}

// ChunkFile replaces path's chunks with freshly computed ones. Markdown
// and RST files produce a Document + CONTAINS_CHUNK edges; code files
// produce bare Chunk nodes linked only by PART_OF.
func (s *Service) ChunkFile(ctx context.Context, path string, content []byte) (Result, error) {
	isDoc := strings.HasSuffix(path, ".md") || strings.HasSuffix(path, ".rst") ||
		strings.HasSuffix(path, ".txt") || strings.HasSuffix(path, ".adoc")
	lang := DetectLanguage(path)

	var chunks []Chunk
	var kind Kind
	switch {
	case isDoc:
		chunks = ChunkMarkdown(path, content)
		kind = KindDoc
	case lang != "":
		chunks = ChunkCode(path, lang, content)
		kind = KindCode
	default:
		return Result{Path: path, Skipped: true, SkipCause: "unrecognized extension"}, nil
	}

	if err := s.replaceChunks(ctx, path, isDoc, chunks); err != nil {
		return Result{}, fmt.Errorf("chunk %s: %w", path, err)
	}

	return Result{Path: path, Kind: kind, Chunks: len(chunks)}, nil
}

// replaceChunks deletes a file's existing chunks and their
// CONTAINS_CHUNK/PART_OF edges, then inserts the new set within a
// single write transaction (spec §4.4 "Invariant and edge writing",
// §5 "Chunk replacement for a file is transactional").
func (s *Service) replaceChunks(ctx context.Context, path string, isDoc bool, chunks []Chunk) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx,
			`MATCH (c:Chunk {file_path: $path}) DETACH DELETE c`,
			map[string]any{"path": path}); err != nil {
			return nil, fmt.Errorf("delete existing chunks: %w", err)
		}

		if isDoc {
			if _, err := tx.Run(ctx,
				`MERGE (d:Document {path: $path}) ON CREATE SET d.title = $path, d.type = "markdown"`,
				map[string]any{"path": path}); err != nil {
				return nil, fmt.Errorf("merge document: %w", err)
			}
		}

		for _, c := range chunks {
			props := map[string]any{
				"id":           c.ID,
				"kind":         string(c.Kind),
				"heading":      c.Heading,
				"section":      c.Section,
				"file_path":    c.FilePath,
				"span":         fmt.Sprintf("%d:%d", c.StartLine, c.EndLine),
				"text":         c.Text,
				"length":       len(c.Text),
				"symbol":       c.Symbol,
				"symbol_type":  c.SymbolType,
				"requirements": c.Requirements,
				"sprints":      c.Sprints,
			}
			if _, err := tx.Run(ctx,
				`MERGE (c:Chunk {id: $id}) SET c += $props`,
				map[string]any{"id": c.ID, "props": props}); err != nil {
				return nil, fmt.Errorf("merge chunk %s: %w", c.ID, err)
			}
			if _, err := tx.Run(ctx,
				`MATCH (c:Chunk {id: $id}), (f:File {path: $path}) MERGE (c)-[:PART_OF]->(f)`,
				map[string]any{"id": c.ID, "path": path}); err != nil {
				return nil, fmt.Errorf("link chunk %s PART_OF: %w", c.ID, err)
			}
			if isDoc {
				if _, err := tx.Run(ctx,
					`MATCH (c:Chunk {id: $id}), (d:Document {path: $path}) MERGE (d)-[:CONTAINS_CHUNK]->(c)`,
					map[string]any{"id": c.ID, "path": path}); err != nil {
					return nil, fmt.Errorf("link chunk %s CONTAINS_CHUNK: %w", c.ID, err)
				}
			}
			for _, reqID := range c.Requirements {
				if _, err := tx.Run(ctx,
					`MATCH (c:Chunk {id: $id}) MERGE (r:Requirement {id: $req}) MERGE (c)-[:MENTIONS]->(r)`,
					map[string]any{"id": c.ID, "req": reqID}); err != nil {
					return nil, fmt.Errorf("link chunk %s MENTIONS %s: %w", c.ID, reqID, err)
				}
			}
		}
		return nil, nil
	})
	return err
}
