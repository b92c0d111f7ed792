package linker

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"

	"github.com/ternarybob/kgraph/internal/graph"
)

// Service runs the document-to-code linking pass over every doc chunk
// (spec §4.7).
type Service struct {
	client *graph.Client
	logger *logrus.Entry
}

func NewService(client *graph.Client, logger *logrus.Logger) *Service {
	return &Service{client: client, logger: logger.WithField("component", "linker")}
}

// ChunkInput is one doc chunk to scan, carrying the mention hashes
// recorded on its last scan so Run can delta-skip unchanged chunks
// (spec §4.7).
type ChunkInput struct {
	ID                      string
	Heading                 string
	Text                    string
	PriorFileMentionsHash   string
	PriorCommitMentionsHash string
}

// Result summarizes one run for the orchestrator's progress payload.
type Result struct {
	ChunksScanned    int
	ChunksSkipped    int
	FileMentions     int
	CommitMentions   int
	SymbolMentions   int
	LibraryMentions  int
}

// Run scans every chunk for file/commit/symbol/library mentions,
// writes MENTIONS_* edges, prunes stale ones, rolls them up to the
// owning Document, refreshes sprint file links, and bridges
// library-mentioning chunks to the files that use that library.
func (s *Service) Run(ctx context.Context, chunks []ChunkInput, knownFiles map[string]bool, basenames *BasenameIndex, commitHashes *CommitHashIndex) (*Result, error) {
	result := &Result{}

	for _, c := range chunks {
		text := c.Heading + "\n" + c.Text
		mentionsHash := hashText(text)
		result.ChunksScanned++

		if mentionsHash == c.PriorFileMentionsHash && mentionsHash == c.PriorCommitMentionsHash {
			result.ChunksSkipped++
			continue
		}

		fileMentions := ScanFileMentions(text, knownFiles, basenames)
		commitMentions := ScanCommitMentions(text, commitHashes)

		if err := s.writeFileMentions(ctx, c.ID, fileMentions, mentionsHash); err != nil {
			return nil, fmt.Errorf("write file mentions for %s: %w", c.ID, err)
		}
		result.FileMentions += len(fileMentions)

		if err := s.writeCommitMentions(ctx, c.ID, commitMentions, mentionsHash); err != nil {
			return nil, fmt.Errorf("write commit mentions for %s: %w", c.ID, err)
		}
		result.CommitMentions += len(commitMentions)

		symbolCount, err := s.writeSymbolMentions(ctx, c.ID, text)
		if err != nil {
			return nil, fmt.Errorf("write symbol mentions for %s: %w", c.ID, err)
		}
		result.SymbolMentions += symbolCount

		libraryCount, err := s.writeLibraryMentions(ctx, c.ID, text)
		if err != nil {
			return nil, fmt.Errorf("write library mentions for %s: %w", c.ID, err)
		}
		result.LibraryMentions += libraryCount
	}

	if err := s.rollupToDocuments(ctx); err != nil {
		return nil, err
	}
	if err := s.refreshSprintFileLinks(ctx); err != nil {
		return nil, err
	}
	if err := s.bridgeLibraryChunksToFiles(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) writeFileMentions(ctx context.Context, chunkID string, mentions []FileMention, mentionsHash string) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx,
			`MATCH (c:Chunk {id: $id})-[r:MENTIONS_FILE {source:"doc-text"}]->() DELETE r`,
			map[string]any{"id": chunkID}); err != nil {
			return nil, err
		}
		for _, m := range mentions {
			if _, err := tx.Run(ctx,
				`MATCH (c:Chunk {id: $id}) MERGE (f:File {path: $path})
MERGE (c)-[r:MENTIONS_FILE]->(f)
SET r.source = "doc-text", r.term = $term, r.method = $method, r.confidence = $confidence`,
				map[string]any{
					"id": chunkID, "path": m.Path, "term": m.Term,
					"method": m.Method, "confidence": m.Confidence,
				}); err != nil {
				return nil, err
			}
		}
		_, err := tx.Run(ctx,
			`MATCH (c:Chunk {id: $id}) SET c.file_mentions_hash = $hash`,
			map[string]any{"id": chunkID, "hash": mentionsHash})
		return nil, err
	})
	return err
}

func (s *Service) writeCommitMentions(ctx context.Context, chunkID string, mentions []CommitMention, mentionsHash string) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx,
			`MATCH (c:Chunk {id: $id})-[r:MENTIONS_COMMIT]->() DELETE r`,
			map[string]any{"id": chunkID}); err != nil {
			return nil, err
		}
		for _, m := range mentions {
			if _, err := tx.Run(ctx,
				`MATCH (c:Chunk {id: $id}), (g:GitCommit {hash: $hash})
MERGE (c)-[r:MENTIONS_COMMIT]->(g)
SET r.confidence = $confidence`,
				map[string]any{"id": chunkID, "hash": m.Hash, "confidence": m.Confidence}); err != nil {
				return nil, err
			}
		}
		_, err := tx.Run(ctx,
			`MATCH (c:Chunk {id: $id}) SET c.commit_mentions_hash = $hash`,
			map[string]any{"id": chunkID, "hash": mentionsHash})
		return nil, err
	})
	return err
}

const minSymbolTermLength = 3

// writeSymbolMentions finds symbol names (>=3 chars) contained in text
// with a substring match over every Symbol node (no full-text index),
// per spec §4.7 "Symbols".
func (s *Service) writeSymbolMentions(ctx context.Context, chunkID, text string) (int, error) {
	if len(text) < minSymbolTermLength {
		return 0, nil
	}
	count := 0
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx,
			`MATCH (c:Chunk {id: $id})-[r:MENTIONS_SYMBOL]->() DELETE r`,
			map[string]any{"id": chunkID}); err != nil {
			return nil, err
		}
		rows, err := tx.Run(ctx,
			`MATCH (s:Symbol) WHERE size(s.name) >= $minLen AND $text CONTAINS s.name
RETURN DISTINCT s.symbol_id AS symbol_id, s.name AS name`,
			map[string]any{"minLen": minSymbolTermLength, "text": text})
		if err != nil {
			return nil, err
		}
		records, err := rows.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			symbolID, _ := rec.Get("symbol_id")
			name, _ := rec.Get("name")
			if _, err := tx.Run(ctx,
				`MATCH (c:Chunk {id: $id}), (s:Symbol {symbol_id: $symbolID})
MERGE (c)-[r:MENTIONS_SYMBOL]->(s)
SET r.term = $name, r.score = 1.0`,
				map[string]any{"id": chunkID, "symbolID": symbolID, "name": name}); err != nil {
				return nil, err
			}
			count++
		}
		return nil, nil
	})
	return count, err
}

// writeLibraryMentions finds canonical library names contained in text
// with a substring match over every Library node (spec §4.7 "Libraries").
func (s *Service) writeLibraryMentions(ctx context.Context, chunkID, text string) (int, error) {
	count := 0
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx,
			`MATCH (c:Chunk {id: $id})-[r:MENTIONS_LIBRARY]->() DELETE r`,
			map[string]any{"id": chunkID}); err != nil {
			return nil, err
		}
		rows, err := tx.Run(ctx,
			`MATCH (l:Library) WHERE $text CONTAINS l.name RETURN l.name AS name`,
			map[string]any{"text": text})
		if err != nil {
			return nil, err
		}
		records, err := rows.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			name, _ := rec.Get("name")
			if _, err := tx.Run(ctx,
				`MATCH (c:Chunk {id: $id}), (l:Library {name: $name})
MERGE (c)-[:MENTIONS_LIBRARY]->(l)`,
				map[string]any{"id": chunkID, "name": name}); err != nil {
				return nil, err
			}
			count++
		}
		return nil, nil
	})
	return count, err
}

// rollupToDocuments aggregates per-document occurrences from its
// chunks' MENTIONS_FILE/MENTIONS_COMMIT edges (spec §4.7 "Document-level rollups").
func (s *Service) rollupToDocuments(ctx context.Context) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
MATCH (d:Document)-[:CONTAINS_CHUNK]->(c:Chunk)-[:MENTIONS_FILE]->(f:File)
WITH d, f, count(c) AS occurrences
MERGE (d)-[r:MENTIONS_FILE {source: "doc-text-rollup"}]->(f)
SET r.chunk_occurrences = occurrences`, nil); err != nil {
			return nil, err
		}
		_, err := tx.Run(ctx, `
MATCH (d:Document)-[:CONTAINS_CHUNK]->(c:Chunk)-[:MENTIONS_COMMIT]->(g:GitCommit)
WITH d, g, count(c) AS occurrences
MERGE (d)-[r:MENTIONS_COMMIT {source: "doc-text-rollup"}]->(g)
SET r.chunk_occurrences = occurrences`, nil)
		return nil, err
	})
	return err
}

// refreshSprintFileLinks recomputes (Sprint)-[:INVOLVES_FILE]->(File)
// from commit activity within each sprint's included commits (spec §4.7).
func (s *Service) refreshSprintFileLinks(ctx context.Context) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
MATCH (s:Sprint)-[:INCLUDES]->(g:GitCommit)-[:TOUCHED]->(f:File)
WITH s, f, count(g) AS commit_count
MERGE (s)-[r:INVOLVES_FILE {source: "sprint-commits"}]->(f)
SET r.commit_count = commit_count`, nil)
		return nil, err
	})
	return err
}

// bridgeLibraryChunksToFiles links doc chunks mentioning a library to
// files that use that library (spec §4.7 "A bridging pass").
func (s *Service) bridgeLibraryChunksToFiles(ctx context.Context) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
MATCH (c:Chunk)-[:MENTIONS_LIBRARY]->(l:Library)<-[:USES_LIBRARY]-(f:File)
MERGE (c)-[r:RELATES_TO {via: "library"}]->(f)
SET r.library = l.name`, nil)
		return nil, err
	})
	return err
}
