package orchestrator

import (
	"context"
	"fmt"

	"github.com/ternarybob/kgraph/internal/graph"
	"github.com/ternarybob/kgraph/internal/linker"
)

// knownFilePaths returns every File.path currently in the graph, used
// to resolve bare-filename mentions during the connectivity stage.
func knownFilePaths(ctx context.Context, client *graph.Client) (map[string]bool, []string, error) {
	rows, err := client.RunRead(ctx, `MATCH (f:File) RETURN f.path AS path`, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("list known files: %w", err)
	}
	known := make(map[string]bool, len(rows))
	paths := make([]string, 0, len(rows))
	for _, row := range rows {
		if p, ok := row["path"].(string); ok {
			known[p] = true
			paths = append(paths, p)
		}
	}
	return known, paths, nil
}

// knownCommitHashes returns every GitCommit.hash currently in the
// graph, used to resolve short-hash mentions.
func knownCommitHashes(ctx context.Context, client *graph.Client) ([]string, error) {
	rows, err := client.RunRead(ctx, `MATCH (c:GitCommit) RETURN c.hash AS hash`, nil)
	if err != nil {
		return nil, fmt.Errorf("list known commits: %w", err)
	}
	hashes := make([]string, 0, len(rows))
	for _, row := range rows {
		if h, ok := row["hash"].(string); ok {
			hashes = append(hashes, h)
		}
	}
	return hashes, nil
}

// docChunksToScan returns every doc Chunk's id/heading/text plus its
// previously recorded mention hashes, so the linker's mention-scanning
// pass can delta-skip chunks whose text hasn't changed since the last
// run (spec §4.7 "record file_mentions_hash/commit_mentions_hash to
// allow delta skip").
func docChunksToScan(ctx context.Context, client *graph.Client) ([]linker.ChunkInput, error) {
	rows, err := client.RunRead(ctx,
		`MATCH (c:Chunk {kind: 'doc'})
RETURN c.id AS id, c.heading AS heading, c.text AS text,
       c.file_mentions_hash AS file_mentions_hash, c.commit_mentions_hash AS commit_mentions_hash`, nil)
	if err != nil {
		return nil, fmt.Errorf("list doc chunks: %w", err)
	}
	out := make([]linker.ChunkInput, 0, len(rows))
	for _, row := range rows {
		id, _ := row["id"].(string)
		heading, _ := row["heading"].(string)
		text, _ := row["text"].(string)
		fileHash, _ := row["file_mentions_hash"].(string)
		commitHash, _ := row["commit_mentions_hash"].(string)
		out = append(out, linker.ChunkInput{
			ID: id, Heading: heading, Text: text,
			PriorFileMentionsHash:   fileHash,
			PriorCommitMentionsHash: commitHash,
		})
	}
	return out, nil
}

// chunksMissingEmbeddings returns the id/text of every Chunk without an
// embedding vector, for the embeddings stage.
func chunksMissingEmbeddings(ctx context.Context, client *graph.Client, limit int) ([]struct{ ID, Text string }, error) {
	rows, err := client.RunRead(ctx,
		`MATCH (c:Chunk) WHERE c.embedding IS NULL RETURN c.id AS id, c.text AS text LIMIT $limit`,
		map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list chunks missing embeddings: %w", err)
	}
	out := make([]struct{ ID, Text string }, 0, len(rows))
	for _, row := range rows {
		id, _ := row["id"].(string)
		text, _ := row["text"].(string)
		out = append(out, struct{ ID, Text string }{ID: id, Text: text})
	}
	return out, nil
}

func writeEmbeddings(ctx context.Context, client *graph.Client, ids []string, vectors [][]float32) error {
	batch := make([]map[string]any, len(ids))
	for i, id := range ids {
		vec := make([]float64, len(vectors[i]))
		for j, v := range vectors[i] {
			vec[j] = float64(v)
		}
		batch[i] = map[string]any{"id": id, "embedding": vec}
	}
	_, err := client.Run(ctx,
		`UNWIND $rows AS row MATCH (c:Chunk {id: row.id}) SET c.embedding = row.embedding`,
		map[string]any{"rows": batch})
	return err
}

// cleanupOrphans removes Chunk/Document/File nodes left without a
// connection after chunking, restricted to full-profile runs (spec
// §4.11 "Cleanup").
func cleanupOrphans(ctx context.Context, client *graph.Client) (int64, error) {
	rows, err := client.Run(ctx, `
MATCH (c:Chunk)
WHERE NOT EXISTS { MATCH (f:File {path: c.file_path}) }
  AND NOT EXISTS { MATCH (d:Document {path: c.file_path}) }
DETACH DELETE c
RETURN count(c) AS removed`, nil)
	if err != nil {
		return 0, fmt.Errorf("cleanup orphan chunks: %w", err)
	}
	removed := toInt64(rows)

	docRows, err := client.Run(ctx, `
MATCH (d:Document)
WHERE NOT EXISTS { MATCH (d)-[:CONTAINS_CHUNK]->(:Chunk) }
DETACH DELETE d
RETURN count(d) AS removed`, nil)
	if err != nil {
		return removed, fmt.Errorf("cleanup orphan documents: %w", err)
	}
	removed += toInt64(docRows)

	fileRows, err := client.Run(ctx, `
MATCH (f:File)
WHERE NOT EXISTS { MATCH (f)--() }
DETACH DELETE f
RETURN count(f) AS removed`, nil)
	if err != nil {
		return removed, fmt.Errorf("cleanup orphan files: %w", err)
	}
	removed += toInt64(fileRows)

	return removed, nil
}

func toInt64(rows []map[string]any) int64 {
	if len(rows) == 0 {
		return 0
	}
	switch v := rows[0]["removed"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

// qualityCounts gathers the raw counts behind the quality score (spec
// §4.11 "Final report").
func qualityCounts(ctx context.Context, client *graph.Client) (totalNodes, totalEdges, orphans, missingTimestamps int64, err error) {
	rows, err := client.RunRead(ctx, `MATCH (n) RETURN count(n) AS c`, nil)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("count nodes: %w", err)
	}
	totalNodes = toInt64FromKey(rows, "c")

	rows, err = client.RunRead(ctx, `MATCH ()-[r]->() RETURN count(r) AS c`, nil)
	if err != nil {
		return totalNodes, 0, 0, 0, fmt.Errorf("count edges: %w", err)
	}
	totalEdges = toInt64FromKey(rows, "c")

	rows, err = client.RunRead(ctx, `MATCH (n) WHERE NOT EXISTS { MATCH (n)--() } RETURN count(n) AS c`, nil)
	if err != nil {
		return totalNodes, totalEdges, 0, 0, fmt.Errorf("count orphans: %w", err)
	}
	orphans = toInt64FromKey(rows, "c")

	rows, err = client.RunRead(ctx, `MATCH ()-[r]->() WHERE r.timestamp IS NULL RETURN count(r) AS c`, nil)
	if err != nil {
		return totalNodes, totalEdges, orphans, 0, fmt.Errorf("count missing timestamps: %w", err)
	}
	missingTimestamps = toInt64FromKey(rows, "c")

	return totalNodes, totalEdges, orphans, missingTimestamps, nil
}

// lastCommitHash returns the most recently ingested commit's hash, the
// delta-mode short-circuit passed to the commits stage (spec §4.11
// "Delta mode passes last_commit downstream"); derivation receives
// lastCommitTimestamp instead.
func lastCommitHash(ctx context.Context, client *graph.Client) (string, error) {
	rows, err := client.RunRead(ctx,
		`MATCH (c:GitCommit) RETURN c.hash AS hash ORDER BY c.timestamp DESC LIMIT 1`, nil)
	if err != nil {
		return "", fmt.Errorf("lookup last commit: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	hash, _ := rows[0]["hash"].(string)
	return hash, nil
}

// lastCommitTimestamp returns the most recently ingested commit's
// timestamp, the watermark passed to derivation for incremental runs
// (spec §4.8 "optional since_timestamp").
func lastCommitTimestamp(ctx context.Context, client *graph.Client) (string, error) {
	rows, err := client.RunRead(ctx,
		`MATCH (c:GitCommit) RETURN c.timestamp AS timestamp ORDER BY c.timestamp DESC LIMIT 1`, nil)
	if err != nil {
		return "", fmt.Errorf("lookup last commit timestamp: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	ts, _ := rows[0]["timestamp"].(string)
	return ts, nil
}

// knownSymbolHashes returns every File.symbol_hash keyed by path, the
// short-circuit map symbols.Service.Run compares freshly read content
// against.
func knownSymbolHashes(ctx context.Context, client *graph.Client) (map[string]string, error) {
	rows, err := client.RunRead(ctx,
		`MATCH (f:File) WHERE f.symbol_hash IS NOT NULL RETURN f.path AS path, f.symbol_hash AS hash`, nil)
	if err != nil {
		return nil, fmt.Errorf("list known symbol hashes: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		path, _ := row["path"].(string)
		hash, _ := row["hash"].(string)
		if path != "" {
			out[path] = hash
		}
	}
	return out, nil
}

// commitFileGroups returns, per recent commit, the set of file paths it
// touched together, the basis for CO_OCCURS_WITH recomputation.
func commitFileGroups(ctx context.Context, client *graph.Client) ([][]string, error) {
	rows, err := client.RunRead(ctx, `
MATCH (c:GitCommit)-[:TOUCHED]->(f:File)
WITH c, collect(f.path) AS paths
RETURN paths
ORDER BY c.timestamp DESC
LIMIT 2000`, nil)
	if err != nil {
		return nil, fmt.Errorf("list commit file groups: %w", err)
	}
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		raw, ok := row["paths"].([]any)
		if !ok {
			continue
		}
		paths := make([]string, 0, len(raw))
		for _, p := range raw {
			if s, ok := p.(string); ok {
				paths = append(paths, s)
			}
		}
		out = append(out, paths)
	}
	return out, nil
}

func toInt64FromKey(rows []map[string]any, key string) int64 {
	if len(rows) == 0 {
		return 0
	}
	switch v := rows[0][key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
