package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/kgraph/internal/chunker"
	"github.com/ternarybob/kgraph/internal/commitingest"
	"github.com/ternarybob/kgraph/internal/deriver"
	"github.com/ternarybob/kgraph/internal/linker"
	"github.com/ternarybob/kgraph/internal/symbols"
)

func (o *Orchestrator) stageResetAndSchema(ctx context.Context, opts Options) (map[string]any, error) {
	if opts.Profile == ProfileFull && !opts.Delta {
		if err := o.schema.Reset(ctx); err != nil {
			return nil, err
		}
	}
	result, err := o.schema.Apply(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"constraints_applied": result.ConstraintsApplied,
		"indexes_applied":     result.IndexesApplied,
		"fulltext_applied":    result.FulltextApplied,
		"vector_index_ok":     result.VectorIndexOK,
		"vector_downgraded":   result.VectorDowngraded,
		"failures":            result.Failures,
	}, nil
}

func (o *Orchestrator) stageCommits(ctx context.Context, state *runState, opts Options) (map[string]any, error) {
	if err := o.checkStop(state, StageCommits); err != nil {
		return nil, err
	}

	ingestOpts := commitingest.Options{
		Workers:     4,
		SubpathOnly: opts.Subpath,
	}
	if opts.Delta {
		hash, err := lastCommitHash(ctx, o.client)
		if err != nil {
			return nil, err
		}
		ingestOpts.SinceHash = hash
	}
	if opts.Profile == ProfileQuick {
		ingestOpts.Limit = 200
	}

	result, err := o.commits.Run(ctx, ingestOpts)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"commits_written": result.CommitsWritten,
		"files_touched":   result.FilesTouched,
		"renames_written": result.RenamesWritten,
		"requirements":    result.Requirements,
		"evolution_edges": result.EvolutionEdges,
		"slow_commits":    result.SlowCommits,
	}, nil
}

func (o *Orchestrator) stageChunking(ctx context.Context, state *runState, opts Options) (map[string]any, error) {
	if err := o.checkStop(state, StageChunking); err != nil {
		return nil, err
	}

	paths, err := o.reader.ListFiles(ctx, opts.Subpath)
	if err != nil {
		return nil, fmt.Errorf("list files for chunking: %w", err)
	}

	var docChunks, codeChunks, skipped int
	for _, path := range paths {
		if err := o.checkStop(state, StageChunking); err != nil {
			return nil, err
		}
		content, err := o.reader.ReadFile(path)
		if err != nil {
			skipped++
			continue
		}
		res, err := o.chunks.ChunkFile(ctx, path, content)
		if err != nil {
			skipped++
			continue
		}
		if res.Skipped {
			skipped++
			continue
		}
		if res.Kind == chunker.KindDoc {
			docChunks += res.Chunks
		} else {
			codeChunks += res.Chunks
		}
	}

	removed := int64(0)
	if opts.Profile == ProfileFull {
		removed, err = cleanupOrphans(ctx, o.client)
		if err != nil {
			return nil, err
		}
	}

	state.lastCodeChunks = codeChunks
	return map[string]any{
		"files_scanned":   len(paths),
		"doc_chunks":      docChunks,
		"code_chunks":     codeChunks,
		"skipped":         skipped,
		"orphans_removed": removed,
	}, nil
}

// stageCodeChunkSummary is the reused stage 4 slot: a read-only
// summary view over stage 3's code chunks, a no-op once chunking has
// already covered code files (spec §4.11 "stage 4 intentionally
// reused for a code chunk summary view").
func (o *Orchestrator) stageCodeChunkSummary(ctx context.Context, state *runState) (map[string]any, error) {
	rows, err := o.client.RunRead(ctx,
		`MATCH (c:Chunk {kind: 'code'}) RETURN count(c) AS total, count(DISTINCT c.file_path) AS files`, nil)
	if err != nil {
		return nil, fmt.Errorf("summarize code chunks: %w", err)
	}
	total, files := 0, 0
	if len(rows) > 0 {
		if v, ok := rows[0]["total"].(int64); ok {
			total = int(v)
		}
		if v, ok := rows[0]["files"].(int64); ok {
			files = int(v)
		}
	}
	return map[string]any{
		"code_chunks_in_graph":  total,
		"code_files_covered":    files,
		"chunked_this_run":      state.lastCodeChunks,
		"reused_stage_semantic": "code_chunk_summary",
	}, nil
}

func (o *Orchestrator) stageSprintMapping(ctx context.Context, state *runState) (map[string]any, error) {
	if err := o.checkStop(state, StageSprintMapping); err != nil {
		return nil, err
	}
	result, err := o.sprints.Run(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"sprints_found":    result.SprintsFound,
		"commits_linked":   result.CommitsLinked,
		"documents_linked": result.DocumentsLinked,
	}, nil
}

func (o *Orchestrator) stageDerivation(ctx context.Context, opts Options) (map[string]any, error) {
	derivOpts := deriver.Options{ComputeDependsOn: opts.Profile == ProfileFull}
	if opts.Delta {
		ts, err := lastCommitTimestamp(ctx, o.client)
		if err == nil {
			derivOpts.SinceTimestamp = ts
		}
	}
	result, err := o.deriver.Run(ctx, derivOpts)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"implements_derived":  result.ImplementsDerived,
		"refactored_enriched": result.RefactoredEnriched,
		"depends_on_skipped":  result.DependsOnSkipped,
		"depends_on_derived":  result.DependsOnDerived,
	}, nil
}

func (o *Orchestrator) stageEmbeddings(ctx context.Context, state *runState) (map[string]any, error) {
	embedded := 0
	for {
		if err := o.checkStop(state, StageEmbeddings); err != nil {
			return nil, err
		}
		pending, err := chunksMissingEmbeddings(ctx, o.client, embeddingBatchSize)
		if err != nil {
			return nil, err
		}
		if len(pending) == 0 {
			break
		}
		ids := make([]string, len(pending))
		texts := make([]string, len(pending))
		for i, p := range pending {
			ids[i] = p.ID
			texts[i] = p.Text
		}
		vectors := o.embed.Embed(ctx, texts)
		if err := writeEmbeddings(ctx, o.client, ids, vectors); err != nil {
			return nil, err
		}
		embedded += len(pending)
		if len(pending) < embeddingBatchSize {
			break
		}
	}
	return map[string]any{"chunks_embedded": embedded}, nil
}

func (o *Orchestrator) stageConnectivity(ctx context.Context, state *runState, opts Options) (map[string]any, error) {
	if err := o.checkStop(state, StageConnectivity); err != nil {
		return nil, err
	}

	paths, err := o.reader.ListFiles(ctx, opts.Subpath)
	if err != nil {
		return nil, fmt.Errorf("list files for connectivity: %w", err)
	}

	var files []symbols.FileInput
	for _, path := range paths {
		lang := languageFor(path)
		if lang == "" {
			continue
		}
		content, err := o.reader.ReadFile(path)
		if err != nil {
			continue
		}
		files = append(files, symbols.FileInput{Path: path, Content: content, Language: lang})
	}

	knownHashes, err := knownSymbolHashes(ctx, o.client)
	if err != nil {
		return nil, err
	}
	commitFiles, err := commitFileGroups(ctx, o.client)
	if err != nil {
		return nil, err
	}

	symResult, err := o.symbols.Run(ctx, files, knownHashes, commitFiles)
	if err != nil {
		return nil, err
	}

	if err := o.checkStop(state, StageConnectivity); err != nil {
		return nil, err
	}

	docChunks, err := docChunksToScan(ctx, o.client)
	if err != nil {
		return nil, err
	}
	knownFiles, knownPaths, err := knownFilePaths(ctx, o.client)
	if err != nil {
		return nil, err
	}
	commitHashList, err := knownCommitHashes(ctx, o.client)
	if err != nil {
		return nil, err
	}

	linkResult, err := o.linker.Run(ctx, docChunks,
		knownFiles,
		linker.BuildBasenameIndex(knownPaths),
		linker.BuildCommitHashIndex(commitHashList))
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"symbols_parsed":   symResult.FilesParsed,
		"symbols_skipped":  symResult.FilesSkipped,
		"symbols_written":  symResult.Symbols,
		"imports_written":  symResult.Imports,
		"cooccur_pairs":    symResult.CoOccurs,
		"chunks_scanned":   linkResult.ChunksScanned,
		"chunks_skipped":   linkResult.ChunksSkipped,
		"file_mentions":    linkResult.FileMentions,
		"commit_mentions":  linkResult.CommitMentions,
		"symbol_mentions":  linkResult.SymbolMentions,
		"library_mentions": linkResult.LibraryMentions,
	}, nil
}

func languageFor(path string) symbols.Language {
	switch {
	case strings.HasSuffix(path, ".py"):
		return symbols.LangPython
	case strings.HasSuffix(path, ".ts"), strings.HasSuffix(path, ".tsx"):
		return symbols.LangTypeScript
	case strings.HasSuffix(path, ".js"), strings.HasSuffix(path, ".jsx"):
		return symbols.LangJavaScript
	default:
		return ""
	}
}
