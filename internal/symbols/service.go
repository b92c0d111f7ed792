package symbols

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"

	"github.com/ternarybob/kgraph/internal/errors"
	"github.com/ternarybob/kgraph/internal/graph"
)

const batchSize = 500

// Service extracts symbols/imports for tracked code files and writes
// them transactionally, keyed by each file's symbol_hash (spec §4.6).
type Service struct {
	client *graph.Client
	writer *graph.BatchWriter
	logger *logrus.Entry
}

func NewService(client *graph.Client, logger *logrus.Logger) *Service {
	return &Service{
		client: client,
		writer: graph.NewBatchWriter(client),
		logger: logger.WithField("component", "symbols"),
	}
}

// FileInput is one tracked code file to extract.
type FileInput struct {
	Path     string
	Content  []byte
	Language Language
}

// Language mirrors chunker.Language to avoid an import cycle between
// the two packages; both are driven by the same extension map (spec §6).
type Language string

const (
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
)

// Failure is a per-file parse failure (spec §7 "Parse errors").
type Failure struct {
	Path  string
	Error string
}

// Result summarizes one run for the orchestrator's progress payload.
type Result struct {
	FilesParsed  int
	FilesSkipped int
	Symbols      int
	Imports      int
	CoOccurs     int
	Failures     []Failure
}

// sha1Hex returns the short-circuit hash compared against File.symbol_hash.
func sha1Hex(content []byte) string {
	sum := sha1.Sum(content)
	return hex.EncodeToString(sum[:])
}

// Run extracts symbols for every file whose content hash differs from
// the stored symbol_hash, writes the new symbol set transactionally,
// resolves imports, and recomputes CO_OCCURS_WITH over commitFiles
// (the set of file-paths touched together per commit, supplied by the
// commit ingester's run).
func (s *Service) Run(ctx context.Context, files []FileInput, knownHashes map[string]string, commitFiles [][]string) (*Result, error) {
	result := &Result{}
	runID := uuid.NewString()

	pyPaths := make([]string, 0)
	tsPaths := make([]string, 0)
	for _, f := range files {
		switch f.Language {
		case LangPython:
			pyPaths = append(pyPaths, f.Path)
		case LangTypeScript, LangJavaScript:
			tsPaths = append(tsPaths, f.Path)
		}
	}
	pyIndex := BuildPythonModuleIndex(pyPaths)
	tsIndex := BuildTSModuleIndex(append(pyPaths, tsPaths...))

	for _, f := range files {
		hash := sha1Hex(f.Content)
		if knownHashes[f.Path] == hash {
			result.FilesSkipped++
			continue
		}

		var syms []Symbol
		var imports []Import
		var err error
		switch f.Language {
		case LangPython:
			syms, imports, err = ExtractPython(ctx, f.Path, f.Content)
		case LangTypeScript, LangJavaScript:
			syms, imports = ExtractTypeScript(f.Path, string(f.Language), f.Content)
		default:
			continue
		}
		if err != nil {
			result.Failures = append(result.Failures, Failure{Path: f.Path, Error: err.Error()})
			continue
		}

		if err := s.replaceSymbols(ctx, f.Path, hash, syms); err != nil {
			return nil, errors.New(errors.TypeInternal, errors.SeverityRecord, fmt.Sprintf("replace symbols for %s", f.Path), err)
		}
		result.FilesParsed++
		result.Symbols += len(syms)

		resolved := s.resolveImports(f.Path, f.Language, imports, pyIndex, tsIndex)
		if err := s.writeImports(ctx, f.Path, resolved, runID); err != nil {
			return nil, err
		}
		result.Imports += len(resolved)
	}

	processedPaths := make([]string, 0, len(files))
	for _, f := range files {
		processedPaths = append(processedPaths, f.Path)
	}
	if err := s.pruneStaleImports(ctx, runID, processedPaths); err != nil {
		return nil, err
	}

	coOccurs := ComputeCoOccurrence(commitFiles)
	if err := s.writeCoOccurrence(ctx, coOccurs); err != nil {
		return nil, err
	}
	result.CoOccurs = len(coOccurs)

	return result, nil
}

type resolvedImport struct {
	Import
	targetPath string
	library    string
}

func (s *Service) resolveImports(filePath string, lang Language, imports []Import, pyIndex *PythonModuleIndex, tsIndex *TSModuleIndex) []resolvedImport {
	out := make([]resolvedImport, 0, len(imports))
	for _, imp := range imports {
		r := resolvedImport{Import: imp}
		switch lang {
		case LangPython:
			r.targetPath = pyIndex.Resolve(imp.Module, 0, modulePathFor(filePath))
			if r.targetPath == "" {
				r.library = CanonicalLibrary(imp.Module)
			}
		default:
			r.targetPath = tsIndex.Resolve(filePath, imp.Module)
			if r.targetPath == "" {
				r.library = CanonicalLibrary(imp.Module)
			}
		}
		out = append(out, r)
	}
	return out
}

func modulePathFor(filePath string) string {
	return filePath
}

// replaceSymbols deletes a file's existing symbols and writes the new
// set within one transaction, keyed by symbol_hash (spec §4.6 step 4,
// §5 "Symbol replacement for a file is transactional").
func (s *Service) replaceSymbols(ctx context.Context, filePath, hash string, syms []Symbol) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx,
			`MATCH (s:Symbol {file_path: $path}) DETACH DELETE s`,
			map[string]any{"path": filePath}); err != nil {
			return nil, err
		}
		for _, sym := range syms {
			props := map[string]any{
				"symbol_id": sym.ID, "name": sym.Name, "qualified_name": sym.QualifiedName,
				"kind": string(sym.Kind), "language": sym.Language, "line_number": sym.LineNumber,
				"signature": sym.Signature, "docstring": sym.Docstring, "decorators": sym.Decorators,
				"bases": sym.Bases, "is_async": sym.IsAsync, "exported": sym.Exported,
				"file_path": filePath,
			}
			if _, err := tx.Run(ctx,
				`MERGE (s:Symbol {symbol_id: $id}) SET s += $props`,
				map[string]any{"id": sym.ID, "props": props}); err != nil {
				return nil, err
			}
			if _, err := tx.Run(ctx,
				`MATCH (s:Symbol {symbol_id: $id}), (f:File {path: $path}) MERGE (s)-[:DEFINED_IN]->(f)`,
				map[string]any{"id": sym.ID, "path": filePath}); err != nil {
				return nil, err
			}
		}
		if _, err := tx.Run(ctx,
			`MERGE (f:File {path: $path}) SET f.symbol_hash = $hash, f.symbol_last_indexed_at = datetime()`,
			map[string]any{"path": filePath, "hash": hash}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

func (s *Service) writeImports(ctx context.Context, fromPath string, imports []resolvedImport, runID string) error {
	byTarget := map[string][]resolvedImport{}
	libraryEdges := map[string]bool{}
	for _, imp := range imports {
		if imp.targetPath != "" {
			byTarget[imp.targetPath] = append(byTarget[imp.targetPath], imp)
		} else if imp.library != "" {
			libraryEdges[imp.library] = true
		}
	}

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for target, imps := range byTarget {
			var modules, symbolsAll []string
			for _, imp := range imps {
				modules = append(modules, imp.Module)
				symbolsAll = append(symbolsAll, imp.Symbols...)
			}
			if _, err := tx.Run(ctx,
				`MATCH (a:File {path: $from}), (b:File {path: $to})
MERGE (a)-[r:IMPORTS]->(b)
SET r.modules = $modules, r.symbols = $symbols, r.count = $count, r.run_id = $run_id, r.last_seen = datetime()`,
				map[string]any{
					"from": fromPath, "to": target, "modules": modules,
					"symbols": symbolsAll, "count": len(imps), "run_id": runID,
				}); err != nil {
				return nil, err
			}
		}
		for lib := range libraryEdges {
			if _, err := tx.Run(ctx,
				`MERGE (l:Library {name: $lib}) MERGE (f:File {path: $path}) MERGE (f)-[:USES_LIBRARY]->(l)`,
				map[string]any{"lib": lib, "path": fromPath}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// pruneStaleImports deletes IMPORTS edges left over from a prior run,
// restricted to the sources processed this run (spec §4.6 step 6, R3) —
// a scoped/delta run must never touch edges from files outside its scope.
func (s *Service) pruneStaleImports(ctx context.Context, runID string, processedPaths []string) error {
	if len(processedPaths) == 0 {
		return nil
	}
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			`MATCH (a:File)-[r:IMPORTS]->(b:File)
WHERE a.path IN $processed_paths AND r.run_id IS NOT NULL AND r.run_id <> $run_id
DELETE r`,
			map[string]any{"run_id": runID, "processed_paths": processedPaths})
		return nil, err
	})
	return err
}

func (s *Service) writeCoOccurrence(ctx context.Context, pairs []CoOccurrence) error {
	rows := make([]graph.EdgeRow, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, graph.EdgeRow{
			FromLabel: "File", FromKey: "path", FromValue: p.FileA,
			ToLabel: "File", ToKey: "path", ToValue: p.FileB,
			Props: map[string]any{"weight": p.Weight},
		})
	}
	return s.writer.MergeEdges(ctx, "CO_OCCURS_WITH", rows, batchSize)
}
