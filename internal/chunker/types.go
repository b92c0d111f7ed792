// Package chunker splits documents and source files into the semantic
// slices the rest of the pipeline links and embeds (spec §4.4). Markdown
// is split by heading using a goldmark AST walk; code is split by
// function/class boundaries with a sliding-window fallback for
// uncovered regions.
package chunker

import "fmt"

// Kind distinguishes the two chunk flavors (spec §3 Chunk.kind).
type Kind string

const (
	KindDoc  Kind = "doc"
	KindCode Kind = "code"
)

// Chunk is one semantic slice of a file, ready to be written as a
// Chunk node plus its CONTAINS_CHUNK/PART_OF edges.
type Chunk struct {
	ID           string
	Kind         Kind
	FilePath     string
	Heading      string
	Section      string
	StartLine    int
	EndLine      int
	Text         string
	Symbol       string
	SymbolType   string
	Requirements []string
	Sprints      []string
}

const (
	minChunkLength = 50
	maxChunkLength = 2000
	overlapLines   = 20
)

// docChunkID formats a Markdown chunk's stable identifier (spec §4.4
// "Chunk IDs are \"<repo-relative path>#<ordinal>\"").
func docChunkID(path string, ordinal int) string {
	return fmt.Sprintf("%s#%d", path, ordinal)
}

// codeChunkID formats a code chunk's identifier: start line is
// 0-indexed, end line is exclusive (spec §6 "Chunk ID format").
func codeChunkID(path string, start, end int) string {
	return fmt.Sprintf("%s#%d:%d", path, start, end)
}
