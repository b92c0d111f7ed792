package chunker

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var mdParser = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
).Parser()

// ChunkMarkdown splits a Markdown document by H2/H3 headings, walking
// the goldmark AST rather than scanning raw lines so headings inside
// fenced code blocks are not mistaken for section breaks (spec §4.4
// "Markdown chunking").
func ChunkMarkdown(path string, source []byte) []Chunk {
	doc := mdParser.Parse(text.NewReader(source))

	var chunks []Chunk
	ordinal := 0

	type pending struct {
		heading   string
		section   string
		startByte int
		stopByte  int
		hasStart  bool
	}
	cur := pending{}
	var lastH2 string

	flush := func() {
		if !cur.hasStart {
			return
		}
		body := string(source[cur.startByte:cur.stopByte])
		if len(strings.TrimSpace(body)) >= minChunkLength {
			reqs, sprints := extractReferences(cur.heading + "\n" + body)
			chunks = append(chunks, Chunk{
				ID:           docChunkID(path, ordinal),
				Kind:         KindDoc,
				FilePath:     path,
				Heading:      cur.heading,
				Section:      cur.section,
				StartLine:    lineOf(source, cur.startByte),
				EndLine:      lineOf(source, cur.stopByte),
				Text:         body,
				Requirements: reqs,
				Sprints:      sprints,
			})
			ordinal++
		}
		cur = pending{}
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && (h.Level == 2 || h.Level == 3) {
			flush()
			headingText := headingPlainText(h, source)
			section := ""
			if h.Level == 2 {
				lastH2 = headingText
			} else {
				section = lastH2
			}
			start, stop, ok := nodeByteRange(n, source)
			if !ok {
				start, stop = 0, 0
			}
			cur = pending{heading: headingText, section: section, startByte: stop, stopByte: stop, hasStart: true}
			_ = start
			continue
		}
		if !cur.hasStart {
			// Preamble before the first H2/H3: treat the whole document
			// top as an implicit chunk with an empty heading.
			cur = pending{hasStart: true}
		}
		start, stop, ok := nodeByteRange(n, source)
		if !ok {
			continue
		}
		if cur.startByte == 0 && cur.stopByte == 0 {
			cur.startByte = start
		}
		cur.stopByte = stop
	}
	flush()

	return chunks
}

// nodeByteRange returns the min start / max stop byte offsets covered
// by n and its descendants, since container blocks (lists, blockquotes)
// don't carry their own Lines() segments.
func nodeByteRange(n ast.Node, source []byte) (start, stop int, ok bool) {
	start, stop = -1, -1
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		if lines := node.Lines(); lines != nil {
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				if start == -1 || seg.Start < start {
					start = seg.Start
				}
				if seg.Stop > stop {
					stop = seg.Stop
				}
			}
		}
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	if start == -1 {
		return 0, 0, false
	}
	return start, stop, true
}

func headingPlainText(h *ast.Heading, source []byte) string {
	var buf bytes.Buffer
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return strings.TrimSpace(buf.String())
}

func lineOf(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.Count(source[:offset], []byte("\n"))
}
