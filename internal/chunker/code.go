package chunker

import (
	"regexp"
	"strings"
)

// Language is a chunked/parsed source language (spec §6).
type Language string

const (
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
)

// DetectLanguage maps a file extension to a chunked language, or ""
// when the extension is only enumerated as a File node (spec §6).
func DetectLanguage(path string) Language {
	switch {
	case strings.HasSuffix(path, ".py"):
		return LangPython
	case strings.HasSuffix(path, ".ts"), strings.HasSuffix(path, ".tsx"):
		return LangTypeScript
	case strings.HasSuffix(path, ".js"), strings.HasSuffix(path, ".jsx"):
		return LangJavaScript
	default:
		return ""
	}
}

type span struct {
	start, end int // end-exclusive, 0-indexed
	symbol     string
	symbolType string
}

var (
	pyDefRE   = regexp.MustCompile(`^(\s*)(def|class)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	tsFuncRE  = regexp.MustCompile(`^\s*(export\s+default\s+)?(export\s+)?function\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	tsArrowRE = regexp.MustCompile(`^\s*(export\s+)?const\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*(\([^)]*\)|\w+)\s*=>`)
	tsClassRE = regexp.MustCompile(`^\s*(export\s+)?(default\s+)?(class|interface)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
)

// ChunkCode splits a source file into function/class spans with a
// sliding-window fallback for uncovered regions (spec §4.4 "Code
// chunking").
func ChunkCode(path string, lang Language, source []byte) []Chunk {
	lines := strings.Split(string(source), "\n")

	var spans []span
	switch lang {
	case LangPython:
		spans = pythonSpans(lines)
	case LangTypeScript, LangJavaScript:
		spans = braceSpans(lines)
	default:
		return nil
	}

	covered := make([]bool, len(lines))
	for _, s := range spans {
		for i := s.start; i < s.end && i < len(covered); i++ {
			covered[i] = true
		}
	}

	chunks := make([]Chunk, 0, len(spans))
	for _, s := range spans {
		text := strings.Join(lines[s.start:min(s.end, len(lines))], "\n")
		if len(strings.TrimSpace(text)) == 0 {
			continue
		}
		reqs, sprints := extractReferences(text)
		chunks = append(chunks, Chunk{
			ID:           codeChunkID(path, s.start, s.end),
			Kind:         KindCode,
			FilePath:     path,
			StartLine:    s.start,
			EndLine:      s.end,
			Text:         text,
			Symbol:       s.symbol,
			SymbolType:   s.symbolType,
			Requirements: reqs,
			Sprints:      sprints,
		})
	}

	for _, w := range slidingWindows(lines, covered) {
		text := strings.Join(lines[w.start:min(w.end, len(lines))], "\n")
		if len(strings.TrimSpace(text)) < minChunkLength {
			continue
		}
		reqs, sprints := extractReferences(text)
		chunks = append(chunks, Chunk{
			ID:           codeChunkID(path, w.start, w.end),
			Kind:         KindCode,
			FilePath:     path,
			StartLine:    w.start,
			EndLine:      w.end,
			Text:         text,
			Requirements: reqs,
			Sprints:      sprints,
		})
	}

	return chunks
}

// pythonSpans finds def/class headers and closes each span at the
// first subsequent non-blank line whose indentation is at or below the
// header's own indentation (spec §4.4).
func pythonSpans(lines []string) []span {
	var spans []span
	for i, line := range lines {
		m := pyDefRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		indent := len(m[1])
		kind := "function"
		if m[2] == "class" {
			kind = "class"
		}
		end := len(lines)
		for j := i + 1; j < len(lines); j++ {
			trimmed := strings.TrimRight(lines[j], " \t")
			if trimmed == "" {
				continue
			}
			lineIndent := len(lines[j]) - len(strings.TrimLeft(lines[j], " \t"))
			if lineIndent <= indent {
				end = j
				break
			}
		}
		spans = append(spans, span{start: i, end: end, symbol: m[3], symbolType: kind})
	}
	return spans
}

// braceSpans finds TS/JS function/class/interface/arrow-function
// headers and closes each span by counting braces (spec §4.4).
func braceSpans(lines []string) []span {
	var spans []span
	for i, line := range lines {
		symbol, kind := matchTSHeader(line)
		if symbol == "" {
			continue
		}
		end := closeBraceSpan(lines, i)
		spans = append(spans, span{start: i, end: end, symbol: symbol, symbolType: kind})
	}
	return spans
}

func matchTSHeader(line string) (symbol, kind string) {
	if m := tsFuncRE.FindStringSubmatch(line); m != nil {
		return m[3], "function"
	}
	if m := tsArrowRE.FindStringSubmatch(line); m != nil {
		return m[2], "function"
	}
	if m := tsClassRE.FindStringSubmatch(line); m != nil {
		return m[4], m[3]
	}
	return "", ""
}

func closeBraceSpan(lines []string, start int) int {
	depth := 0
	seenOpen := false
	for i := start; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				seenOpen = true
			case '}':
				depth--
			}
		}
		if seenOpen && depth <= 0 {
			return i + 1
		}
	}
	return len(lines)
}

type window struct{ start, end int }

// slidingWindows fills uncovered line ranges with fixed-size windows
// (~40 lines, derived from max_chunk_length=2000 chars) with a 20-line
// overlap, per spec §4.4.
func slidingWindows(lines []string, covered []bool) []window {
	total := len(lines)
	const windowLines = maxChunkLength / 50 // ~40 lines at ~50 chars/line
	var windows []window
	i := 0
	for i < total {
		if covered[i] {
			i++
			continue
		}
		start := i
		for i < total && !covered[i] {
			i++
		}
		end := start
		for end < i {
			next := end + windowLines
			if next > i {
				next = i
			}
			windows = append(windows, window{start: snapStart(lines, covered, end), end: next})
			if next >= i {
				break
			}
			end = next - overlapLines
			if end < start {
				end = start
			}
		}
	}
	return windows
}

// snapStart nudges a window start forward to the nearest blank line or
// comment-start within a short lookahead, so windows begin at a natural
// boundary instead of mid-statement (spec §4.4).
func snapStart(lines []string, covered []bool, start int) int {
	const lookahead = 5
	limit := start + lookahead
	if limit > len(lines) {
		limit = len(lines)
	}
	for i := start; i < limit; i++ {
		if i < len(covered) && covered[i] {
			break
		}
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" ||
			strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "//") ||
			strings.HasPrefix(trimmed, "/*") ||
			strings.HasPrefix(trimmed, "*") {
			return i
		}
	}
	return start
}
