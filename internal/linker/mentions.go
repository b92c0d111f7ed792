// Package linker scans chunk text for file, commit, symbol, and
// library mentions and writes MENTIONS_* edges with confidence scores
// (spec §4.7).
package linker

import (
	"crypto/sha1"
	"encoding/hex"
	"path"
	"regexp"
	"strings"
)

var (
	fullPathRE = regexp.MustCompile(`[\w./-]+/[\w.-]+\.(py|ts|tsx|js|jsx|md|rst|go)`)
	bareNameRE = regexp.MustCompile(`\b[\w-]+\.(py|ts|tsx|js|jsx|md|rst|go)\b`)
	commitHashRE = regexp.MustCompile(`\b[0-9a-f]{10,40}\b`)
)

// FileMention is a MENTIONS_FILE candidate.
type FileMention struct {
	Path       string
	Term       string
	Method     string
	Confidence float64
}

// BasenameIndex resolves a bare filename to a unique repo path.
type BasenameIndex struct {
	byBasename map[string][]string
}

func BuildBasenameIndex(paths []string) *BasenameIndex {
	idx := &BasenameIndex{byBasename: map[string][]string{}}
	for _, p := range paths {
		base := path.Base(p)
		idx.byBasename[base] = append(idx.byBasename[base], p)
	}
	return idx
}

// ScanFileMentions implements spec §4.7 "File paths": full relative
// paths score 1.0 (0.95 after trimming a repo prefix), unique bare
// basenames score 0.7.
func ScanFileMentions(text string, known map[string]bool, basenames *BasenameIndex) []FileMention {
	seen := map[string]bool{}
	var out []FileMention

	for _, m := range fullPathRE.FindAllString(text, -1) {
		if known[m] {
			if !seen[m] {
				seen[m] = true
				out = append(out, FileMention{Path: m, Term: m, Method: "full-path", Confidence: 1.0})
			}
			continue
		}
		trimmed := trimRepoPrefix(m)
		if trimmed != m && known[trimmed] && !seen[trimmed] {
			seen[trimmed] = true
			out = append(out, FileMention{Path: trimmed, Term: m, Method: "full-path-trimmed", Confidence: 0.95})
		}
	}

	for _, m := range bareNameRE.FindAllString(text, -1) {
		candidates := basenames.byBasename[m]
		if len(candidates) == 1 && !seen[candidates[0]] {
			seen[candidates[0]] = true
			out = append(out, FileMention{Path: candidates[0], Term: m, Method: "basename", Confidence: 0.7})
		}
	}
	return out
}

func trimRepoPrefix(p string) string {
	idx := strings.Index(p, "/")
	for idx >= 0 {
		candidate := p[idx+1:]
		if candidate != "" {
			return candidate
		}
		idx = strings.Index(p[idx+1:], "/")
	}
	return p
}

// CommitMention is a MENTIONS_COMMIT candidate.
type CommitMention struct {
	Hash       string
	Confidence float64
}

// CommitHashIndex resolves a hex prefix to a known full commit hash.
type CommitHashIndex struct {
	byPrefix map[string]string
}

func BuildCommitHashIndex(hashes []string) *CommitHashIndex {
	idx := &CommitHashIndex{byPrefix: map[string]string{}}
	for _, h := range hashes {
		idx.byPrefix[h] = h
		for n := 10; n < len(h); n++ {
			idx.byPrefix[h[:n]] = h
		}
	}
	return idx
}

// ScanCommitMentions implements spec §4.7 "Commit hashes": hex tokens
// 10-40 chars resolved via a prefix index; confidence 0.9 (>=12 chars)
// else 0.75.
func ScanCommitMentions(text string, idx *CommitHashIndex) []CommitMention {
	seen := map[string]bool{}
	var out []CommitMention
	for _, token := range commitHashRE.FindAllString(text, -1) {
		full, ok := idx.byPrefix[token]
		if !ok || seen[full] {
			continue
		}
		seen[full] = true
		confidence := 0.75
		if len(token) >= 12 {
			confidence = 0.9
		}
		out = append(out, CommitMention{Hash: full, Confidence: confidence})
	}
	return out
}

// hashText produces a stable digest used for delta-skip comparisons
// (spec §4.7 "file_mentions_hash / commit_mentions_hash").
func hashText(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
