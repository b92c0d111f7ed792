package git

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

func parseISOTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// FileContentAt returns the content of path as it existed at hash, or nil
// if the path did not exist at that revision. It first tries a direct
// tree lookup (`git cat-file -p hash:path`) and falls back to
// `git show hash:path` on failure, per spec §4.1.
func (r *Reader) FileContentAt(ctx context.Context, hash, path string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	ctx2, cancel := context.WithTimeout(ctx, contentTimeout)
	defer cancel()

	ref := hash + ":" + path
	cmd := exec.CommandContext(ctx2, "git", "--no-pager", "cat-file", "-p", ref)
	cmd.Dir = r.repoPath
	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}

	cmd2 := exec.CommandContext(ctx2, "git", "--no-pager", "show", ref)
	cmd2.Dir = r.repoPath
	out2, err2 := cmd2.Output()
	if err2 != nil {
		// Absent at this revision is not an error (spec §7 "missing artifacts").
		return nil, nil
	}
	return out2, nil
}

// LineCountAt returns the number of lines in path at hash, 0 when the
// path is absent (used for TOUCHED.lines_after, spec §4.5).
func (r *Reader) LineCountAt(ctx context.Context, hash, path string) (int, error) {
	content, err := r.FileContentAt(ctx, hash, path)
	if err != nil {
		return 0, err
	}
	if content == nil {
		return 0, nil
	}
	if len(content) == 0 {
		return 0, nil
	}
	lines := strings.Count(string(content), "\n")
	if !strings.HasSuffix(string(content), "\n") {
		lines++
	}
	return lines, nil
}

// Blame returns, for each line of path at HEAD, the commit hash and
// author that last touched it. No ingestion stage or query calls it.
func (r *Reader) Blame(ctx context.Context, path string) ([]BlameLine, error) {
	out, err := r.run(ctx, commitsTimeout, "blame", "--porcelain", "--", path)
	if err != nil {
		return nil, err
	}
	return parseBlamePorcelain(string(out)), nil
}

// BlameLine is one porcelain blame record.
type BlameLine struct {
	Hash   string
	Author string
	Email  string
	Line   int
}

func parseBlamePorcelain(raw string) []BlameLine {
	var lines []BlameLine
	var cur BlameLine
	lineNo := 0
	for _, l := range strings.Split(raw, "\n") {
		switch {
		case len(l) >= 40 && isHexPrefix(l):
			fields := strings.Fields(l)
			cur = BlameLine{Hash: fields[0]}
			if len(fields) >= 3 {
				lineNo, _ = atoiSafe(fields[2])
			}
		case strings.HasPrefix(l, "author "):
			cur.Author = strings.TrimPrefix(l, "author ")
		case strings.HasPrefix(l, "author-mail "):
			cur.Email = strings.Trim(strings.TrimPrefix(l, "author-mail "), "<>")
		case strings.HasPrefix(l, "\t"):
			cur.Line = lineNo
			lines = append(lines, cur)
		}
	}
	return lines
}

func isHexPrefix(s string) bool {
	if len(s) < 40 {
		return false
	}
	for i := 0; i < 40; i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

func atoiSafe(s string) (int, error) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n, nil
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}
