package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogSingleCommit(t *testing.T) {
	raw := "abc123def456abc123def456abc123def456abcd\tAlice\talice@example.com\t2025-01-01T10:00:00+00:00\tAdd feature\x00"
	// pad hash to 40 hex chars
	hash := "111111111111111111111111111111111111111a"
	raw = hash + "\tAlice\talice@example.com\t2025-01-01T10:00:00+00:00\tAdd feature\nA\tx.py\x00"

	commits, err := parseLog(raw)
	require.NoError(t, err)
	require.Len(t, commits, 1)

	c := commits[0]
	assert.Equal(t, hash, c.Hash)
	assert.Equal(t, "Alice", c.Author)
	assert.Equal(t, "Add feature", c.Message)
	require.Len(t, c.Files, 1)
	assert.Equal(t, ChangeAdded, c.Files[0].ChangeType)
	assert.Equal(t, "x.py", c.Files[0].Path)
}

func TestParseLogMultilineMessage(t *testing.T) {
	hash := "222222222222222222222222222222222222222b"
	raw := hash + "\tBob\tbob@example.com\t2025-01-02T10:00:00+00:00\tTitle line\n\nBody line one\nBody line two\nM\tsvc.py\x00"

	commits, err := parseLog(raw)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "Title line\n\nBody line one\nBody line two", commits[0].Message)
	require.Len(t, commits[0].Files, 1)
	assert.Equal(t, ChangeModified, commits[0].Files[0].ChangeType)
}

func TestParseLogRename(t *testing.T) {
	hash := "333333333333333333333333333333333333333c"
	raw := hash + "\tCarol\tcarol@example.com\t2025-01-03T10:00:00+00:00\tRename module\nR095\told/foo.py\tnew/foo.py\x00"

	commits, err := parseLog(raw)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	require.Len(t, commits[0].Files, 1)
	fc := commits[0].Files[0]
	assert.Equal(t, ChangeRenamed, fc.ChangeType)
	assert.Equal(t, "old/foo.py", fc.OldPath)
	assert.Equal(t, "new/foo.py", fc.Path)
	assert.Equal(t, 95, fc.Similarity)
}

func TestParseLogEmptyTreeCommit(t *testing.T) {
	// Boundary behavior B2: a commit touching zero files.
	hash := "444444444444444444444444444444444444444d"
	raw := hash + "\tDan\tdan@example.com\t2025-01-04T10:00:00+00:00\tEmpty commit\x00"

	commits, err := parseLog(raw)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Empty(t, commits[0].Files)
}

func TestParseNumstat(t *testing.T) {
	raw := "10\t5\tx.py\n-\t-\tbinary.png\n"
	adds, dels := parseNumstat(raw)
	assert.Equal(t, 10, adds["x.py"])
	assert.Equal(t, 5, dels["x.py"])
	_, ok := adds["binary.png"]
	assert.False(t, ok)
}
