package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFileMentionsFullPath(t *testing.T) {
	known := map[string]bool{"internal/graph/client.go": true}
	mentions := ScanFileMentions("see internal/graph/client.go for details", known, BuildBasenameIndex(nil))
	require.Len(t, mentions, 1)
	assert.Equal(t, 1.0, mentions[0].Confidence)
	assert.Equal(t, "internal/graph/client.go", mentions[0].Path)
}

func TestScanFileMentionsUniqueBasename(t *testing.T) {
	idx := BuildBasenameIndex([]string{"internal/graph/client.go"})
	mentions := ScanFileMentions("edit client.go next", map[string]bool{}, idx)
	require.Len(t, mentions, 1)
	assert.Equal(t, 0.7, mentions[0].Confidence)
}

func TestScanFileMentionsAmbiguousBasenameSkipped(t *testing.T) {
	idx := BuildBasenameIndex([]string{"a/client.go", "b/client.go"})
	mentions := ScanFileMentions("edit client.go next", map[string]bool{}, idx)
	assert.Empty(t, mentions)
}

func TestScanCommitMentionsConfidenceByLength(t *testing.T) {
	idx := BuildCommitHashIndex([]string{"abcdef1234567890abcdef1234567890abcdef12"})
	mentions := ScanCommitMentions("see commit abcdef123456 for the fix", idx)
	require.Len(t, mentions, 1)
	assert.Equal(t, 0.9, mentions[0].Confidence)
}

func TestScanCommitMentionsShortPrefixLowerConfidence(t *testing.T) {
	idx := BuildCommitHashIndex([]string{"abcdef1234567890abcdef1234567890abcdef12"})
	mentions := ScanCommitMentions("abcdef1234 was the change", idx)
	require.Len(t, mentions, 1)
	assert.Equal(t, 0.75, mentions[0].Confidence)
}
