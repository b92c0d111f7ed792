package subgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKeyStableUnderTypeOrder(t *testing.T) {
	a := Query{From: "2026-01-01", To: "2026-01-02", Types: []string{"File", "Chunk"}, Limit: 10}
	b := Query{From: "2026-01-01", To: "2026-01-02", Types: []string{"Chunk", "File"}, Limit: 10}
	assert.Equal(t, cacheKey(a), cacheKey(b))
}

func TestCacheKeyDiffersOnCursor(t *testing.T) {
	a := Query{Limit: 10, Cursor: "x"}
	b := Query{Limit: 10, Cursor: "y"}
	assert.NotEqual(t, cacheKey(a), cacheKey(b))
}

func TestRingLayoutDeterministic(t *testing.T) {
	x1, y1 := ringLayout("File:foo.go")
	x2, y2 := ringLayout("File:foo.go")
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)

	x3, _ := ringLayout("File:bar.go")
	assert.NotEqual(t, x1, x3)
}

func TestParseCursorKeyset(t *testing.T) {
	ks, offset, legacy := parseCursor("2026-01-01T00:00:00Z|42")
	require.NotNil(t, ks)
	assert.Equal(t, "2026-01-01T00:00:00Z", ks.timestamp)
	assert.Equal(t, "42", ks.elementID)
	assert.False(t, legacy)
	assert.Equal(t, 0, offset)
}

func TestParseCursorLegacyOffset(t *testing.T) {
	ks, offset, legacy := parseCursor("50")
	assert.Nil(t, ks)
	assert.True(t, legacy)
	assert.Equal(t, 50, offset)
}

func TestParseCursorEmpty(t *testing.T) {
	ks, offset, legacy := parseCursor("")
	assert.Nil(t, ks)
	assert.False(t, legacy)
	assert.Equal(t, 0, offset)
}

func TestNodeSizeByLabel(t *testing.T) {
	assert.Equal(t, 2.0, nodeSize([]string{"Requirement"}))
	assert.Equal(t, 1.2, nodeSize([]string{"GitCommit"}))
	assert.Equal(t, 1.4, nodeSize([]string{"File"}))
	assert.Equal(t, 1.0, nodeSize([]string{"Sprint"}))
}
