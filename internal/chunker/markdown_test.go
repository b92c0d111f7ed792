package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkMarkdownTwoHeadings(t *testing.T) {
	src := []byte(`## Overview
` + strings.Repeat("This section describes the system in enough detail to pass the minimum length check. ", 3) + `

## Details
` + strings.Repeat("This section has the implementation details and also needs enough characters. ", 3))

	chunks := ChunkMarkdown("docs/design.md", src)
	require.Len(t, chunks, 2)
	assert.Equal(t, "docs/design.md#0", chunks[0].ID)
	assert.Equal(t, "Overview", chunks[0].Heading)
	assert.Equal(t, "docs/design.md#1", chunks[1].ID)
	assert.Equal(t, "Details", chunks[1].Heading)
}

func TestChunkMarkdownDropsShortSections(t *testing.T) {
	src := []byte(`## Tiny
short

## Bigger
` + strings.Repeat("padding text to exceed the minimum chunk length threshold. ", 3))

	chunks := ChunkMarkdown("docs/x.md", src)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Bigger", chunks[0].Heading)
}

func TestChunkMarkdownIgnoresHeadingLikeTextInCodeFence(t *testing.T) {
	src := []byte("## Real Heading\n" +
		strings.Repeat("content enough to pass the minimum length gate here. ", 3) +
		"\n```\n## not a heading\n```\n")

	chunks := ChunkMarkdown("docs/y.md", src)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Real Heading", chunks[0].Heading)
	assert.Contains(t, chunks[0].Text, "not a heading")
}

func TestChunkMarkdownExtractsRequirementsAndSprints(t *testing.T) {
	src := []byte(`## Scope
` + strings.Repeat("This implements FR-01-02 during sprint 3 with ample supporting text. ", 3))

	chunks := ChunkMarkdown("docs/z.md", src)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Requirements, "FR-01-02")
	assert.Contains(t, chunks[0].Sprints, "sprint-3")
}
