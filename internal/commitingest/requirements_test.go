package commitingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractRequirementIDsDedupesAndOrders(t *testing.T) {
	ids := extractRequirementIDs("implements FR-01-02 and also touches NFR-03-01, again FR-01-02")
	assert.Equal(t, []string{"FR-01-02", "NFR-03-01"}, ids)
}

func TestDetectEvolutionPatternsReplaces(t *testing.T) {
	edges := detectEvolutionPatterns("FR-02-01 replaces FR-01-09")
	assert.Len(t, edges, 1)
	assert.Equal(t, "EVOLVES_FROM", edges[0].kind)
	assert.Equal(t, "FR-02-01", edges[0].newID)
	assert.Equal(t, "FR-01-09", edges[0].oldID)
}

func TestDetectEvolutionPatternsDeprecate(t *testing.T) {
	edges := detectEvolutionPatterns("deprecate FR-01-01 in favor of FR-02-02")
	assert.Len(t, edges, 1)
	assert.Equal(t, "DEPRECATED_BY", edges[0].kind)
	assert.Equal(t, "FR-02-02", edges[0].newID)
	assert.Equal(t, "FR-01-01", edges[0].oldID)
}

func TestDetectEvolutionPatternsSupersedes(t *testing.T) {
	edges := detectEvolutionPatterns("FR-03-01 supersedes FR-02-09")
	assert.Len(t, edges, 1)
	assert.Equal(t, "EVOLVES_FROM", edges[0].kind)
	assert.Equal(t, "FR-03-01", edges[0].newID)
	assert.Equal(t, "FR-02-09", edges[0].oldID)
}
