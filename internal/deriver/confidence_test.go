package deriver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineConfidenceNoisyOR(t *testing.T) {
	got := CombineConfidence(0.9, 0.6)
	assert.InDelta(t, 0.96, got, 0.001)
}

func TestCombineEvidenceDedupesSameKind(t *testing.T) {
	confidence, kinds := CombineEvidence([]Evidence{
		{Kind: "commit-message", Confidence: 0.9},
		{Kind: "commit-message", Confidence: 0.9},
	})
	assert.InDelta(t, 0.9, confidence, 0.001)
	assert.Equal(t, []string{"commit-message"}, kinds)
}

func TestCombineEvidenceAcrossKinds(t *testing.T) {
	confidence, kinds := CombineEvidence([]Evidence{
		{Kind: "commit-message", Confidence: 0.9},
		{Kind: "doc-mention", Confidence: 0.6},
	})
	assert.InDelta(t, 0.96, confidence, 0.001)
	assert.Len(t, kinds, 2)
}
