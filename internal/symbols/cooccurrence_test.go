package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeCoOccurrenceFiltersSingletons(t *testing.T) {
	commits := [][]string{
		{"a.py", "b.py"},
		{"a.py", "b.py"},
		{"a.py", "c.py"},
	}
	result := ComputeCoOccurrence(commits)
	assert.Len(t, result, 1)
	assert.Equal(t, "a.py", result[0].FileA)
	assert.Equal(t, "b.py", result[0].FileB)
	assert.Equal(t, 2, result[0].Weight)
}

func TestComputeCoOccurrenceNormalizesOrder(t *testing.T) {
	commits := [][]string{
		{"z.py", "a.py"},
		{"a.py", "z.py"},
	}
	result := ComputeCoOccurrence(commits)
	assert.Len(t, result, 1)
	assert.Equal(t, "a.py", result[0].FileA)
	assert.Equal(t, "z.py", result[0].FileB)
}
