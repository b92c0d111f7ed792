package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackVectorDeterministic(t *testing.T) {
	a := FallbackVector("hello world")
	b := FallbackVector("hello world")
	assert.Equal(t, a, b)
	assert.Len(t, a, Dimensions)
}

func TestFallbackVectorDiffersByInput(t *testing.T) {
	a := FallbackVector("hello")
	b := FallbackVector("world")
	assert.NotEqual(t, a, b)
}

func TestFallbackVectorBounded(t *testing.T) {
	v := FallbackVector("bounded check")
	for _, f := range v {
		assert.GreaterOrEqual(t, f, float32(-1.0))
		assert.Less(t, f, float32(1.0))
	}
}
