package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkCodePythonFunctionSpan(t *testing.T) {
	src := []byte(`def helper(x):
    return x + 1


def other(y):
    if y:
        return y
    return 0
`)
	chunks := ChunkCode("pkg/mod.py", LangPython, src)
	require.NotEmpty(t, chunks)
	var symbols []string
	for _, c := range chunks {
		if c.Symbol != "" {
			symbols = append(symbols, c.Symbol)
		}
	}
	assert.Contains(t, symbols, "helper")
	assert.Contains(t, symbols, "other")
}

func TestChunkCodePythonClassMethodIndentation(t *testing.T) {
	src := []byte(`class Widget:
    def render(self):
        return "ok"

    def resize(self, w, h):
        self.w = w
        self.h = h
`)
	chunks := ChunkCode("pkg/widget.py", LangPython, src)
	var kinds = map[string]string{}
	for _, c := range chunks {
		if c.Symbol != "" {
			kinds[c.Symbol] = c.SymbolType
		}
	}
	assert.Equal(t, "class", kinds["Widget"])
	assert.Equal(t, "function", kinds["render"])
	assert.Equal(t, "function", kinds["resize"])
}

func TestChunkCodeTSFunctionAndArrow(t *testing.T) {
	src := []byte(`export function buildURL(base: string): string {
  return base + "/x";
}

const parse = (input: string) => {
  return input.trim();
};
`)
	chunks := ChunkCode("src/util.ts", LangTypeScript, src)
	var symbols []string
	for _, c := range chunks {
		if c.Symbol != "" {
			symbols = append(symbols, c.Symbol)
		}
	}
	assert.Contains(t, symbols, "buildURL")
	assert.Contains(t, symbols, "parse")
}

func TestChunkCodeSlidingWindowFillsUncoveredRegion(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("console.log('line with enough padding to count towards length');\n")
	}
	chunks := ChunkCode("src/script.js", LangJavaScript, []byte(b.String()))
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, "", c.Symbol)
	}
}

func TestCodeChunkIDFormat(t *testing.T) {
	assert.Equal(t, "a.py#0:3", codeChunkID("a.py", 0, 3))
}
