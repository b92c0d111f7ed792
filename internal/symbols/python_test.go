package symbols

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPythonClassAndMethods(t *testing.T) {
	src := []byte(`class Widget:
    """Represents a widget."""

    def render(self):
        return "ok"

    async def refresh(self):
        return None


@decorator
def helper(x, *args, **kwargs):
    return x
`)
	syms, _, err := ExtractPython(context.Background(), "pkg/widget.py", src)
	require.NoError(t, err)

	byName := map[string]Symbol{}
	for _, s := range syms {
		byName[s.QualifiedName] = s
	}

	require.Contains(t, byName, "Widget")
	assert.Equal(t, KindClass, byName["Widget"].Kind)
	assert.Equal(t, "Represents a widget.", byName["Widget"].Docstring)

	require.Contains(t, byName, "Widget.render")
	assert.Equal(t, KindMethod, byName["Widget.render"].Kind)

	require.Contains(t, byName, "Widget.refresh")
	assert.True(t, byName["Widget.refresh"].IsAsync)

	require.Contains(t, byName, "helper")
	assert.Equal(t, KindFunction, byName["helper"].Kind)
	assert.Contains(t, byName["helper"].Decorators, "decorator")
}

func TestExtractPythonImports(t *testing.T) {
	src := []byte(`import os
import neo4j
from . import sibling
from fastapi import FastAPI, Depends
`)
	_, imports, err := ExtractPython(context.Background(), "pkg/app.py", src)
	require.NoError(t, err)
	require.NotEmpty(t, imports)

	var modules []string
	for _, imp := range imports {
		modules = append(modules, imp.Module)
	}
	assert.Contains(t, modules, "os")
	assert.Contains(t, modules, "neo4j")
	assert.Contains(t, modules, "fastapi")
}
