package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTypeScriptFunctionsAndClass(t *testing.T) {
	src := []byte(`import { helper } from "./helper";
import axios from "axios";

export function buildURL(base: string): string {
  return base;
}

export class Client extends Base implements Talker {
  constructor() {}
}

const parse = (input: string) => {
  return input;
};
`)
	syms, imports := ExtractTypeScript("src/client.ts", "typescript", src)

	names := map[string]Symbol{}
	for _, s := range syms {
		names[s.Name] = s
	}
	require.Contains(t, names, "buildURL")
	assert.Equal(t, KindFunction, names["buildURL"].Kind)
	require.Contains(t, names, "Client")
	assert.Contains(t, names["Client"].Bases, "Base")
	assert.Contains(t, names["Client"].Bases, "Talker")
	require.Contains(t, names, "parse")

	var specs []string
	for _, imp := range imports {
		specs = append(specs, imp.Module)
	}
	assert.Contains(t, specs, "./helper")
	assert.NotContains(t, specs, "axios")
}

func TestCanonicalLibraryResolution(t *testing.T) {
	assert.Equal(t, "Neo4j", CanonicalLibrary("neo4j-driver"))
	assert.Equal(t, "FastAPI", CanonicalLibrary("FastAPI"))
	assert.Equal(t, "", CanonicalLibrary("totally-unknown-pkg"))
}
