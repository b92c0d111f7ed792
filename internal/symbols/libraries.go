package symbols

import "strings"

// libraryAliases maps a lower-cased module/import prefix to its
// canonical library name (spec §6 "Library alias table").
var libraryAliases = map[string]string{
	"fastapi":        "FastAPI",
	"neo4j":          "Neo4j",
	"neo4j-driver":   "Neo4j",
	"pydantic":       "Pydantic",
	"uvicorn":        "Uvicorn",
	"pytest":         "pytest",
	"git":            "GitPython",
	"gitpython":      "GitPython",
	"tenacity":       "tenacity",
	"dotenv":         "python-dotenv",
	"python-dotenv":  "python-dotenv",
	"react":          "React",
	"next":           "Next.js",
	"next.js":        "Next.js",
	"@chakra-ui":     "Chakra UI",
	"chakra-ui":      "Chakra UI",
	"d3":             "D3.js",
	"three":          "Three.js",
	"graphology":     "Graphology",
	"deck.gl":        "Deck.GL",
	"@deck.gl":       "Deck.GL",
	"react-query":    "React Query",
	"@tanstack/react-query": "React Query",
	"framer-motion":  "Framer Motion",
	"axios":          "Axios",
	"lodash":         "Lodash",
	"webgl":          "WebGL",
}

// CanonicalLibrary resolves a raw import/module specifier to its
// canonical name via the alias table, case-insensitively and matching
// on the longest known prefix. Returns "" when no alias matches.
func CanonicalLibrary(moduleOrSpecifier string) string {
	m := strings.ToLower(strings.TrimSpace(moduleOrSpecifier))
	m = strings.TrimPrefix(m, "./")
	m = strings.TrimPrefix(m, "../")

	if name, ok := libraryAliases[m]; ok {
		return name
	}

	best := ""
	bestLen := 0
	for prefix, name := range libraryAliases {
		if strings.HasPrefix(m, prefix) && len(prefix) > bestLen {
			best = name
			bestLen = len(prefix)
		}
	}
	return best
}
