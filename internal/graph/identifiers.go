package graph

import "regexp"

var identifierRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidIdentifier reports whether s is safe to interpolate as a Cypher
// label or property key (labels/types cannot be parameterized in
// Cypher, so every dynamic label must pass this check before use).
func ValidIdentifier(s string) bool {
	return s != "" && identifierRE.MatchString(s)
}
