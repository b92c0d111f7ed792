package commitingest

import "regexp"

var requirementRE = regexp.MustCompile(`(FR|NFR)-\d+(-\d+)?`)

// extractRequirementIDs returns the distinct requirement IDs mentioned
// in a commit message, in first-appearance order (spec §4.5 step 4,
// §4.8 "at least two requirement IDs ... direction is earliest-by-position").
func extractRequirementIDs(message string) []string {
	seen := map[string]bool{}
	var ids []string
	for _, m := range requirementRE.FindAllString(message, -1) {
		if !seen[m] {
			seen[m] = true
			ids = append(ids, m)
		}
	}
	return ids
}

var (
	replacesRE   = regexp.MustCompile(`(?i)([\w-]+)\s+replaces\s+([\w-]+)`)
	deprecateRE  = regexp.MustCompile(`(?i)deprecat(?:e|ed)\s+([\w-]+)\s+in\s+favor\s+of\s+([\w-]+)`)
	supersedesRE = regexp.MustCompile(`(?i)([\w-]+)\s+supersedes\s+([\w-]+)`)
)

// evolutionEdge is one EVOLVES_FROM or DEPRECATED_BY edge detected in a
// commit message (spec §4.5 step 5).
type evolutionEdge struct {
	kind  string // "EVOLVES_FROM" or "DEPRECATED_BY"
	newID string
	oldID string
}

// detectEvolutionPatterns matches the three textual patterns the spec
// names: "<NEW> replaces <OLD>", "deprecate <OLD> in favor of <NEW>",
// and "<NEW> supersedes <OLD>".
func detectEvolutionPatterns(message string) []evolutionEdge {
	var edges []evolutionEdge
	for _, m := range replacesRE.FindAllStringSubmatch(message, -1) {
		edges = append(edges, evolutionEdge{kind: "EVOLVES_FROM", newID: m[1], oldID: m[2]})
	}
	for _, m := range deprecateRE.FindAllStringSubmatch(message, -1) {
		edges = append(edges, evolutionEdge{kind: "DEPRECATED_BY", newID: m[2], oldID: m[1]})
	}
	for _, m := range supersedesRE.FindAllStringSubmatch(message, -1) {
		edges = append(edges, evolutionEdge{kind: "EVOLVES_FROM", newID: m[1], oldID: m[2]})
	}
	return edges
}
