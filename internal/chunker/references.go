package chunker

import "regexp"

var (
	requirementRE = regexp.MustCompile(`(FR|NFR)-\d{2}-\d{2}`)
	sprintRE      = regexp.MustCompile(`(?i)sprint[ _-]?(\d+)`)
)

// extractReferences scans chunk text for requirement IDs and sprint
// references (spec §4.4: "Each chunk extracts requirement IDs ... into
// requirements[] and sprints[]").
func extractReferences(text string) (requirements, sprints []string) {
	seenReq := map[string]bool{}
	for _, m := range requirementRE.FindAllString(text, -1) {
		if !seenReq[m] {
			seenReq[m] = true
			requirements = append(requirements, m)
		}
	}
	seenSprint := map[string]bool{}
	for _, m := range sprintRE.FindAllStringSubmatch(text, -1) {
		num := "sprint-" + m[1]
		if !seenSprint[num] {
			seenSprint[num] = true
			sprints = append(sprints, num)
		}
	}
	return requirements, sprints
}
