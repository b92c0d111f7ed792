// Package sprint parses planning documents for sprint windows and
// links them to commits and documents (spec §4.9).
package sprint

import (
	"regexp"
	"strconv"
	"time"
)

// Window is one sprint's time-boxed window.
type Window struct {
	Number    int
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

var sprintBlockRE = regexp.MustCompile(
	`(?is)Sprint\s+(\d+)[^\n]*\n(?:.*?Start Date:\s*(\d{4}-\d{2}-\d{2}))?(?:.*?End Date:\s*(\d{4}-\d{2}-\d{2}))?`)

const dateLayout = "2006-01-02"

// ParseSprintStatus extracts per-sprint (number, start, end) from
// docs/sprints/planning/SPRINT_STATUS.md content via anchored regexes
// (spec §4.9, §6 "Sprint planning format"). Sprints missing either
// date fall back to a 14-day window ending "now" (now is supplied by
// the caller so parsing stays deterministic).
func ParseSprintStatus(content string, now time.Time) []Window {
	matches := sprintBlockRE.FindAllStringSubmatch(content, -1)
	windows := make([]Window, 0, len(matches))
	for _, m := range matches {
		number, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		w := Window{Number: number, Name: "Sprint " + strconv.Itoa(number)}
		start, sOK := parseDate(m[2])
		end, eOK := parseDate(m[3])
		switch {
		case sOK && eOK:
			w.StartDate, w.EndDate = start, end
		case sOK:
			w.StartDate = start
			w.EndDate = start.AddDate(0, 0, 14)
		case eOK:
			w.EndDate = end
			w.StartDate = end.AddDate(0, 0, -14)
		default:
			w.EndDate = now
			w.StartDate = now.AddDate(0, 0, -14)
		}
		windows = append(windows, w)
	}
	return windows
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
