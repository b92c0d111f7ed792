package sprint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSprintStatusFullDates(t *testing.T) {
	content := `
## Sprint 3: Graph Derivation
Start Date: 2026-01-05
End Date: 2026-01-19
`
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	windows := ParseSprintStatus(content, now)
	require.Len(t, windows, 1)
	assert.Equal(t, 3, windows[0].Number)
	assert.Equal(t, "2026-01-05", windows[0].StartDate.Format(dateLayout))
	assert.Equal(t, "2026-01-19", windows[0].EndDate.Format(dateLayout))
}

func TestParseSprintStatusStartOnlyFallsBackTo14Days(t *testing.T) {
	content := `
Sprint 7
Start Date: 2026-02-01
`
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	windows := ParseSprintStatus(content, now)
	require.Len(t, windows, 1)
	assert.Equal(t, "2026-02-01", windows[0].StartDate.Format(dateLayout))
	assert.Equal(t, "2026-02-15", windows[0].EndDate.Format(dateLayout))
}

func TestParseSprintStatusEndOnlyFallsBackTo14Days(t *testing.T) {
	content := `
Sprint 9
End Date: 2026-03-15
`
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	windows := ParseSprintStatus(content, now)
	require.Len(t, windows, 1)
	assert.Equal(t, "2026-03-01", windows[0].StartDate.Format(dateLayout))
	assert.Equal(t, "2026-03-15", windows[0].EndDate.Format(dateLayout))
}

func TestParseSprintStatusNeitherDateFallsBackToNow(t *testing.T) {
	content := "Sprint 12: Unscheduled\n"
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	windows := ParseSprintStatus(content, now)
	require.Len(t, windows, 1)
	assert.Equal(t, now, windows[0].EndDate)
	assert.Equal(t, now.AddDate(0, 0, -14), windows[0].StartDate)
}

func TestParseSprintStatusMultipleSprintsInOneDocument(t *testing.T) {
	content := `
Sprint 1
Start Date: 2026-01-01
End Date: 2026-01-14

Sprint 2
Start Date: 2026-01-15
End Date: 2026-01-28
`
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	windows := ParseSprintStatus(content, now)
	require.Len(t, windows, 2)
	assert.Equal(t, 1, windows[0].Number)
	assert.Equal(t, 2, windows[1].Number)
	assert.Equal(t, "Sprint 1", windows[0].Name)
	assert.Equal(t, "Sprint 2", windows[1].Name)
}
