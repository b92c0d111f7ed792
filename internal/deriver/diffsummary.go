package deriver

import (
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffSummary computes a short human-readable summary of the change
// between two file revisions as added/removed character counts. No
// derivation pass calls it, so no edge carries a diff_summary property.
func DiffSummary(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	added, removed := 0, 0
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += len(d.Text)
		case diffmatchpatch.DiffDelete:
			removed += len(d.Text)
		}
	}
	return fmt.Sprintf("+%d/-%d chars", added, removed)
}
