package symbols

// CoOccurrence is a weighted pair of files touched by the same commit
// more than once (spec §4.6 step 7 "CO_OCCURS_WITH").
type CoOccurrence struct {
	FileA  string
	FileB  string
	Weight int
}

// ComputeCoOccurrence counts, for each pair of files touched in the
// same commit, how many commits they shared, and keeps pairs with
// weight > 1. Pairs are normalized lexicographically (spec §4.6).
func ComputeCoOccurrence(commitFiles [][]string) []CoOccurrence {
	pairCounts := map[[2]string]int{}
	for _, files := range commitFiles {
		uniq := dedupe(files)
		for i := 0; i < len(uniq); i++ {
			for j := i + 1; j < len(uniq); j++ {
				a, b := uniq[i], uniq[j]
				if a > b {
					a, b = b, a
				}
				pairCounts[[2]string{a, b}]++
			}
		}
	}

	var out []CoOccurrence
	for pair, weight := range pairCounts {
		if weight > 1 {
			out = append(out, CoOccurrence{FileA: pair[0], FileB: pair[1], Weight: weight})
		}
	}
	return out
}

func dedupe(files []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(files))
	for _, f := range files {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
