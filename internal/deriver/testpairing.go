package deriver

import (
	"path"
	"regexp"
	"strings"
)

var testPrefixRE = regexp.MustCompile(`^test_(.+)$`)
var testSuffixRE = regexp.MustCompile(`^(.+)_test$`)

// TestColocationCandidate reports the implementation file path a test
// file heuristically pairs with (spec §4.8 "test-colocation": e.g.
// tests/test_foo.py <-> foo.py), or "" if the path doesn't look like a
// test file.
func TestColocationCandidate(testPath string, knownFiles map[string]bool) string {
	base := path.Base(testPath)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	var implStem string
	if m := testPrefixRE.FindStringSubmatch(stem); m != nil {
		implStem = m[1]
	} else if m := testSuffixRE.FindStringSubmatch(stem); m != nil {
		implStem = m[1]
	} else {
		return ""
	}

	implName := implStem + ext
	dir := path.Dir(testPath)
	candidates := []string{
		path.Join(dir, implName),
		path.Join(strings.TrimSuffix(dir, "/tests"), implName),
		path.Join(strings.TrimSuffix(dir, "/test"), implName),
		implName,
	}
	for _, c := range candidates {
		if knownFiles[c] {
			return c
		}
	}
	return ""
}
