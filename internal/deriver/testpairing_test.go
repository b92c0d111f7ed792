package deriver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestColocationCandidateMatchesPrefixedTest(t *testing.T) {
	known := map[string]bool{"pkg/foo.py": true}
	got := TestColocationCandidate("pkg/test_foo.py", known)
	assert.Equal(t, "pkg/foo.py", got)
}

func TestTestColocationCandidateMatchesTestsDir(t *testing.T) {
	known := map[string]bool{"foo.py": true}
	got := TestColocationCandidate("tests/test_foo.py", known)
	assert.Equal(t, "foo.py", got)
}

func TestTestColocationCandidateReturnsEmptyForNonTest(t *testing.T) {
	got := TestColocationCandidate("pkg/foo.py", map[string]bool{})
	assert.Equal(t, "", got)
}
