package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DetectRepo verifies repoPath is inside a git working tree.
func DetectRepo(repoPath string) error {
	cmd := exec.Command("git", "-C", repoPath, "rev-parse", "--is-inside-work-tree")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("not a git repository: %w", err)
	}
	return nil
}

// CurrentBranch returns the checked-out branch name, used to stamp the
// GitCommit.branch attribute for commits reachable from HEAD.
func (r *Reader) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.run(ctx, contentTimeout, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
