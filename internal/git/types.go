// Package git shells out to the system git binary to enumerate commits,
// diffs, renames, blame, and file content at a revision. It never
// mutates the repository it reads.
package git

import "time"

// ChangeType mirrors git's --name-status single-letter codes.
type ChangeType string

const (
	ChangeAdded    ChangeType = "A"
	ChangeModified ChangeType = "M"
	ChangeDeleted  ChangeType = "D"
	ChangeRenamed  ChangeType = "R"
)

// FileChange is one file touched by a commit.
type FileChange struct {
	Path       string
	OldPath    string // set only when ChangeType == ChangeRenamed
	ChangeType ChangeType
	Similarity int // rename similarity percentage, 0 when not a rename
	Additions  int
	Deletions  int
	LinesAfter int
}

// Commit is one entry from `git log`.
type Commit struct {
	Hash      string
	Author    string
	Email     string
	Timestamp time.Time
	Message   string
	Branch    string
	Files     []FileChange
}

// HistoryEvent is one entry from FileHistory: a touch or a rename pair.
type HistoryEvent struct {
	CommitHash string
	Timestamp  time.Time
	ChangeType ChangeType
	Path       string
	OldPath    string // set for renames
	Similarity int
}
