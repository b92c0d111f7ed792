package git

import (
	"context"
	"strconv"
	"strings"
)

// FileHistory returns the change/rename events for path, most recent
// first, following renames across the file's lifetime.
func (r *Reader) FileHistory(ctx context.Context, path string, limit int) ([]HistoryEvent, error) {
	args := []string{"log", "-M", "--follow", "--name-status",
		`--pretty=format:%H%x09%aI%x00`}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}
	args = append(args, "--", path)

	out, err := r.run(ctx, commitsTimeout, args...)
	if err != nil {
		return nil, err
	}

	var events []HistoryEvent
	for _, record := range strings.Split(string(out), "\x00") {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}
		lines := strings.Split(record, "\n")
		if len(lines) == 0 {
			continue
		}
		header := strings.SplitN(lines[0], "\t", 2)
		if len(header) != 2 {
			continue
		}
		hash := header[0]
		ts, _ := parseISOTime(header[1])

		for _, line := range lines[1:] {
			if strings.TrimSpace(line) == "" {
				continue
			}
			fc, ok := parseNameStatusLine(line)
			if !ok {
				continue
			}
			events = append(events, HistoryEvent{
				CommitHash: hash,
				Timestamp:  ts,
				ChangeType: fc.ChangeType,
				Path:       fc.Path,
				OldPath:    fc.OldPath,
				Similarity: fc.Similarity,
			})
		}
	}
	return events, nil
}
