package cliutil

import "testing"

func TestStatusColorCoversKnownStatuses(t *testing.T) {
	for _, s := range []string{"running", "stopping", "completed", "failed", "stopped", "unknown"} {
		if StatusColor(s) == nil {
			t.Errorf("StatusColor(%q) returned nil", s)
		}
	}
}
