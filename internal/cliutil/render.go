// Package cliutil renders job status, validation reports, and subgraph
// query results for the kgctl terminal, in the teacher's CLI idiom:
// go-pretty tables, fatih/color status highlighting, go-humanize
// durations.
package cliutil

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ternarybob/kgraph/internal/ops"
	"github.com/ternarybob/kgraph/internal/orchestrator"
)

var (
	colorRunning   = color.New(color.FgYellow, color.Bold)
	colorCompleted = color.New(color.FgGreen, color.Bold)
	colorFailed    = color.New(color.FgRed, color.Bold)
	colorStopped   = color.New(color.FgMagenta, color.Bold)
)

// StatusColor returns the colorizer for a job status string.
func StatusColor(status string) *color.Color {
	switch orchestrator.Status(status) {
	case orchestrator.StatusRunning, orchestrator.StatusStopping:
		return colorRunning
	case orchestrator.StatusCompleted:
		return colorCompleted
	case orchestrator.StatusFailed:
		return colorFailed
	case orchestrator.StatusStopped:
		return colorStopped
	default:
		return color.New()
	}
}

// RenderJobSnapshot prints a job's stage-by-stage progress as a table.
func RenderJobSnapshot(snap *orchestrator.Snapshot) {
	fmt.Printf("Job %s  [%s]  profile=%s delta=%v\n",
		snap.JobID, StatusColor(string(snap.Status)).Sprint(snap.Status), snap.Profile, snap.Delta)
	fmt.Printf("Started %s ago, stage %d/%d (%.1f%%)\n",
		humanize.Time(snap.StartedAt), snap.StagesCompleted, snap.TotalStages, snap.PercentComplete)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Stage", "Duration", "Errors"})
	for i := 1; i <= snap.TotalStages; i++ {
		key := fmt.Sprintf("stage_%d", i)
		p, ok := snap.Progress[key]
		if !ok {
			t.AppendRow(table.Row{"-", "-", "-"})
			continue
		}
		errs := "-"
		if len(p.Errors) > 0 {
			errs = p.Errors[0]
		}
		t.AppendRow(table.Row{p.Stage, time.Duration(p.DurationMS) * time.Millisecond, errs})
	}
	t.Render()

	if snap.Result != nil {
		fmt.Printf("\nQuality score: %.1f  (nodes=%d edges=%d orphans=%d missing_ts=%d)\n",
			snap.Result.Score, snap.Result.TotalNodes, snap.Result.TotalEdges,
			snap.Result.OrphanNodes, snap.Result.MissingTimestamps)
	}
	if snap.Error != "" {
		colorFailed.Printf("\nerror: %s\n", snap.Error)
	}
}

// RenderJobList prints a compact table of recent jobs.
func RenderJobList(jobs []*ops.Job) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Profile", "Status", "Stage", "Started", "Duration"})
	for _, j := range jobs {
		dur := "running"
		if j.FinishedAt != nil {
			dur = humanize.RelTime(j.StartedAt, *j.FinishedAt, "", "")
		}
		t.AppendRow(table.Row{
			j.ID, j.Profile, StatusColor(j.Status).Sprint(j.Status), j.CurrentStage,
			humanize.Time(j.StartedAt), dur,
		})
	}
	t.Render()
}
