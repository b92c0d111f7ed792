package cliutil

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderCheckResult prints one named validate_* check's pass/fail
// status and a detail table built from arbitrary count maps.
func RenderCheckResult(name string, passed bool, counts map[string]int64) {
	status := color.New(color.FgGreen, color.Bold).Sprint("PASS")
	if !passed {
		status = color.New(color.FgRed, color.Bold).Sprint("FAIL")
	}
	fmt.Printf("%s  %s\n", status, name)
	if len(counts) == 0 {
		return
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Type", "Count"})
	for _, k := range keys {
		t.AppendRow(table.Row{k, counts[k]})
	}
	t.Render()
}
