package cliutil

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ternarybob/kgraph/internal/subgraph"
)

// RenderSubgraph prints a windowed subgraph query's nodes/edges as two
// tables plus the cache/pagination footer.
func RenderSubgraph(resp *subgraph.Response) {
	nodeTable := table.NewWriter()
	nodeTable.SetOutputMirror(os.Stdout)
	nodeTable.SetTitle("Nodes")
	nodeTable.AppendHeader(table.Row{"ID", "Labels", "X", "Y", "Size"})
	for _, n := range resp.Nodes {
		nodeTable.AppendRow(table.Row{n.ID, n.Labels, fmt.Sprintf("%.0f", n.X), fmt.Sprintf("%.0f", n.Y), n.Size})
	}
	nodeTable.Render()

	edgeTable := table.NewWriter()
	edgeTable.SetOutputMirror(os.Stdout)
	edgeTable.SetTitle("Edges")
	edgeTable.AppendHeader(table.Row{"Type", "From", "To", "Timestamp"})
	for _, e := range resp.Edges {
		edgeTable.AppendRow(table.Row{e.Type, e.From, e.To, e.Timestamp})
	}
	edgeTable.Render()

	fmt.Printf("\nreturned %d nodes, %d edges  (cache_hit=%v, query_time=%.1fms)\n",
		resp.Pagination.ReturnedNodes, resp.Pagination.ReturnedEdges,
		resp.Performance.CacheHit, resp.Performance.QueryTimeMS)
	if resp.Pagination.HasMore {
		fmt.Printf("more results available, next cursor: %s\n", resp.Pagination.NextCursor)
	}
}
