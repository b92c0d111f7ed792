package subgraph

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"

	"github.com/ternarybob/kgraph/internal/graph"
	"github.com/ternarybob/kgraph/internal/telemetry"
)

// Engine answers windowed subgraph and commit-bucket queries against
// the graph store, with a TTL cache in front (spec §4.10, grounded on
// original_source/developer_graph/temporal_engine.py's
// get_windowed_subgraph/get_commits_buckets).
type Engine struct {
	client  *graph.Client
	cache   resultCache
	metrics *telemetry.Metrics
	logger  *logrus.Entry
}

// NewEngine builds an Engine backed by a process-local TTL cache.
func NewEngine(client *graph.Client, metrics *telemetry.Metrics, logger *logrus.Logger) *Engine {
	return &Engine{
		client:  client,
		cache:   newLocalCache(),
		metrics: metrics,
		logger:  logger.WithField("component", "subgraph"),
	}
}

// WithRedisCache swaps in a shared redis-backed cache (spec §11 domain
// stack: "optional shared cache backend behind the same cache
// interface"), for multi-replica deployments.
func (e *Engine) WithRedisCache(c resultCache) *Engine {
	e.cache = c
	return e
}

type keyset struct {
	timestamp string
	elementID string
}

// parseCursor accepts either the keyset form "<ts>|<element_id>" or a
// legacy bare integer treated as a skip count (spec §4.10 "Pagination").
func parseCursor(cursor string) (ks *keyset, legacyOffset int, isLegacy bool) {
	if cursor == "" {
		return nil, 0, false
	}
	if strings.Contains(cursor, "|") {
		parts := strings.SplitN(cursor, "|", 2)
		if parts[0] != "" {
			return &keyset{timestamp: parts[0], elementID: parts[1]}, 0, false
		}
	}
	if n, err := strconv.Atoi(cursor); err == nil {
		return nil, n, true
	}
	return nil, 0, false
}

// GetWindowedSubgraph implements spec §4.10's single operation.
func (e *Engine) GetWindowedSubgraph(ctx context.Context, q Query) (*Response, error) {
	if q.Limit <= 0 {
		q.Limit = 1000
	}
	if q.Limit > 50000 {
		q.Limit = 50000
	}

	key := cacheKey(q)
	if cached, ok := e.cache.Get(key); ok {
		e.metrics.RecordCacheHit(true)
		hit := *cached
		hit.Performance.CacheHit = true
		return &hit, nil
	}
	e.metrics.RecordCacheHit(false)

	start := time.Now()
	resp, err := e.runQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	resp.Performance.QueryTimeMS = float64(time.Since(start).Microseconds()) / 1000.0
	e.metrics.RecordQueryLatency(resp.Performance.QueryTimeMS)

	e.cache.Set(key, resp, defaultTTL)
	return resp, nil
}

func (e *Engine) runQuery(ctx context.Context, q Query) (*Response, error) {
	noBounds := q.From == "" && q.To == ""

	// Untimestamped edges are admitted only when neither bound is
	// provided, or when the edge type is in the static allowlist
	// (spec §4.10) — both conditions, not the allowlist alone.
	where := []string{fmt.Sprintf("(r.timestamp IS NOT NULL OR $no_bounds OR type(r) IN %s)", allowlistLiteral())}
	params := map[string]any{"limit": q.Limit, "no_bounds": noBounds}

	if noBounds && q.Limit <= 100 {
		defaultFrom := time.Now().AddDate(0, 0, -defaultLookbackDays).UTC().Format(time.RFC3339)
		where = append(where, "(r.timestamp IS NULL OR r.timestamp >= $default_from_ts)")
		params["default_from_ts"] = defaultFrom
	}
	if q.From != "" {
		where = append(where, "(r.timestamp IS NULL OR r.timestamp >= $from_ts)")
		params["from_ts"] = q.From
	}
	if q.To != "" {
		where = append(where, "(r.timestamp IS NULL OR r.timestamp <= $to_ts)")
		params["to_ts"] = q.To
	}
	if len(q.Types) > 0 {
		var typeConds []string
		for i, t := range q.Types {
			pname := fmt.Sprintf("type%d", i)
			params[pname] = t
			typeConds = append(typeConds, fmt.Sprintf("$%s IN labels(a) OR $%s IN labels(b)", pname, pname))
		}
		where = append(where, "("+strings.Join(typeConds, " OR ")+")")
	}

	ks, legacyOffset, isLegacy := parseCursor(q.Cursor)
	if ks != nil {
		where = append(where, "(r.timestamp < $c_ts OR (r.timestamp = $c_ts AND elementId(r) < $c_rid))")
		params["c_ts"] = ks.timestamp
		params["c_rid"] = ks.elementID
	}
	if isLegacy {
		params["offset"] = legacyOffset
	}

	cypher := "MATCH (a)-[r]->(b) WHERE " + strings.Join(where, " AND ") +
		" WITH a, b, r, type(r) AS rel_type, r.timestamp AS ts, elementId(r) AS rid" +
		" ORDER BY ts DESC, rid DESC"
	if isLegacy {
		cypher += " SKIP $offset"
	}
	cypher += " LIMIT $limit RETURN DISTINCT a, labels(a) AS a_labels, b, labels(b) AS b_labels, r, rel_type, ts, rid"

	var resp *Response
	_, err := e.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		rows, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := rows.Collect(ctx)
		if err != nil {
			return nil, err
		}
		resp = buildResponse(records, q.Limit, isLegacy, legacyOffset)
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("windowed subgraph query: %w", err)
	}

	if q.IncludeCounts {
		nodes, edges, err := e.counts(ctx, noBounds)
		if err != nil {
			return nil, err
		}
		resp.Pagination.TotalNodes = &nodes
		resp.Pagination.TotalEdges = &edges
	}
	return resp, nil
}

func allowlistLiteral() string {
	names := make([]string, 0, len(temporalAllowlist))
	for k := range temporalAllowlist {
		names = append(names, "'"+k+"'")
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func buildResponse(records []*neo4j.Record, limit int, isLegacy bool, legacyOffset int) *Response {
	nodesSeen := map[string]Node{}
	var edges []Edge

	for _, rec := range records {
		aRaw, _ := rec.Get("a")
		bRaw, _ := rec.Get("b")
		aLabelsRaw, _ := rec.Get("a_labels")
		bLabelsRaw, _ := rec.Get("b_labels")
		relType, _ := rec.Get("rel_type")
		tsRaw, _ := rec.Get("ts")
		ridRaw, _ := rec.Get("rid")
		propsRaw, _ := rec.Get("r")

		aNode := toGraphNode(aRaw)
		bNode := toGraphNode(bRaw)
		aID := nodeID(aNode)
		bID := nodeID(bNode)

		registerNode(nodesSeen, aID, toStrings(aLabelsRaw), aNode)
		registerNode(nodesSeen, bID, toStrings(bLabelsRaw), bNode)

		ts, _ := tsRaw.(string)
		rid := fmt.Sprintf("%v", ridRaw)
		edges = append(edges, Edge{
			From: aID, To: bID, Type: fmt.Sprintf("%v", relType),
			Timestamp: ts, ElementID: rid, Properties: relProperties(propsRaw),
		})
	}

	nodes := make([]Node, 0, len(nodesSeen))
	for _, n := range nodesSeen {
		nodes = append(nodes, n)
	}

	resp := &Response{
		Nodes: nodes,
		Edges: edges,
		Pagination: Pagination{
			ReturnedNodes: len(nodes),
			ReturnedEdges: len(edges),
			Limit:         limit,
		},
	}
	if len(edges) == limit && len(edges) > 0 {
		last := edges[len(edges)-1]
		if last.Timestamp != "" {
			resp.Pagination.NextCursor = last.Timestamp + "|" + last.ElementID
		} else if isLegacy {
			resp.Pagination.NextCursor = strconv.Itoa(legacyOffset + limit)
		}
		resp.Pagination.HasMore = resp.Pagination.NextCursor != ""
	}
	return resp
}

func registerNode(seen map[string]Node, id string, labels []string, raw map[string]any) {
	if _, ok := seen[id]; ok {
		return
	}
	x, y := ringLayout(id)
	props := map[string]any{}
	for k, v := range raw {
		if v != nil {
			props[k] = v
		}
	}
	seen[id] = Node{ID: id, Labels: labels, Properties: props, X: x, Y: y, Size: nodeSize(labels)}
}

func toGraphNode(raw any) map[string]any {
	n, ok := raw.(neo4j.Node)
	if !ok {
		return map[string]any{}
	}
	return n.Props
}

func relProperties(raw any) map[string]any {
	rel, ok := raw.(neo4j.Relationship)
	if !ok {
		return nil
	}
	out := map[string]any{}
	for k, v := range rel.Props {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

func toStrings(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func nodeID(props map[string]any) string {
	for _, key := range []string{"id", "hash", "path"} {
		if v, ok := props[key]; ok {
			return fmt.Sprintf("%v", v)
		}
	}
	if v, ok := props["number"]; ok {
		return fmt.Sprintf("sprint-%v", v)
	}
	return fmt.Sprintf("%v", props)
}

// CommitBucket is one time-bucketed commit density sample.
type CommitBucket struct {
	Bucket       string `json:"bucket"`
	CommitCount  int64  `json:"commit_count"`
	FileChanges  int64  `json:"file_changes"`
	Granularity  string `json:"granularity"`
}

// GetCommitBuckets groups TOUCHED edges into day/week buckets for
// timeline density charts (spec §4.10's sibling operation
// commits_buckets, §6 HTTP surface).
func (e *Engine) GetCommitBuckets(ctx context.Context, granularity, from, to string, limit int) ([]CommitBucket, error) {
	if granularity != "day" && granularity != "week" {
		granularity = "day"
	}
	if limit <= 0 || limit > 10000 {
		limit = 1000
	}

	bucketExpr := "date(datetime(r.timestamp))"
	if granularity == "week" {
		bucketExpr = "date(datetime(r.timestamp) - duration({days: dayOfWeek(datetime(r.timestamp)) - 1}))"
	}

	where := []string{"r.timestamp IS NOT NULL"}
	params := map[string]any{"limit": limit}
	if from != "" {
		where = append(where, "r.timestamp >= $from_ts")
		params["from_ts"] = from
	}
	if to != "" {
		where = append(where, "r.timestamp <= $to_ts")
		params["to_ts"] = to
	}

	cypher := fmt.Sprintf(`
MATCH (c:GitCommit)-[r:TOUCHED]->()
WHERE %s
WITH %s AS bucket, count(DISTINCT c) AS commit_count, count(r) AS file_changes
RETURN toString(bucket) AS bucket, commit_count, file_changes
ORDER BY bucket DESC
LIMIT $limit`, strings.Join(where, " AND "), bucketExpr)

	var buckets []CommitBucket
	_, err := e.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		rows, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := rows.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			b, _ := rec.Get("bucket")
			cc, _ := rec.Get("commit_count")
			fc, _ := rec.Get("file_changes")
			buckets = append(buckets, CommitBucket{
				Bucket: fmt.Sprintf("%v", b), CommitCount: toInt64(cc), FileChanges: toInt64(fc), Granularity: granularity,
			})
		}
		return nil, nil
	})
	return buckets, err
}

func toInt64(v any) int64 {
	n, _ := v.(int64)
	return n
}

// counts computes total_nodes/total_edges, applying the 7-day
// recent-only filter whenever no bounds are given (the main query
// applies it only when limit <= 100), to bound latency (spec §4.10
// "Counts").
func (e *Engine) counts(ctx context.Context, noBounds bool) (nodes int64, edges int64, err error) {
	params := map[string]any{}
	filter := "true"
	if noBounds {
		params["default_from_ts"] = time.Now().AddDate(0, 0, -defaultLookbackDays).UTC().Format(time.RFC3339)
		filter = "(n.timestamp IS NULL OR n.timestamp >= $default_from_ts)"
	}
	_, err = e.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		nodeRows, err := tx.Run(ctx, "MATCH (n) WHERE "+filter+" RETURN count(n) AS node_count", params)
		if err != nil {
			return nil, err
		}
		nodeRec, err := nodeRows.Single(ctx)
		if err != nil {
			return nil, err
		}
		nc, _ := nodeRec.Get("node_count")
		nodes = toInt64(nc)

		edgeFilter := "true"
		if noBounds {
			edgeFilter = "(r.timestamp IS NULL OR r.timestamp >= $default_from_ts)"
		}
		edgeRows, err := tx.Run(ctx, "MATCH ()-[r]->() WHERE "+edgeFilter+" RETURN count(r) AS edge_count", params)
		if err != nil {
			return nil, err
		}
		edgeRec, err := edgeRows.Single(ctx)
		if err != nil {
			return nil, err
		}
		ec, _ := edgeRec.Get("edge_count")
		edges = toInt64(ec)
		return nil, nil
	})
	return nodes, edges, err
}
