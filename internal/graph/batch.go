package graph

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// BatchWriter performs the UNWIND-based batched MERGE writes described
// in spec §4.2: rows are chunked at a caller-supplied batch size (500-
// 1000 for commits/chunks) and each batch gets up to 3 attempts with
// exponential backoff on transient errors before the failure is
// surfaced with its batch index.
type BatchWriter struct {
	client *Client
}

func NewBatchWriter(client *Client) *BatchWriter {
	return &BatchWriter{client: client}
}

// MergeNodes MERGEs label rows keyed by keyProp, 'batchSize' rows at a
// time, using `SET n += row` so unspecified properties are preserved
// (ON MATCH refresh, spec §3 "Ownership").
func (w *BatchWriter) MergeNodes(ctx context.Context, label, keyProp string, rows []NodeRow, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	if !ValidIdentifier(label) || !ValidIdentifier(keyProp) {
		return fmt.Errorf("invalid label/key for node merge: %s/%s", label, keyProp)
	}
	query := fmt.Sprintf(
		"UNWIND $rows AS row MERGE (n:%s {%s: row.%s}) SET n += row",
		label, keyProp, keyProp,
	)

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		params := make([]map[string]any, end-start)
		for i, r := range rows[start:end] {
			params[i] = r.Props
		}
		if err := w.runWithRetry(ctx, query, map[string]any{"rows": params}); err != nil {
			return fmt.Errorf("batch node merge failed for %s (batch %d-%d): %w", label, start, end, err)
		}
	}
	return nil
}

// MergeEdges MERGEs edges of a single relationship type in batches.
// Dynamic labels cannot be parameterized in Cypher, so fromLabel,
// fromKey, toLabel, toKey, and edgeType are validated as identifiers
// and interpolated directly; all values flow through parameters.
func (w *BatchWriter) MergeEdges(ctx context.Context, edgeType string, rows []EdgeRow, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	if !ValidIdentifier(edgeType) {
		return fmt.Errorf("invalid edge type: %s", edgeType)
	}

	byShape := map[string][]EdgeRow{}
	for _, r := range rows {
		if !ValidIdentifier(r.FromLabel) || !ValidIdentifier(r.FromKey) ||
			!ValidIdentifier(r.ToLabel) || !ValidIdentifier(r.ToKey) {
			return fmt.Errorf("invalid node label/key in edge row for %s", edgeType)
		}
		shape := r.FromLabel + "|" + r.FromKey + "|" + r.ToLabel + "|" + r.ToKey
		byShape[shape] = append(byShape[shape], r)
	}

	for _, shapeRows := range byShape {
		first := shapeRows[0]
		query := fmt.Sprintf(
			`UNWIND $rows AS row
MATCH (a:%s {%s: row.from_value})
MATCH (b:%s {%s: row.to_value})
MERGE (a)-[r:%s]->(b)
SET r += row.props`,
			first.FromLabel, first.FromKey, first.ToLabel, first.ToKey, edgeType,
		)

		for start := 0; start < len(shapeRows); start += batchSize {
			end := start + batchSize
			if end > len(shapeRows) {
				end = len(shapeRows)
			}
			params := make([]map[string]any, end-start)
			for i, r := range shapeRows[start:end] {
				params[i] = map[string]any{
					"from_value": r.FromValue,
					"to_value":   r.ToValue,
					"props":      r.Props,
				}
			}
			if err := w.runWithRetry(ctx, query, map[string]any{"rows": params}); err != nil {
				return fmt.Errorf("batch edge merge failed for %s (batch %d-%d): %w", edgeType, start, end, err)
			}
		}
	}
	return nil
}

const maxBatchAttempts = 3

// runWithRetry makes up to maxBatchAttempts attempts at a write,
// sleeping with exponential backoff (100ms, 200ms, 400ms) after each
// transient error.
func (w *BatchWriter) runWithRetry(ctx context.Context, query string, params map[string]any) error {
	var lastErr error
	for attempt := 0; attempt < maxBatchAttempts; attempt++ {
		_, err := w.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, query, params)
			return nil, err
		})
		if err == nil {
			return nil
		}
		lastErr = err
		if !neo4j.IsRetryable(err) {
			return err
		}
		backoff := time.Duration(math.Pow(2, float64(attempt))) * 100 * time.Millisecond
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
