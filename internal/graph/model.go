package graph

// NodeRow is one row for a batched UNWIND MERGE of a single label. The
// business-key property name (spec §3 "Key" column) is passed to
// MergeNodes as keyProp; Props must include that key's value.
type NodeRow struct {
	Props map[string]any
}

// EdgeRow is one row for a batched UNWIND MERGE of a single edge type
// between two already-MERGEd node labels.
type EdgeRow struct {
	FromLabel string
	FromKey   string
	FromValue any
	ToLabel   string
	ToKey     string
	ToValue   any
	Props     map[string]any
}
