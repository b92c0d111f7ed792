package validator

import "testing"

func TestAllZeroTrueWhenEmpty(t *testing.T) {
	if !allZero(map[string]int64{}) {
		t.Fatal("expected empty map to be all zero")
	}
}

func TestAllZeroFalseWhenAnyNonZero(t *testing.T) {
	if allZero(map[string]int64{"TOUCHED": 0, "IMPLEMENTS": 3}) {
		t.Fatal("expected false when a type has a nonzero count")
	}
}

func TestIntFromHandlesIntAndInt64(t *testing.T) {
	if intFrom(int64(5)) != 5 {
		t.Errorf("int64 path failed")
	}
	if intFrom(int(7)) != 7 {
		t.Errorf("int path failed")
	}
	if intFrom("not a number") != 0 {
		t.Errorf("unknown type should default to 0")
	}
}

func TestCountFromPicksFirstKnownKey(t *testing.T) {
	rows := []map[string]any{{"removed": int64(4)}}
	if got := countFrom(rows); got != 4 {
		t.Errorf("countFrom = %d, want 4", got)
	}
}

func TestCountFromEmptyRows(t *testing.T) {
	if got := countFrom(nil); got != 0 {
		t.Errorf("countFrom(nil) = %d, want 0", got)
	}
}
