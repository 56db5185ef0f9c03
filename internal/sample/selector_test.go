package sample

import (
	"testing"

	"github.com/jabolina/go-terasort/internal/types"
)

type sliceReader []types.Record

func (s sliceReader) ReadAt(index int64) (types.Record, error) {
	return s[index], nil
}

func record(key byte) types.Record {
	r := make(types.Record, types.RecordSize)
	for i := 0; i < types.KeySize; i++ {
		r[i] = key
	}
	return r
}

func TestLocalCount_SplitsBudgetAcrossPeers(t *testing.T) {
	// S=10, T=4: peer 0 gets ceil(10/4)=3, peer 3 gets ceil(7/4)=2.
	if got := LocalCount(10, 4, 0); got != 3 {
		t.Fatalf("peer 0: got %d, want 3", got)
	}
	if got := LocalCount(10, 4, 3); got != 2 {
		t.Fatalf("peer 3: got %d, want 2", got)
	}
	// Peers past the budget contribute nothing.
	if got := LocalCount(2, 4, 3); got != 0 {
		t.Fatalf("peer past budget: got %d, want 0", got)
	}
}

func TestSelect_CapsAtSliceSize(t *testing.T) {
	reader := sliceReader{record(1), record(2), record(3)}
	out, err := Select(reader, 0, 3, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d samples, want 3 (capped by slice size)", len(out))
	}
}

func TestSelectPivots_DedupsAndSpreads(t *testing.T) {
	var samples []types.Record
	for _, k := range []byte{5, 1, 3, 3, 1, 7, 2, 6, 4} {
		samples = append(samples, record(k))
	}
	pivots := SelectPivots(samples, 4)
	if len(pivots) != 3 {
		t.Fatalf("got %d pivots, want 3 (T-1)", len(pivots))
	}
	for i := 1; i < len(pivots); i++ {
		if !pivots[i-1].Less(pivots[i]) {
			t.Fatalf("pivots not strictly ascending: %v", pivots)
		}
	}
}

func TestSelectPivots_DegenerateSingleDistinctSample(t *testing.T) {
	samples := []types.Record{record(9), record(9), record(9)}
	if pivots := SelectPivots(samples, 4); len(pivots) != 0 {
		t.Fatalf("expected empty pivot list for a single distinct sample, got %v", pivots)
	}
}
