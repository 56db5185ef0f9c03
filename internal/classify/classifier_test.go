package classify

import (
	"testing"

	"github.com/jabolina/go-terasort/internal/types"
)

func record(key byte) types.Record {
	r := make(types.Record, types.RecordSize)
	for i := 0; i < types.KeySize; i++ {
		r[i] = key
	}
	return r
}

func TestClassifier_SubBuckets_EveryRecordGoesSomewhere(t *testing.T) {
	pivots := types.PivotList{record(3), record(6)}
	c := New(pivots, 3)

	recs := []types.Record{record(1), record(3), record(4), record(6), record(9)}
	buckets := c.SubBuckets(recs)

	var total int
	for _, b := range buckets {
		total += len(b)
	}
	if total != len(recs) {
		t.Fatalf("classified %d records, want %d", total, len(recs))
	}
	if len(buckets) != 3 {
		t.Fatalf("got %d buckets, want 3 (peerCount)", len(buckets))
	}

	// key 1 < pivot 3 -> bucket 0. key 3 == pivot 3 -> bucket 1 (ties go higher).
	if len(buckets[0]) != 1 || !buckets[0][0].Equal(record(1)) {
		t.Fatalf("bucket 0: got %v, want [key=1]", buckets[0])
	}
}

func TestClassifier_EmptyPivots_EverythingToZero(t *testing.T) {
	c := New(nil, 3)
	recs := []types.Record{record(1), record(2), record(3)}
	buckets := c.SubBuckets(recs)
	if len(buckets[0]) != len(recs) {
		t.Fatalf("with no pivots every record should land in bucket 0, got %v", buckets)
	}
	for i := 1; i < len(buckets); i++ {
		if len(buckets[i]) != 0 {
			t.Fatalf("bucket %d should be empty with no pivots, got %v", i, buckets[i])
		}
	}
}
