package types

import "testing"

func makeRecord(key byte, value byte) Record {
	r := make(Record, RecordSize)
	for i := 0; i < KeySize; i++ {
		r[i] = key
	}
	for i := KeySize; i < RecordSize; i++ {
		r[i] = value
	}
	return r
}

func TestRecord_CompareOrdersByKeyThenValue(t *testing.T) {
	a := makeRecord(1, 5)
	b := makeRecord(1, 9)
	c := makeRecord(2, 0)

	if !a.Less(b) {
		t.Fatalf("expected %v < %v (same key, lower value)", a, b)
	}
	if !b.Less(c) {
		t.Fatalf("expected %v < %v (lower key wins regardless of value)", b, c)
	}
	if a.Compare(a.Clone()) != 0 {
		t.Fatalf("a clone should compare equal to a")
	}
}

func TestRecord_Clone_IsIndependent(t *testing.T) {
	a := makeRecord(3, 3)
	clone := a.Clone()
	a[0] = 0xFF
	if clone[0] == 0xFF {
		t.Fatalf("clone shares storage with source record")
	}
}

func TestPivotList_LowerBound_TiesRouteHigher(t *testing.T) {
	pivots := PivotList{makeRecord(2, 0), makeRecord(4, 0), makeRecord(6, 0)}

	if b := pivots.LowerBound(makeRecord(1, 0)); b != 0 {
		t.Fatalf("record below every pivot: got bucket %d, want 0", b)
	}
	if b := pivots.LowerBound(makeRecord(2, 0)); b != 1 {
		t.Fatalf("record equal to pivot 0: got bucket %d, want 1 (ties go higher)", b)
	}
	if b := pivots.LowerBound(makeRecord(5, 0)); b != 2 {
		t.Fatalf("record between pivot 1 and 2: got bucket %d, want 2", b)
	}
	if b := pivots.LowerBound(makeRecord(9, 0)); b != 3 {
		t.Fatalf("record above every pivot: got bucket %d, want 3", b)
	}
}

func TestPivotList_Equal(t *testing.T) {
	a := PivotList{makeRecord(1, 0), makeRecord(2, 0)}
	b := PivotList{makeRecord(1, 0), makeRecord(2, 0)}
	c := PivotList{makeRecord(1, 0), makeRecord(3, 0)}

	if !a.Equal(b) {
		t.Fatalf("expected identical pivot lists to compare equal")
	}
	if a.Equal(c) {
		t.Fatalf("expected differing pivot lists to compare unequal")
	}
}
