package partition

import "testing"

func TestPlan_CoversEveryRecordExactlyOnce(t *testing.T) {
	cases := []struct {
		n int64
		t int
	}{
		{n: 100, t: 4}, {n: 101, t: 4}, {n: 1, t: 4}, {n: 0, t: 4}, {n: 7, t: 3},
	}
	for _, c := range cases {
		var total int64
		var prevEnd int64
		for id := 0; id < c.t; id++ {
			start, end := Plan(c.n, c.t, id)
			if start != prevEnd {
				t.Fatalf("n=%d t=%d id=%d: slice starts at %d, want %d (contiguous)", c.n, c.t, id, start, prevEnd)
			}
			if end < start {
				t.Fatalf("n=%d t=%d id=%d: end %d < start %d", c.n, c.t, id, end, start)
			}
			total += end - start
			prevEnd = end
		}
		if total != c.n {
			t.Fatalf("n=%d t=%d: slices summed to %d, want %d", c.n, c.t, total, c.n)
		}
	}
}

func TestPlan_SizesDifferByAtMostOne(t *testing.T) {
	n, tCount := int64(103), 7
	var min, max int64 = 1 << 62, 0
	for id := 0; id < tCount; id++ {
		size := Size(n, tCount, id)
		if size < min {
			min = size
		}
		if size > max {
			max = size
		}
	}
	if max-min > 1 {
		t.Fatalf("slice sizes vary by %d, want at most 1", max-min)
	}
}
