package sortpipeline

import (
	"math/rand"
	"testing"

	"github.com/jabolina/go-terasort/internal/types"
)

func randomRecords(n int, seed int64) []types.Record {
	rng := rand.New(rand.NewSource(seed))
	out := make([]types.Record, n)
	for i := range out {
		r := make(types.Record, types.RecordSize)
		rng.Read(r)
		out[i] = r
	}
	return out
}

func assertSorted(t *testing.T, recs []types.Record) {
	t.Helper()
	for i := 1; i < len(recs); i++ {
		if recs[i].Less(recs[i-1]) {
			t.Fatalf("not ascending at index %d", i)
		}
	}
}

func TestSort_Ascending(t *testing.T) {
	recs := randomRecords(500, 1)
	Sort(recs)
	assertSorted(t, recs)
}

func TestParallelSort_MatchesSort(t *testing.T) {
	seq := randomRecords(20000, 2)
	par := make([]types.Record, len(seq))
	copy(par, seq)

	Sort(seq)
	ParallelSort(par)

	assertSorted(t, par)
	for i := range seq {
		if !seq[i].Equal(par[i]) {
			t.Fatalf("ParallelSort diverges from Sort at index %d", i)
		}
	}
}

func TestParallelSort_SmallInputFallsBackToSort(t *testing.T) {
	recs := randomRecords(10, 3)
	ParallelSort(recs)
	assertSorted(t, recs)
}
