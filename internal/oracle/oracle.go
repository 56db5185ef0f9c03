// Package oracle provides the non-distributed reference sort named as an
// external collaborator in §1 and used by the test suite to validate
// distributed output (P7). It is a pure in-memory sort, bounded to small
// inputs by the module's explicit non-goal of sorting data larger than
// aggregate peer RAM; production runs never call this package.
package oracle

import "github.com/jabolina/go-terasort/internal/types"

// Sort returns a new, ascending-sorted copy of recs using the canonical
// key-then-value comparator. The input slice is left untouched.
func Sort(recs []types.Record) []types.Record {
	out := make([]types.Record, len(recs))
	copy(out, recs)
	sortInPlace(out)
	return out
}

func sortInPlace(recs []types.Record) {
	// Delegate to the same comparator the distributed sorter uses so the
	// oracle and the engine can never disagree on ordering semantics.
	quicksort(recs, 0, len(recs)-1)
}

// quicksort is a small hand-rolled sort kept independent of
// sortpipeline.Sort on purpose: the oracle must not share an
// implementation with the code path it is meant to validate.
func quicksort(recs []types.Record, lo, hi int) {
	for lo < hi {
		if hi-lo < 12 {
			insertionSort(recs, lo, hi)
			return
		}
		p := partition(recs, lo, hi)
		if p-lo < hi-p {
			quicksort(recs, lo, p-1)
			lo = p + 1
		} else {
			quicksort(recs, p+1, hi)
			hi = p - 1
		}
	}
}

func insertionSort(recs []types.Record, lo, hi int) {
	for i := lo + 1; i <= hi; i++ {
		for j := i; j > lo && recs[j].Less(recs[j-1]); j-- {
			recs[j], recs[j-1] = recs[j-1], recs[j]
		}
	}
}

func partition(recs []types.Record, lo, hi int) int {
	mid := lo + (hi-lo)/2
	pivot := recs[mid]
	recs[mid], recs[hi] = recs[hi], recs[mid]
	store := lo
	for i := lo; i < hi; i++ {
		if recs[i].Less(pivot) {
			recs[i], recs[store] = recs[store], recs[i]
			store++
		}
	}
	recs[store], recs[hi] = recs[hi], recs[store]
	return store
}
