// Package sample implements the pivot-sampling protocol: each peer draws a
// share of leading records from its slice, and peer 0 reduces the
// concatenation into a broadcast pivot list. §4.2.
package sample

import (
	"sort"

	"github.com/jabolina/go-terasort/internal/types"
)

// Reader is the minimal record-access surface the sampler needs out of
// RecordIO: random access by absolute record index.
type Reader interface {
	ReadAt(index int64) (types.Record, error)
}

// LocalCount returns the number of samples peer id must contribute out of
// a total sample budget S spread across t peers: ceil((S-id)/t), clamped
// at 0 for peers past the budget.
func LocalCount(sampleSize, peerCount, id int) int {
	numerator := sampleSize - id
	if numerator <= 0 {
		return 0
	}
	return (numerator + peerCount - 1) / peerCount
}

// Select draws the leading `count` records (or fewer, if the local slice
// is smaller) starting at `start` from reader, cloning each one so it
// survives beyond whatever window backs the reader.
func Select(reader Reader, start, sliceSize int64, count int) ([]types.Record, error) {
	if count <= 0 || sliceSize <= 0 {
		return nil, nil
	}
	if int64(count) > sliceSize {
		count = int(sliceSize)
	}
	out := make([]types.Record, 0, count)
	for i := 0; i < count; i++ {
		r, err := reader.ReadAt(start + int64(i))
		if err != nil {
			return nil, err
		}
		out = append(out, r.Clone())
	}
	return out, nil
}

// SelectPivots is run once, on peer 0, over the concatenation of every
// peer's contributed samples: deduplicate, sort ascending, then choose up
// to peerCount-1 equally-spaced separators.
//
// If, after deduplication, 0 or 1 distinct samples remain, the pivot list
// is empty and every record in the run routes to peer 0's bucket (the
// degenerate single-bucket-sink case documented in §4.2).
func SelectPivots(allSamples []types.Record, peerCount int) types.PivotList {
	dedup := dedupeSorted(allSamples)
	p := len(dedup)
	if p <= 1 {
		return nil
	}

	pivotSlots := peerCount
	if p < pivotSlots {
		pivotSlots = p
	}
	pivotCount := pivotSlots - 1

	stride := p / peerCount
	if stride < 1 {
		stride = 1
	}

	pivots := make(types.PivotList, 0, pivotCount)
	for i := 1; i <= pivotCount; i++ {
		idx := i * stride
		if idx >= p {
			break
		}
		pivots = append(pivots, dedup[idx])
	}
	return pivots
}

// dedupeSorted sorts records ascending and drops consecutive duplicates.
func dedupeSorted(samples []types.Record) []types.Record {
	if len(samples) == 0 {
		return nil
	}
	sorted := make([]types.Record, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	out := sorted[:1]
	for _, r := range sorted[1:] {
		if !out[len(out)-1].Equal(r) {
			out = append(out, r)
		}
	}
	return out
}
