// Package classify assigns each record in a peer's local slice to one of
// T target sub-buckets by binary-searching the broadcast pivot list. §4.3.
package classify

import "github.com/jabolina/go-terasort/internal/types"

// Classifier buckets records against a fixed pivot list. Its zero value is
// not usable; construct with New.
type Classifier struct {
	pivots    types.PivotList
	peerCount int
}

// New returns a Classifier for the given pivot list, producing bucket
// indices in [0, peerCount).
//
// If pivots is empty (the degenerate case from §4.2), every record routes
// to bucket 0 regardless of peerCount, matching the reference behavior
// documented there.
func New(pivots types.PivotList, peerCount int) *Classifier {
	return &Classifier{pivots: pivots, peerCount: peerCount}
}

// Bucket returns the target peer id for r: the smallest index b such that
// r < pivots[b], or len(pivots) if r is greater than or equal to every
// pivot. Records equal to a pivot route to the higher bucket (lower_bound
// semantics), so the policy is identical on every peer given identical
// pivots (I3).
func (c *Classifier) Bucket(r types.Record) int {
	if len(c.pivots) == 0 {
		return 0
	}
	return c.pivots.LowerBound(r)
}

// SubBuckets classifies every record in recs, in order, into peerCount
// ordered slices indexed by target peer id.
func (c *Classifier) SubBuckets(recs []types.Record) [][]types.Record {
	out := make([][]types.Record, c.peerCount)
	for _, r := range recs {
		b := c.Bucket(r)
		out[b] = append(out[b], r)
	}
	return out
}
