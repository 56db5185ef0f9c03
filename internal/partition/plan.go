// Package partition computes the contiguous, non-overlapping input slice
// each peer reads and, for the shared-file placement variant, the byte
// offset each peer writes at. §4.1.
package partition

// Plan returns the half-open record range [start, end) peer id owns out of
// a total of n records split across t peers. The base slice size is
// n/t; the first n%t peers (by id) take one extra record, so slice sizes
// differ by at most one across peers and sum exactly to n.
func Plan(n int64, t int, id int) (start, end int64) {
	base := n / int64(t)
	remainder := n - int64(t)*base
	extra := int64(id)
	if extra > remainder {
		extra = remainder
	}
	start = int64(id)*base + extra
	size := base
	if int64(id) < remainder {
		size++
	}
	end = start + size
	return start, end
}

// Size is a convenience wrapper returning end-start for id.
func Size(n int64, t int, id int) int64 {
	start, end := Plan(n, t, id)
	return end - start
}
