// Package sortpipeline implements the peer-local sort applied to the
// records gathered from the shuffle's inbox. §4.5.
package sortpipeline

import (
	"runtime"
	"sort"
	"sync"

	"github.com/jabolina/go-terasort/internal/types"
	"golang.org/x/sync/errgroup"
)

// Sort orders recs ascending by key then value in place. It need not be
// stable; key+value already breaks every tie, so any comparison sort that
// honors types.Record.Less is a valid implementation.
func Sort(recs []types.Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Less(recs[j]) })
}

// ParallelSort is an internal-only optimization of Sort: it splits recs
// into up to GOMAXPROCS contiguous chunks, sorts each concurrently with
// an errgroup, then merges the sorted chunks back together. It produces
// the exact same ordering as Sort and is safe to substitute for it
// without affecting any contract in §4.5.
func ParallelSort(recs []types.Record) {
	n := len(recs)
	workers := runtime.GOMAXPROCS(0)
	if workers < 2 || n < workers*4096 {
		Sort(recs)
		return
	}

	chunkSize := (n + workers - 1) / workers
	chunks := make([][]types.Record, 0, workers)
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		chunks = append(chunks, recs[start:end])
	}

	var g errgroup.Group
	for _, chunk := range chunks {
		chunk := chunk
		g.Go(func() error {
			Sort(chunk)
			return nil
		})
	}
	_ = g.Wait()

	merged := mergeAll(chunks)
	copy(recs, merged)
}

// mergeAll repeatedly pairs chunks and merges them until one sorted slice
// remains.
func mergeAll(chunks [][]types.Record) []types.Record {
	for len(chunks) > 1 {
		var next [][]types.Record
		var wg sync.WaitGroup
		results := make([][]types.Record, (len(chunks)+1)/2)
		for i := 0; i < len(chunks); i += 2 {
			if i+1 == len(chunks) {
				results[i/2] = chunks[i]
				continue
			}
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i/2] = merge(chunks[i], chunks[i+1])
			}()
		}
		wg.Wait()
		next = results
		chunks = next
	}
	if len(chunks) == 0 {
		return nil
	}
	return chunks[0]
}

// merge combines two already-sorted slices into one sorted slice.
func merge(a, b []types.Record) []types.Record {
	out := make([]types.Record, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Less(b[j]) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
