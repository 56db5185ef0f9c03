package shuffle

import (
	"context"
	"sync"
	"testing"

	"github.com/jabolina/go-terasort/internal/runtime"
	"github.com/jabolina/go-terasort/internal/types"
)

func record(key byte) types.Record {
	r := make(types.Record, types.RecordSize)
	for i := 0; i < types.KeySize; i++ {
		r[i] = key
	}
	return r
}

// runShuffle drives newShuffler() (one per peer) over a loopback cluster
// with the given per-peer sub-buckets and returns each peer's gathered
// inbox, ordered by peer id.
func runShuffle(t *testing.T, size int, subBuckets [][][]types.Record, newShuffler func() Shuffler) [][]types.Record {
	t.Helper()
	runtimes := runtime.NewLoopbackCluster(size)
	defer func() {
		for _, rt := range runtimes {
			_ = rt.Close()
		}
	}()

	results := make([][]types.Record, size)
	var wg sync.WaitGroup
	for i := 0; i < size; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := newShuffler().Shuffle(context.Background(), runtimes[i], subBuckets[i])
			if err != nil {
				t.Errorf("peer %d: shuffle: %v", i, err)
				return
			}
			results[i] = out
		}(i)
	}
	wg.Wait()
	return results
}

func buildSubBuckets(size int) [][][]types.Record {
	// peer i sends record(i*size+j) to target j.
	subBuckets := make([][][]types.Record, size)
	for i := 0; i < size; i++ {
		subBuckets[i] = make([][]types.Record, size)
		for j := 0; j < size; j++ {
			subBuckets[i][j] = []types.Record{record(byte(i*size + j))}
		}
	}
	return subBuckets
}

func TestBatchShuffle_EveryTargetReceivesFromEverySender(t *testing.T) {
	const size = 3
	subBuckets := buildSubBuckets(size)
	results := runShuffle(t, size, subBuckets, func() Shuffler { return NewBatch() })

	for target := 0; target < size; target++ {
		if len(results[target]) != size {
			t.Fatalf("peer %d received %d records, want %d (one per sender)", target, len(results[target]), size)
		}
	}
}

func TestStreamedShuffle_EveryTargetReceivesFromEverySender(t *testing.T) {
	const size = 3
	subBuckets := buildSubBuckets(size)
	tunables := types.DefaultTunables()
	tunables.ConcurSendBucketSize = 1
	tunables.InFlightSendLimit = 1

	results := runShuffle(t, size, subBuckets, func() Shuffler { return NewStreamed(size, tunables) })

	for target := 0; target < size; target++ {
		if len(results[target]) != size {
			t.Fatalf("peer %d received %d records, want %d (one per sender)", target, len(results[target]), size)
		}
	}
}
