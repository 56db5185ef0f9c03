package runtime

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestLoopback_BarrierReleasesAllPeersTogether(t *testing.T) {
	defer goleak.VerifyNone(t)

	const size = 4
	runtimes := NewLoopbackCluster(size)
	defer closeAll(runtimes)

	var wg sync.WaitGroup
	arrived := make([]bool, size)
	var mu sync.Mutex
	for i := 0; i < size; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := runtimes[i].Barrier(context.Background()); err != nil {
				t.Errorf("peer %d: barrier: %v", i, err)
				return
			}
			mu.Lock()
			arrived[i] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	for i, ok := range arrived {
		if !ok {
			t.Fatalf("peer %d never observed barrier release", i)
		}
	}
}

func TestLoopback_BroadcastDeliversPeerZeroValue(t *testing.T) {
	defer goleak.VerifyNone(t)

	const size = 3
	runtimes := NewLoopbackCluster(size)
	defer closeAll(runtimes)

	var wg sync.WaitGroup
	results := make([][]byte, size)
	for i := 0; i < size; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var value []byte
			if i == 0 {
				value = []byte("pivots")
			}
			v, err := runtimes[i].Broadcast(context.Background(), "pivots", value)
			if err != nil {
				t.Errorf("peer %d: broadcast: %v", i, err)
				return
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	for i, v := range results {
		if string(v) != "pivots" {
			t.Fatalf("peer %d: got %q, want \"pivots\"", i, v)
		}
	}
}

func TestLoopback_ReduceCombinesInPeerOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	const size = 5
	runtimes := NewLoopbackCluster(size)
	defer closeAll(runtimes)

	combine := func(contribs [][]byte) []byte {
		var out []byte
		for _, c := range contribs {
			out = append(out, c...)
		}
		return out
	}

	var wg sync.WaitGroup
	results := make([][]byte, size)
	for i := 0; i < size; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := runtimes[i].Reduce(context.Background(), "samples", []byte{byte(i)}, combine)
			if err != nil {
				t.Errorf("peer %d: reduce: %v", i, err)
				return
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	want := make([]byte, size)
	for i := range want {
		want[i] = byte(i)
	}
	for i, v := range results {
		if string(v) != string(want) {
			t.Fatalf("peer %d: got %v, want %v (contributions ordered by peer id)", i, v, want)
		}
	}
}

func TestLoopback_PutRemoteAndWaitFor(t *testing.T) {
	defer goleak.VerifyNone(t)

	const size = 3
	runtimes := NewLoopbackCluster(size)
	defer closeAll(runtimes)

	ctx := context.Background()
	for i := 0; i < size; i++ {
		if err := runtimes[i].PutRemote(ctx, 0, "buckets", i, []byte{byte(i)}); err != nil {
			t.Fatalf("peer %d: put: %v", i, err)
		}
	}

	blobs, err := runtimes[0].WaitFor(ctx, "buckets", size)
	if err != nil {
		t.Fatalf("waitfor: %v", err)
	}
	if len(blobs) != size {
		t.Fatalf("got %d blobs, want %d", len(blobs), size)
	}
}

func closeAll(runtimes []Runtime) {
	for _, rt := range runtimes {
		_ = rt.Close()
	}
}
