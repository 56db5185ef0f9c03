package launcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/jabolina/go-terasort/internal/definition"
	"github.com/jabolina/go-terasort/internal/runtime"
	"github.com/jabolina/go-terasort/internal/types"
	"github.com/jabolina/go-terasort/internal/worker"
)

// RunLocalCluster spawns one Worker per entry in base.Cluster as a
// goroutine sharing a LoopbackRuntime, the common single-machine
// benchmark case from §12: no real sockets, every peer's Barrier/
// Broadcast/Reduce call resolves against the same in-process hub.
// Grounded on the teacher's test.CreateCluster, which builds a whole
// peer group from one call for the same reason — fast, deterministic
// local runs without a real transport.
func RunLocalCluster(ctx context.Context, base types.PeerConfiguration, inputs, outputs []string) error {
	size := base.Cluster.Size()
	if len(inputs) != size || len(outputs) != size {
		return fmt.Errorf("%w: need %d input/output paths for a %d-peer local cluster", types.ErrConfiguration, size, size)
	}

	runtimes := runtime.NewLoopbackCluster(size)

	var wg sync.WaitGroup
	errs := make([]error, size)
	for i := 0; i < size; i++ {
		cfg := base
		cfg.ID = i
		cfg.InputPath = inputs[i]
		cfg.OutputPath = outputs[i]

		log := definition.NewDefaultLogger().WithField("peer", i)
		tl := definition.NewTimeline(i)
		metrics := definition.NewMetrics(i)
		w := worker.New(cfg, runtimes[i], log, tl, metrics)

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = w.Run(ctx)
		}(i)
	}
	wg.Wait()

	for _, rt := range runtimes {
		_ = rt.Close()
	}
	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("peer %d: %w", i, err)
		}
	}
	return nil
}
