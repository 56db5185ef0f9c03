package runtime

import "sync"

// Invoker spawns and tracks goroutines on behalf of a peer, mirroring the
// teacher's core.Invoker: callers never call `go` directly so that a
// single Stop can wait for every spawned task to finish during shutdown.
type Invoker interface {
	// Spawn runs f in a new goroutine tracked by this invoker.
	Spawn(f func())

	// Stop blocks until every spawned goroutine has returned.
	Stop()
}

// waitGroupInvoker is the default Invoker, a thin wrapper over
// sync.WaitGroup. The teacher keeps the identical shape in its test-only
// TestInvoker; here it's promoted to the production default since the
// engine has no need for a pooled/bounded variant at the invoker level
// (bounding happens at the shuffle's in-flight-send layer instead).
type waitGroupInvoker struct {
	group sync.WaitGroup
}

// NewInvoker returns the default Invoker implementation.
func NewInvoker() Invoker {
	return &waitGroupInvoker{}
}

func (w *waitGroupInvoker) Spawn(f func()) {
	w.group.Add(1)
	go func() {
		defer w.group.Done()
		f()
	}()
}

func (w *waitGroupInvoker) Stop() {
	w.group.Wait()
}
