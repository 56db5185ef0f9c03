package runtime

import (
	"context"
	"sort"
	"sync"
)

// loopbackHub is the shared coordinator state for a group of
// LoopbackRuntime instances living in the same process, used when the CLI
// spawns a whole local cluster as goroutines (the common single-machine
// benchmark case, §12) and by the test suite, which would otherwise pay
// real socket setup for every scenario.
type loopbackHub struct {
	mu   sync.Mutex
	cond *sync.Cond
	size int

	inbox     map[inboxKey][][]byte
	slotInbox map[inboxKey]map[int][]byte

	barrierGen      uint64
	barrierArrivals int
	barrierReleased uint64

	broadcastValues map[string][]byte
	reduceContribs  map[string]map[int][]byte
}

// inboxKey addresses one named inbox on one target peer.
type inboxKey struct {
	target int
	name   string
}

func newLoopbackHub(size int) *loopbackHub {
	h := &loopbackHub{
		size:            size,
		inbox:           make(map[inboxKey][][]byte),
		slotInbox:       make(map[inboxKey]map[int][]byte),
		broadcastValues: make(map[string][]byte),
		reduceContribs:  make(map[string]map[int][]byte),
	}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// NewLoopbackCluster returns one Runtime per id in [0, size), all sharing
// a single in-process hub instead of TCP connections.
func NewLoopbackCluster(size int) []Runtime {
	hub := newLoopbackHub(size)
	hub.barrierGen = 1
	out := make([]Runtime, size)
	for i := 0; i < size; i++ {
		out[i] = &LoopbackRuntime{id: i, hub: hub}
	}
	return out
}

// LoopbackRuntime implements Runtime entirely with in-process
// synchronization, functionally identical to TCPRuntime but without a
// network hop. Peer 0 plays the same coordinator role.
type LoopbackRuntime struct {
	id  int
	hub *loopbackHub
}

func (l *LoopbackRuntime) ID() int   { return l.id }
func (l *LoopbackRuntime) Size() int { return l.hub.size }

func (l *LoopbackRuntime) PutRemote(ctx context.Context, target int, name string, index int, value []byte) error {
	h := l.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	key := inboxKey{target: target, name: name}
	h.inbox[key] = append(h.inbox[key], value)
	if index >= 0 {
		if h.slotInbox[key] == nil {
			h.slotInbox[key] = make(map[int][]byte)
		}
		h.slotInbox[key][index] = value
	}
	h.cond.Broadcast()
	return nil
}

func (l *LoopbackRuntime) WaitFor(ctx context.Context, name string, count int) ([][]byte, error) {
	h := l.hub
	done := l.watch(ctx)
	defer close(done)

	h.mu.Lock()
	defer h.mu.Unlock()
	key := inboxKey{target: l.id, name: name}
	for len(h.inbox[key]) < count {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h.cond.Wait()
	}
	out := make([][]byte, len(h.inbox[key]))
	copy(out, h.inbox[key])
	return out, nil
}

func (l *LoopbackRuntime) watch(ctx context.Context) chan struct{} {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			l.hub.mu.Lock()
			l.hub.cond.Broadcast()
			l.hub.mu.Unlock()
		case <-done:
		}
	}()
	return done
}

func (l *LoopbackRuntime) Barrier(ctx context.Context) error {
	h := l.hub
	h.mu.Lock()
	gen := h.barrierGen
	h.barrierArrivals++
	if h.barrierArrivals == h.size {
		h.barrierReleased = gen
		h.barrierGen++
		h.barrierArrivals = 0
		h.cond.Broadcast()
	}
	h.mu.Unlock()

	done := l.watch(ctx)
	defer close(done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for h.barrierReleased < gen {
		if err := ctx.Err(); err != nil {
			return err
		}
		h.cond.Wait()
	}
	return nil
}

func (l *LoopbackRuntime) Broadcast(ctx context.Context, name string, value []byte) ([]byte, error) {
	h := l.hub
	if l.id == 0 {
		h.mu.Lock()
		h.broadcastValues[name] = value
		h.cond.Broadcast()
		h.mu.Unlock()
	}

	done := l.watch(ctx)
	defer close(done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		if v, ok := h.broadcastValues[name]; ok {
			return v, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h.cond.Wait()
	}
}

func (l *LoopbackRuntime) Reduce(ctx context.Context, name string, value []byte, combine func([][]byte) []byte) ([]byte, error) {
	h := l.hub
	h.mu.Lock()
	if h.reduceContribs[name] == nil {
		h.reduceContribs[name] = make(map[int][]byte)
	}
	h.reduceContribs[name][l.id] = value
	h.cond.Broadcast()
	h.mu.Unlock()

	if l.id != 0 {
		return l.Broadcast(ctx, name, nil)
	}

	done := l.watch(ctx)
	h.mu.Lock()
	for len(h.reduceContribs[name]) < h.size {
		if err := ctx.Err(); err != nil {
			h.mu.Unlock()
			close(done)
			return nil, err
		}
		h.cond.Wait()
	}
	ids := make([]int, 0, h.size)
	for id := range h.reduceContribs[name] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	contribs := make([][]byte, len(ids))
	for i, id := range ids {
		contribs[i] = h.reduceContribs[name][id]
	}
	h.mu.Unlock()
	close(done)

	result := combine(contribs)
	return l.Broadcast(ctx, name, result)
}

func (l *LoopbackRuntime) Close() error {
	return nil
}
