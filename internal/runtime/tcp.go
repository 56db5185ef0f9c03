package runtime

import (
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/jabolina/go-terasort/internal/types"
)

// connection wraps one full-duplex TCP link to another peer. gob encoders
// are not safe for concurrent Encode calls, so every write goes through
// writeMu.
type connection struct {
	conn    net.Conn
	enc     *gob.Encoder
	dec     *gob.Decoder
	writeMu sync.Mutex
}

func (c *connection) send(f frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.enc.Encode(&f)
}

// TCPRuntime is the production Runtime backend: a full mesh of persistent
// TCP connections, one per peer pair, with a small gob-framed dispatcher
// generalizing the poll/consume loop from the teacher's
// core.ReliableTransport. Peer 0 acts as the coordinator for barriers,
// reduction and broadcast, matching §2's "peer 0 acts as the coordinator"
// rule.
type TCPRuntime struct {
	id      int
	cluster types.ClusterConfiguration
	log     types.Logger
	invoker Invoker
	listener net.Listener

	connsMu sync.Mutex
	conns   map[int]*connection

	mu   sync.Mutex
	cond *sync.Cond

	inbox     map[string][][]byte
	slotInbox map[string]map[int][]byte

	nextBarrierGen  uint64
	barrierReleased uint64
	barrierArrivals map[uint64]int // coordinator only

	broadcastValues map[string][]byte
	reduceContribs  map[string]map[int][]byte // coordinator only

	closed bool
}

// NewTCPRuntime dials and accepts connections to every other peer in
// cluster, blocking until the full mesh is up or dialTimeout elapses.
func NewTCPRuntime(ctx context.Context, id int, cluster types.ClusterConfiguration, log types.Logger, dialTimeout time.Duration) (*TCPRuntime, error) {
	t := &TCPRuntime{
		id:              id,
		cluster:         cluster,
		log:             log,
		invoker:         NewInvoker(),
		conns:           make(map[int]*connection),
		inbox:           make(map[string][][]byte),
		slotInbox:       make(map[string]map[int][]byte),
		barrierArrivals: make(map[uint64]int),
		broadcastValues: make(map[string][]byte),
		reduceContribs:  make(map[string]map[int][]byte),
	}
	t.cond = sync.NewCond(&t.mu)

	listener, err := net.Listen("tcp", cluster.Addresses[id])
	if err != nil {
		return nil, fmt.Errorf("%w: listen on %s: %v", types.ErrTransport, cluster.Addresses[id], err)
	}
	t.listener = listener
	t.invoker.Spawn(t.acceptLoop)

	// Lower ids listen and are dialed by higher ids; this establishes
	// exactly one connection per unordered pair.
	for peer := 0; peer < id; peer++ {
		conn, err := dialWithRetry(ctx, cluster.Addresses[peer], dialTimeout)
		if err != nil {
			return nil, fmt.Errorf("%w: dial peer %d: %v", types.ErrTransport, peer, err)
		}
		if err := t.handshakeOutbound(conn, peer); err != nil {
			return nil, err
		}
	}

	if err := t.waitForAllConnected(ctx, dialTimeout); err != nil {
		return nil, err
	}

	return t, nil
}

func dialWithRetry(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil, lastErr
}

// handshakeOutbound is run by the dialer: write our own id so the acceptor
// can identify this connection, then start the per-connection reader.
func (t *TCPRuntime) handshakeOutbound(conn net.Conn, peer int) error {
	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], uint64(t.id))
	if _, err := conn.Write(idBuf[:]); err != nil {
		return fmt.Errorf("%w: handshake to peer %d: %v", types.ErrTransport, peer, err)
	}
	c := &connection{conn: conn, enc: gob.NewEncoder(conn), dec: gob.NewDecoder(conn)}
	t.connsMu.Lock()
	t.conns[peer] = c
	t.connsMu.Unlock()
	t.invoker.Spawn(func() { t.readLoop(peer, c) })
	return nil
}

// acceptLoop accepts the (T-1-id) inbound connections from higher-id
// peers.
func (t *TCPRuntime) acceptLoop() {
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			return
		}
		t.invoker.Spawn(func() { t.handshakeInbound(conn) })
	}
}

func (t *TCPRuntime) handshakeInbound(conn net.Conn) {
	var idBuf [8]byte
	if _, err := readFull(conn, idBuf[:]); err != nil {
		t.log.Errorf("failed reading handshake: %v", err)
		_ = conn.Close()
		return
	}
	peer := int(binary.BigEndian.Uint64(idBuf[:]))
	c := &connection{conn: conn, enc: gob.NewEncoder(conn), dec: gob.NewDecoder(conn)}
	t.connsMu.Lock()
	t.conns[peer] = c
	t.connsMu.Unlock()
	t.readLoop(peer, c)
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (t *TCPRuntime) waitForAllConnected(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		t.connsMu.Lock()
		n := len(t.conns)
		t.connsMu.Unlock()
		if n == t.cluster.Size()-1 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: only %d/%d peers connected", types.ErrTransport, n, t.cluster.Size()-1)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func (t *TCPRuntime) readLoop(peer int, c *connection) {
	for {
		var f frame
		if err := c.dec.Decode(&f); err != nil {
			t.mu.Lock()
			closed := t.closed
			t.mu.Unlock()
			if !closed {
				t.log.Warnf("connection to peer %d closed: %v", peer, err)
			}
			return
		}
		t.handleFrame(peer, f)
	}
}

func (t *TCPRuntime) handleFrame(from int, f frame) {
	switch f.Kind {
	case kindPut:
		t.handlePut(f)
	case kindBarrierArrive:
		t.handleBarrierArrive(f.Generation)
	case kindBarrierRelease:
		t.handleBarrierRelease(f.Generation)
	case kindReduceContribute:
		t.handleReduceContribute(f.Name, from, f.Value)
	case kindBroadcastValue:
		t.handleBroadcastValue(f.Name, f.Value)
	default:
		t.log.Warnf("unknown frame kind %d from peer %d", f.Kind, from)
	}
}

func (t *TCPRuntime) ID() int   { return t.id }
func (t *TCPRuntime) Size() int { return t.cluster.Size() }

// --- put / waitFor ---------------------------------------------------

func (t *TCPRuntime) PutRemote(ctx context.Context, target int, name string, index int, value []byte) error {
	if target == t.id {
		t.handlePut(frame{Name: name, Index: index, Value: value, From: t.id})
		return nil
	}
	t.connsMu.Lock()
	c, ok := t.conns[target]
	t.connsMu.Unlock()
	if !ok {
		return fmt.Errorf("%w: no connection to peer %d", types.ErrTransport, target)
	}
	if err := c.send(frame{Kind: kindPut, From: t.id, Name: name, Index: index, Value: value}); err != nil {
		return fmt.Errorf("%w: put to peer %d: %v", types.ErrTransport, target, err)
	}
	return nil
}

func (t *TCPRuntime) handlePut(f frame) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inbox[f.Name] = append(t.inbox[f.Name], f.Value)
	if f.Index >= 0 {
		if t.slotInbox[f.Name] == nil {
			t.slotInbox[f.Name] = make(map[int][]byte)
		}
		t.slotInbox[f.Name][f.Index] = f.Value
	}
	t.cond.Broadcast()
}

func (t *TCPRuntime) WaitFor(ctx context.Context, name string, count int) ([][]byte, error) {
	done := t.watchCancellation(ctx)
	defer close(done)

	t.mu.Lock()
	defer t.mu.Unlock()
	for len(t.inbox[name]) < count {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t.cond.Wait()
	}
	out := make([][]byte, len(t.inbox[name]))
	copy(out, t.inbox[name])
	return out, nil
}

// watchCancellation spawns a goroutine that wakes every waiter on ctx
// cancellation; callers must close the returned channel once they stop
// waiting so the goroutine can exit.
func (t *TCPRuntime) watchCancellation(ctx context.Context) chan struct{} {
	done := make(chan struct{})
	t.invoker.Spawn(func() {
		select {
		case <-ctx.Done():
			t.mu.Lock()
			t.cond.Broadcast()
			t.mu.Unlock()
		case <-done:
		}
	})
	return done
}

// --- barrier -----------------------------------------------------------

func (t *TCPRuntime) Barrier(ctx context.Context) error {
	t.mu.Lock()
	t.nextBarrierGen++
	gen := t.nextBarrierGen
	t.mu.Unlock()

	if t.id == 0 {
		t.handleBarrierArrive(gen)
	} else {
		t.connsMu.Lock()
		c := t.conns[0]
		t.connsMu.Unlock()
		if err := c.send(frame{Kind: kindBarrierArrive, From: t.id, Generation: gen}); err != nil {
			return fmt.Errorf("%w: barrier arrive: %v", types.ErrTransport, err)
		}
	}

	done := t.watchCancellation(ctx)
	defer close(done)
	t.mu.Lock()
	defer t.mu.Unlock()
	for t.barrierReleased < gen {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.cond.Wait()
	}
	return nil
}

func (t *TCPRuntime) handleBarrierArrive(gen uint64) {
	t.mu.Lock()
	t.barrierArrivals[gen]++
	arrived := t.barrierArrivals[gen]
	size := t.cluster.Size()
	t.mu.Unlock()

	if arrived == size {
		t.broadcastBarrierRelease(gen)
	}
}

func (t *TCPRuntime) broadcastBarrierRelease(gen uint64) {
	t.handleBarrierRelease(gen)
	t.connsMu.Lock()
	conns := make([]*connection, 0, len(t.conns))
	for _, c := range t.conns {
		conns = append(conns, c)
	}
	t.connsMu.Unlock()
	for _, c := range conns {
		if err := c.send(frame{Kind: kindBarrierRelease, From: t.id, Generation: gen}); err != nil {
			t.log.Errorf("failed releasing barrier: %v", err)
		}
	}
}

func (t *TCPRuntime) handleBarrierRelease(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen > t.barrierReleased {
		t.barrierReleased = gen
	}
	t.cond.Broadcast()
}

// --- broadcast / reduce --------------------------------------------------

func (t *TCPRuntime) Broadcast(ctx context.Context, name string, value []byte) ([]byte, error) {
	if t.id == 0 {
		t.handleBroadcastValue(name, value)
		t.connsMu.Lock()
		conns := make([]*connection, 0, len(t.conns))
		for _, c := range t.conns {
			conns = append(conns, c)
		}
		t.connsMu.Unlock()
		for _, c := range conns {
			if err := c.send(frame{Kind: kindBroadcastValue, From: t.id, Name: name, Value: value}); err != nil {
				return nil, fmt.Errorf("%w: broadcast %s: %v", types.ErrTransport, name, err)
			}
		}
	}

	done := t.watchCancellation(ctx)
	defer close(done)
	t.mu.Lock()
	defer t.mu.Unlock()
	for {
		if v, ok := t.broadcastValues[name]; ok {
			return v, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t.cond.Wait()
	}
}

func (t *TCPRuntime) handleBroadcastValue(name string, value []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.broadcastValues[name] = value
	t.cond.Broadcast()
}

func (t *TCPRuntime) Reduce(ctx context.Context, name string, value []byte, combine func([][]byte) []byte) ([]byte, error) {
	if t.id == 0 {
		t.handleReduceContribute(name, t.id, value)
	} else {
		t.connsMu.Lock()
		c := t.conns[0]
		t.connsMu.Unlock()
		if err := c.send(frame{Kind: kindReduceContribute, From: t.id, Name: name, Value: value}); err != nil {
			return nil, fmt.Errorf("%w: reduce contribute: %v", types.ErrTransport, err)
		}
	}

	if t.id != 0 {
		return t.Broadcast(ctx, name, nil)
	}

	contribs, err := t.waitForReduceContributions(ctx, name, t.cluster.Size())
	if err != nil {
		return nil, err
	}
	result := combine(contribs)
	return t.Broadcast(ctx, name, result)
}

func (t *TCPRuntime) handleReduceContribute(name string, from int, value []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reduceContribs[name] == nil {
		t.reduceContribs[name] = make(map[int][]byte)
	}
	t.reduceContribs[name][from] = value
	t.cond.Broadcast()
}

func (t *TCPRuntime) waitForReduceContributions(ctx context.Context, name string, count int) ([][]byte, error) {
	done := t.watchCancellation(ctx)
	defer close(done)

	t.mu.Lock()
	defer t.mu.Unlock()
	for len(t.reduceContribs[name]) < count {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t.cond.Wait()
	}
	ids := make([]int, 0, count)
	for id := range t.reduceContribs[name] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([][]byte, count)
	for i, id := range ids {
		out[i] = t.reduceContribs[name][id]
	}
	return out, nil
}

// --- lifecycle -----------------------------------------------------------

func (t *TCPRuntime) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.cond.Broadcast()

	_ = t.listener.Close()
	t.connsMu.Lock()
	for _, c := range t.conns {
		_ = c.conn.Close()
	}
	t.connsMu.Unlock()
	t.invoker.Stop()
	return nil
}
