// Package runtime implements the shared-variable substrate peers use to
// coordinate: barriers, broadcast, reduce and asynchronous remote put, as
// described in §9 of the design. The core sort engine depends only on the
// Runtime interface; TCPRuntime and LoopbackRuntime are its two concrete
// backends.
package runtime

import "context"

// Runtime is the minimal coordination contract every peer depends on. All
// methods are safe for concurrent use by multiple goroutines within a
// single peer (classification and shuffle transmission overlap, §5).
type Runtime interface {
	// ID returns this peer's stable id in [0, T).
	ID() int

	// Size returns T, the number of peers in the group.
	Size() int

	// Barrier blocks until every peer has called Barrier the same number
	// of times, then releases all of them together.
	Barrier(ctx context.Context) error

	// Broadcast, called by every peer, has peer 0's value delivered to
	// every peer (including peer 0). Non-zero peers pass a nil value;
	// it is ignored. Returns peer 0's value once it's available.
	Broadcast(ctx context.Context, name string, value []byte) ([]byte, error)

	// Reduce, called by every peer with its own contribution, has peer 0
	// gather every contribution (ordered by peer id), apply combine, and
	// hand the result back to every peer via Broadcast under the same
	// name.
	Reduce(ctx context.Context, name string, value []byte, combine func([][]byte) []byte) ([]byte, error)

	// PutRemote asynchronously ships value into target's inbox under
	// (name, index). Fire-and-forget from the caller's perspective: it
	// returns once the value is queued for delivery, not once delivered.
	// index is used for sender-addressed slots (e.g. buckets[self]); pass
	// -1 for append-only, unindexed inboxes (e.g. the streamed shuffle).
	PutRemote(ctx context.Context, target int, name string, index int, value []byte) error

	// WaitFor blocks until count values have arrived locally under name
	// (via PutRemote from any sender, including a local short-circuit for
	// target == self), then returns them. If count values already
	// arrived before WaitFor was called, it returns immediately.
	WaitFor(ctx context.Context, name string, count int) ([][]byte, error)

	// Close releases the runtime's connections and goroutines. Safe to
	// call once after a run completes or aborts.
	Close() error
}
