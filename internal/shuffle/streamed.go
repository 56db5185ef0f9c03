package shuffle

import (
	"context"
	"fmt"
	"sync"

	"github.com/jabolina/go-terasort/internal/runtime"
	"github.com/jabolina/go-terasort/internal/types"
)

// StreamedShuffle overlaps classification with transmission: a sub-bucket
// is flushed as soon as it crosses the configured threshold instead of
// waiting for classification to finish entirely (§4.4 "Streamed
// shuffle"). In-flight sends per target are bounded by
// Tunables.InFlightSendLimit; once the bound is reached, a flush blocks
// on the oldest outstanding send, the back-pressure policy required by
// §5.
type StreamedShuffle struct {
	tunables types.Tunables
	invoker  runtime.Invoker

	mu     sync.Mutex
	queues [][]chan error // per target, oldest-first queue of in-flight futures

	buffers [][]types.Record // per target, the sub-bucket accumulating toward the next flush
}

// NewStreamed returns a streamed shuffle transport for a group of
// peerCount peers.
func NewStreamed(peerCount int, tunables types.Tunables) *StreamedShuffle {
	return &StreamedShuffle{
		tunables: tunables,
		invoker:  runtime.NewInvoker(),
		queues:   make([][]chan error, peerCount),
		buffers:  make([][]types.Record, peerCount),
	}
}

// Append adds r to target's pending sub-bucket, flushing it once it
// crosses ConcurSendBucketSize. It is meant to be called once per
// classified record, directly from the classifier's hot loop.
func (s *StreamedShuffle) Append(ctx context.Context, rt runtime.Runtime, target int, r types.Record) error {
	s.buffers[target] = append(s.buffers[target], r)
	if len(s.buffers[target]) >= s.tunables.ConcurSendBucketSize {
		return s.flush(ctx, rt, target)
	}
	return nil
}

// flush ships the current pending sub-bucket for target and clears it.
func (s *StreamedShuffle) flush(ctx context.Context, rt runtime.Runtime, target int) error {
	pending := s.buffers[target]
	if len(pending) == 0 {
		return nil
	}
	s.buffers[target] = nil

	payload, err := encodeRecords(pending)
	if err != nil {
		return err
	}

	future := make(chan error, 1)
	if err := s.admit(target, future); err != nil {
		return err
	}
	s.invoker.Spawn(func() {
		future <- rt.PutRemote(ctx, target, "shuffle", -1, payload)
	})
	return nil
}

// admit enqueues future for target, first blocking on the oldest
// in-flight future once the bound is already reached.
func (s *StreamedShuffle) admit(target int, future chan error) error {
	s.mu.Lock()
	var oldest chan error
	if len(s.queues[target]) >= s.tunables.InFlightSendLimit {
		oldest = s.queues[target][0]
		s.queues[target] = s.queues[target][1:]
	}
	s.queues[target] = append(s.queues[target], future)
	s.mu.Unlock()

	if oldest != nil {
		if err := <-oldest; err != nil {
			return err
		}
	}
	return nil
}

// drain waits for every outstanding send to target to complete.
func (s *StreamedShuffle) drain(target int) error {
	s.mu.Lock()
	pending := s.queues[target]
	s.queues[target] = nil
	s.mu.Unlock()

	for _, f := range pending {
		if err := <-f; err != nil {
			return err
		}
	}
	return nil
}

// Finish flushes every remaining non-empty sub-bucket, waits for all
// in-flight sends to complete, then signals `finishedSending` and blocks
// until every peer (including this one) has done the same, finally
// gathering this peer's received sub-buckets. The inbox is a set, not a
// sequence (§5): its contents are concatenated in arrival order, which is
// order-independent once the local sort runs.
func (s *StreamedShuffle) Finish(ctx context.Context, rt runtime.Runtime) ([]types.Record, error) {
	for target := range s.buffers {
		if err := s.flush(ctx, rt, target); err != nil {
			return nil, err
		}
	}
	for target := range s.queues {
		if err := s.drain(target); err != nil {
			return nil, err
		}
	}

	self := rt.ID()
	for peer := 0; peer < rt.Size(); peer++ {
		if err := rt.PutRemote(ctx, peer, "finishedSending", self, []byte{1}); err != nil {
			return nil, err
		}
	}
	if _, err := rt.WaitFor(ctx, "finishedSending", rt.Size()); err != nil {
		return nil, err
	}

	blobs, err := rt.WaitFor(ctx, "shuffle", 0)
	if err != nil {
		return nil, fmt.Errorf("gathering shuffled sub-buckets: %w", err)
	}
	var inbox []types.Record
	for _, blob := range blobs {
		recs, err := decodeRecords(blob)
		if err != nil {
			return nil, err
		}
		inbox = append(inbox, recs...)
	}
	return inbox, nil
}

// Shuffle implements Shuffler for callers that classify and shuffle in
// two separate steps instead of interleaving Append calls into the
// classifier loop: it flushes every sub-bucket in subBuckets as a single
// chunk per target and then behaves exactly like the interleaved form.
func (s *StreamedShuffle) Shuffle(ctx context.Context, rt runtime.Runtime, subBuckets [][]types.Record) ([]types.Record, error) {
	for target, recs := range subBuckets {
		s.buffers[target] = recs
		if err := s.flush(ctx, rt, target); err != nil {
			return nil, err
		}
	}
	return s.Finish(ctx, rt)
}
