package shuffle

import (
	"context"

	"github.com/jabolina/go-terasort/internal/runtime"
	"github.com/jabolina/go-terasort/internal/types"
)

// BatchShuffle ships each sub-bucket once, after classification has
// finished, and blocks until every peer's shipment has arrived (§4.4
// "Batch shuffle").
type BatchShuffle struct{}

// NewBatch returns the batch shuffle transport.
func NewBatch() *BatchShuffle {
	return &BatchShuffle{}
}

func (b *BatchShuffle) Shuffle(ctx context.Context, rt runtime.Runtime, subBuckets [][]types.Record) ([]types.Record, error) {
	self := rt.ID()
	for target, recs := range subBuckets {
		payload, err := encodeRecords(recs)
		if err != nil {
			return nil, err
		}
		// PutRemote short-circuits locally when target == self, so this
		// peer's own shipment to itself also lands in the shared inbox
		// named "buckets" below, keeping self-delivery and cross-peer
		// delivery on one code path.
		if err := rt.PutRemote(ctx, target, "buckets", self, payload); err != nil {
			return nil, err
		}
	}

	blobs, err := rt.WaitFor(ctx, "buckets", rt.Size())
	if err != nil {
		return nil, err
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
