// Package shuffle implements the all-to-all redistribution of classified
// sub-buckets across peers: the batch and streamed transport strategies
// described in §4.4. Both preserve I2 (every record lands in exactly one
// bucket on exactly one peer) and I3 (bucket ordering agrees across
// peers).
package shuffle

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/jabolina/go-terasort/internal/runtime"
	"github.com/jabolina/go-terasort/internal/types"
)

// Shuffler moves this peer's classified sub-buckets to their owning peers
// and returns everything this peer received in turn (its own inbox,
// order-independent per §5).
type Shuffler interface {
	Shuffle(ctx context.Context, rt runtime.Runtime, subBuckets [][]types.Record) ([]types.Record, error)
}

func encodeRecords(recs []types.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(recs); err != nil {
		return nil, fmt.Errorf("%w: encode %d records: %v", types.ErrTransport, len(recs), err)
	}
	return buf.Bytes(), nil
}

func decodeRecords(data []byte) ([]types.Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var recs []types.Record
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&recs); err != nil {
		return nil, fmt.Errorf("%w: decode sub-bucket: %v", types.ErrTransport, err)
	}
	return recs, nil
}
