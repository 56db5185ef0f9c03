// Package placement writes a peer's final sorted run to durable storage
// using one of the three variants from §4.6: shared-file, per-peer-file
// and sequential. All three see the same sorted []types.Record and differ
// only in how concurrently they may write and what the resulting output
// layout looks like.
package placement

import (
	"context"

	"github.com/jabolina/go-terasort/internal/types"
)

// Placer writes this peer's sorted run. globalOffset is this peer's
// starting position in the fully sorted, concatenated output (the sum of
// every lower-id peer's run length), needed by the shared-file variant to
// compute a disjoint byte offset. The sequential variant ignores it,
// relying on token order instead; ctx only matters to that variant, since
// the other two are pure local I/O.
type Placer interface {
	Place(ctx context.Context, id int, globalOffset int64, recs []types.Record) error
}
