package placement

import (
	"context"

	"github.com/jabolina/go-terasort/internal/recordio"
	"github.com/jabolina/go-terasort/internal/types"
)

// PerPeerFile writes each peer's run to its own `<prefix>-part-NNNNN`
// file under Dir, requiring no cross-peer coordination beyond the
// pre-run cleanup (§4.6).
type PerPeerFile struct {
	Dir    string
	Prefix string
}

// Place ignores globalOffset: a peer's own file starts at byte 0
// regardless of where its run sits in the logical concatenated output.
func (p *PerPeerFile) Place(_ context.Context, id int, _ int64, recs []types.Record) error {
	w, err := recordio.OpenStreamingWriter(recordio.PartPath(p.Dir, p.Prefix, id))
	if err != nil {
		return err
	}
	if err := w.Write(recs); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
