package placement

import (
	"context"
	"fmt"

	"github.com/jabolina/go-terasort/internal/recordio"
	"github.com/jabolina/go-terasort/internal/runtime"
	"github.com/jabolina/go-terasort/internal/types"
)

// Sequential circulates a token 0 -> 1 -> ... -> T-1 over the runtime's
// put/wait primitives; each peer appends its run to one shared file only
// while holding the token, then passes it on (§4.6, kept for comparison
// against the two parallel variants; not the default).
type Sequential struct {
	Path string
	RT   runtime.Runtime
}

// Place ignores globalOffset: append order, not a pre-computed byte
// offset, is what keeps the shared file in global sort order here.
func (s *Sequential) Place(ctx context.Context, id int, _ int64, recs []types.Record) error {
	if id > 0 {
		if _, err := s.RT.WaitFor(ctx, "token", 1); err != nil {
			return fmt.Errorf("%w: waiting for placement token: %v", types.ErrTransport, err)
		}
	}

	var w *recordio.StreamingWriter
	var err error
	if id == 0 {
		w, err = recordio.OpenStreamingWriter(s.Path)
	} else {
		w, err = recordio.OpenStreamingAppender(s.Path)
	}
	if err != nil {
		return err
	}
	if err := w.Write(recs); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	if next := id + 1; next < s.RT.Size() {
		if err := s.RT.PutRemote(ctx, next, "token", -1, []byte{1}); err != nil {
			return fmt.Errorf("%w: passing placement token to peer %d: %v", types.ErrTransport, next, err)
		}
	}
	return nil
}
