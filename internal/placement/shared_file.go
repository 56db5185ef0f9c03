package placement

import (
	"context"

	"github.com/jabolina/go-terasort/internal/recordio"
	"github.com/jabolina/go-terasort/internal/types"
)

// SharedFile writes every peer's run into disjoint byte ranges of one
// pre-sized output file (§4.6). The file must already exist at the full
// output size; PreSize does that once, on peer 0, before any peer calls
// Place.
type SharedFile struct {
	Path string
}

// PreSize grows path to totalRecords*RecordSize bytes. Called once by
// peer 0 before the group's first Place call.
func PreSize(path string, totalRecords int64) error {
	return recordio.PreSizeSharedFile(path, totalRecords)
}

// Place memory-maps a writable window at globalOffset records in and
// writes recs into it. Safe to call concurrently with other peers'
// Place calls against the same file since every peer's byte range is
// disjoint (P6).
func (s *SharedFile) Place(_ context.Context, id int, globalOffset int64, recs []types.Record) error {
	w, err := recordio.OpenSharedFileWriter(s.Path, globalOffset*types.RecordSize, int64(len(recs)))
	if err != nil {
		return err
	}
	if err := w.Write(recs); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
