package placement

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jabolina/go-terasort/internal/recordio"
	"github.com/jabolina/go-terasort/internal/types"
)

func record(key byte) types.Record {
	r := make(types.Record, types.RecordSize)
	for i := 0; i < types.KeySize; i++ {
		r[i] = key
	}
	return r
}

func TestSharedFile_WritesAtDisjointOffsets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "output")

	if err := PreSize(path, 4); err != nil {
		t.Fatalf("presize: %v", err)
	}

	sf := &SharedFile{Path: path}
	if err := sf.Place(context.Background(), 0, 0, []types.Record{record(1), record(2)}); err != nil {
		t.Fatalf("peer 0 place: %v", err)
	}
	if err := sf.Place(context.Background(), 1, 2, []types.Record{record(3), record(4)}); err != nil {
		t.Fatalf("peer 1 place: %v", err)
	}

	reader, err := recordio.Open(path, 0)
	if err != nil {
		t.Fatalf("reopen output: %v", err)
	}
	defer reader.Close()

	if reader.Length() != 4 {
		t.Fatalf("got %d records, want 4", reader.Length())
	}
	for i := int64(0); i < 4; i++ {
		r, err := reader.ReadAt(i)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if !r.Equal(record(byte(i + 1))) {
			t.Fatalf("record %d: got key %v, want %d", i, r.Key(), i+1)
		}
	}
}

func TestPerPeerFile_OneFilePerPeer(t *testing.T) {
	dir := t.TempDir()
	ppf := &PerPeerFile{Dir: dir, Prefix: "run"}

	if err := ppf.Place(context.Background(), 0, 0, []types.Record{record(1)}); err != nil {
		t.Fatalf("peer 0 place: %v", err)
	}
	if err := ppf.Place(context.Background(), 1, 0, []types.Record{record(2), record(3)}); err != nil {
		t.Fatalf("peer 1 place: %v", err)
	}

	info0, err := os.Stat(recordio.PartPath(dir, "run", 0))
	if err != nil {
		t.Fatalf("stat peer 0 file: %v", err)
	}
	if info0.Size() != types.RecordSize {
		t.Fatalf("peer 0 file size %d, want %d", info0.Size(), types.RecordSize)
	}

	info1, err := os.Stat(recordio.PartPath(dir, "run", 1))
	if err != nil {
		t.Fatalf("stat peer 1 file: %v", err)
	}
	if info1.Size() != 2*types.RecordSize {
		t.Fatalf("peer 1 file size %d, want %d", info1.Size(), 2*types.RecordSize)
	}
}

func TestCleanup_RemovesStalePerPeerFiles(t *testing.T) {
	dir := t.TempDir()
	stale := recordio.PartPath(dir, "run", 2)
	if err := os.WriteFile(stale, []byte("stale"), 0644); err != nil {
		t.Fatalf("seed stale file: %v", err)
	}

	if err := Cleanup(types.PlacementPerPeerFile, "", dir, "run"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale file still present after cleanup")
	}
}
