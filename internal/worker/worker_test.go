package worker

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jabolina/go-terasort/internal/definition"
	"github.com/jabolina/go-terasort/internal/oracle"
	"github.com/jabolina/go-terasort/internal/recordio"
	"github.com/jabolina/go-terasort/internal/runtime"
	"github.com/jabolina/go-terasort/internal/types"
)

func writeInput(t *testing.T, path string, n int, seed int64) []types.Record {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create input: %v", err)
	}
	defer f.Close()

	recs := make([]types.Record, n)
	for i := range recs {
		r := make(types.Record, types.RecordSize)
		rng.Read(r)
		recs[i] = r
		if _, err := f.Write(r); err != nil {
			t.Fatalf("write record %d: %v", i, err)
		}
	}
	return recs
}

func readOutput(t *testing.T, path string) []types.Record {
	t.Helper()
	reader, err := recordio.Open(path, 0)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer reader.Close()

	out := make([]types.Record, reader.Length())
	for i := range out {
		r, err := reader.ReadAt(int64(i))
		if err != nil {
			t.Fatalf("read output record %d: %v", i, err)
		}
		out[i] = r.Clone()
	}
	return out
}

// runCluster runs size peers in-process over a LoopbackRuntime, each
// against its own slice of the same shared input/output file, and
// returns the first error encountered (if any).
func runCluster(t *testing.T, size int, inputPath, outputPath string, sampleSize int, placement types.PlacementMode, shuffleMode types.ShuffleMode) error {
	t.Helper()
	addrs := make([]string, size)
	for i := range addrs {
		addrs[i] = "unused"
	}
	cluster := types.ClusterConfiguration{Addresses: addrs}

	tunables := types.DefaultTunables()
	tunables.Placement = placement
	tunables.Shuffle = shuffleMode
	tunables.ConcurSendBucketSize = 4

	runtimes := runtime.NewLoopbackCluster(size)
	defer func() {
		for _, rt := range runtimes {
			_ = rt.Close()
		}
	}()

	errs := make([]error, size)
	var wg sync.WaitGroup
	for i := 0; i < size; i++ {
		cfg := types.PeerConfiguration{
			ID:         i,
			Cluster:    cluster,
			InputPath:  inputPath,
			OutputPath: outputPath,
			SampleSize: sampleSize,
			Tunables:   tunables,
		}
		log := definition.NewDefaultLogger().WithField("peer", i)
		tl := definition.NewTimeline(i)
		metrics := definition.NewMetrics(i)
		w := New(cfg, runtimes[i], log, tl, metrics)

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = w.Run(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func TestWorker_SharedFilePlacement_MatchesOracle(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input")
	outputPath := filepath.Join(dir, "output")

	const n = 400
	input := writeInput(t, inputPath, n, 42)

	if err := runCluster(t, 4, inputPath, outputPath, 20, types.PlacementSharedFile, types.ShuffleStreamed); err != nil {
		t.Fatalf("cluster run: %v", err)
	}

	got := readOutput(t, outputPath)
	want := oracle.Sort(input)

	if len(got) != len(want) {
		t.Fatalf("output has %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("record %d: got key %x, want key %x", i, got[i].Key(), want[i].Key())
		}
	}
}

func TestWorker_PerPeerFilePlacement_ConcatenationMatchesOracle(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input")
	outDir := filepath.Join(dir, "parts")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	const n = 300
	input := writeInput(t, inputPath, n, 7)

	if err := runCluster(t, 3, inputPath, outDir, 15, types.PlacementPerPeerFile, types.ShuffleBatch); err != nil {
		t.Fatalf("cluster run: %v", err)
	}

	var got []types.Record
	for id := 0; id < 3; id++ {
		part, err := recordio.Open(recordio.PartPath(outDir, perPeerFilePrefix, id), 0)
		if err != nil {
			t.Fatalf("open part %d: %v", id, err)
		}
		for i := int64(0); i < part.Length(); i++ {
			r, err := part.ReadAt(i)
			if err != nil {
				t.Fatalf("read part %d record %d: %v", id, i, err)
			}
			got = append(got, r.Clone())
		}
		part.Close()
	}

	want := oracle.Sort(input)
	if len(got) != len(want) {
		t.Fatalf("concatenated parts have %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("record %d: got key %x, want key %x", i, got[i].Key(), want[i].Key())
		}
	}
}

func TestWorker_SequentialPlacement_MatchesOracle(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input")
	outputPath := filepath.Join(dir, "output")

	const n = 200
	input := writeInput(t, inputPath, n, 99)

	if err := runCluster(t, 3, inputPath, outputPath, 12, types.PlacementSequential, types.ShuffleBatch); err != nil {
		t.Fatalf("cluster run: %v", err)
	}

	got := readOutput(t, outputPath)
	want := oracle.Sort(input)
	if len(got) != len(want) {
		t.Fatalf("output has %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("record %d: got key %x, want key %x", i, got[i].Key(), want[i].Key())
		}
	}
}
