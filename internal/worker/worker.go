// Package worker orchestrates the six phases of a single peer's sort run
// — partition-plan, sampling, classify, shuffle, local sort, placement —
// wiring together partition, sample, classify, shuffle, sortpipeline,
// recordio and placement behind the Runtime each peer shares with its
// group (§2, §4).
package worker

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/colinmarc/hdfs/v2"
	"github.com/jabolina/go-terasort/internal/classify"
	"github.com/jabolina/go-terasort/internal/definition"
	"github.com/jabolina/go-terasort/internal/partition"
	"github.com/jabolina/go-terasort/internal/placement"
	"github.com/jabolina/go-terasort/internal/recordio"
	"github.com/jabolina/go-terasort/internal/runtime"
	"github.com/jabolina/go-terasort/internal/sample"
	"github.com/jabolina/go-terasort/internal/shuffle"
	"github.com/jabolina/go-terasort/internal/sortpipeline"
	"github.com/jabolina/go-terasort/internal/types"
)

// Worker runs one peer's share of a sort. It holds nothing that survives
// past Run; it exists so Run's dependencies are explicit constructor
// arguments rather than globals.
type Worker struct {
	Config  types.PeerConfiguration
	RT      runtime.Runtime
	Log     types.Logger
	Tl      *definition.Timeline
	Metrics *definition.Metrics
}

// New returns a Worker ready to Run.
func New(cfg types.PeerConfiguration, rt runtime.Runtime, log types.Logger, tl *definition.Timeline, metrics *definition.Metrics) *Worker {
	return &Worker{Config: cfg, RT: rt, Log: log, Tl: tl, Metrics: metrics}
}

// Run executes every phase in order and returns once this peer's sorted
// run has been durably placed and every peer has reached the final
// barrier.
func (w *Worker) Run(ctx context.Context) error {
	id := w.Config.ID
	size := w.Config.Cluster.Size()

	source, err := w.openSource()
	if err != nil {
		return err
	}
	defer source.Close()

	if id == 0 {
		if err := w.cleanup(); err != nil {
			return err
		}
	}
	if err := w.RT.Barrier(ctx); err != nil {
		return fmt.Errorf("%w: pre-run barrier: %v", types.ErrTransport, err)
	}

	start, end := partition.Plan(source.Length(), size, id)
	w.Tl.Mark("partition-plan")

	local, err := readSlice(source, start, end)
	if err != nil {
		return err
	}

	pivots, err := w.samplePivots(ctx, source, start, end-start)
	if err != nil {
		return err
	}
	w.Tl.Mark("sample")

	if err := w.RT.Barrier(ctx); err != nil {
		return fmt.Errorf("%w: post-sample barrier: %v", types.ErrTransport, err)
	}

	inbox, err := w.classifyAndShuffle(ctx, pivots, local)
	if err != nil {
		return err
	}
	w.Tl.Mark("shuffle")
	w.Metrics.RecordsClassified.Add(float64(len(local)))

	sortpipeline.ParallelSort(inbox)
	w.Tl.Mark("local-sort")

	offset, err := w.runOffset(ctx, int64(len(inbox)))
	if err != nil {
		return err
	}

	placer, err := w.placer()
	if err != nil {
		return err
	}
	if err := placer.Place(ctx, id, offset, inbox); err != nil {
		return err
	}
	w.Tl.Mark("placement")

	if err := w.RT.Barrier(ctx); err != nil {
		return fmt.Errorf("%w: final barrier: %v", types.ErrTransport, err)
	}
	w.Tl.Mark("done")
	return nil
}

// openSource opens the input as a local, windowed mmap source or, when
// HDFSConf is set, as the remote-filesystem adapter from §6.
func (w *Worker) openSource() (recordio.Source, error) {
	tun := w.Config.Tunables
	if tun.HDFSConf == "" {
		return recordio.Open(w.Config.InputPath, tun.MemoryMapElementCount)
	}
	client, err := hdfs.NewClient(hdfs.ClientOptions{
		Addresses: strings.Split(tun.HDFSConf, string(filepath.ListSeparator)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect to hdfs: %v", types.ErrIO, err)
	}
	info, err := client.Stat(w.Config.InputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: stat hdfs input %s: %v", types.ErrIO, w.Config.InputPath, err)
	}
	if info.IsDir() {
		return recordio.OpenHDFSDirectory(client, w.Config.InputPath)
	}
	return recordio.OpenHDFSSource(client, w.Config.InputPath)
}

// perPeerFilePrefix is the `<prefix>` in `<prefix>-part-NNNNN`; the
// per-peer-file variant treats OutputPath itself as the output directory
// (§6: "a directory containing *-part-NNNNN"), so every run under that
// directory shares this fixed prefix.
const perPeerFilePrefix = "output"

// cleanup removes a previous run's output before this one starts,
// §4.6/§7; only peer 0 calls it.
func (w *Worker) cleanup() error {
	tun := w.Config.Tunables
	return placement.Cleanup(tun.Placement, w.Config.OutputPath, w.Config.OutputPath, perPeerFilePrefix)
}

// readSlice clones every record in [start, end) out of source into an
// independent in-memory slice; classify needs random access that
// outlives source's sliding mmap window.
func readSlice(source recordio.Source, start, end int64) ([]types.Record, error) {
	out := make([]types.Record, 0, end-start)
	for i := start; i < end; i++ {
		r, err := source.ReadAt(i)
		if err != nil {
			return nil, err
		}
		out = append(out, r.Clone())
	}
	return out, nil
}

// samplePivots draws this peer's share of leading samples, reduces them
// through peer 0, and returns the broadcast pivot list (§4.2).
func (w *Worker) samplePivots(ctx context.Context, source recordio.Source, start, sliceSize int64) (types.PivotList, error) {
	id := w.Config.ID
	size := w.Config.Cluster.Size()
	count := sample.LocalCount(w.Config.SampleSize, size, id)
	samples, err := sample.Select(source, start, sliceSize, count)
	if err != nil {
		return nil, err
	}
	payload, err := encodeRecords(samples)
	if err != nil {
		return nil, err
	}

	result, err := w.RT.Reduce(ctx, "pivots", payload, func(contribs [][]byte) []byte {
		var all []types.Record
		for _, c := range contribs {
			recs, err := decodeRecords(c)
			if err != nil {
				w.Log.Errorf("decoding sample contribution: %v", err)
				continue
			}
			all = append(all, recs...)
		}
		pivots := sample.SelectPivots(all, size)
		encoded, err := encodePivots(pivots)
		if err != nil {
			w.Log.Errorf("encoding pivot list: %v", err)
			return nil
		}
		return encoded
	})
	if err != nil {
		return nil, fmt.Errorf("%w: reducing samples: %v", types.ErrTransport, err)
	}
	return decodePivots(result)
}

// classifyAndShuffle buckets local against pivots and ships every
// sub-bucket to its owning peer, using whichever transport the tunables
// select (§4.4).
func (w *Worker) classifyAndShuffle(ctx context.Context, pivots types.PivotList, local []types.Record) ([]types.Record, error) {
	size := w.Config.Cluster.Size()
	classifier := classify.New(pivots, size)

	switch w.Config.Tunables.Shuffle {
	case types.ShuffleStreamed:
		streamed := shuffle.NewStreamed(size, w.Config.Tunables)
		for _, r := range local {
			target := classifier.Bucket(r)
			if err := streamed.Append(ctx, w.RT, target, r); err != nil {
				return nil, err
			}
		}
		return streamed.Finish(ctx, w.RT)
	default:
		subBuckets := classifier.SubBuckets(local)
		return shuffle.NewBatch().Shuffle(ctx, w.RT, subBuckets)
	}
}

// runOffset reduces every peer's post-shuffle run length into a shared
// lengths table, then returns this peer's prefix-sum offset, in records,
// into the shared-file output (§4.6); the shared-file placer converts it
// to bytes. Unused by the per-peer-file and sequential
// variants, but computed unconditionally to keep the phase barrier
// uniform across placement modes.
func (w *Worker) runOffset(ctx context.Context, localLen int64) (int64, error) {
	size := w.Config.Cluster.Size()
	id := w.Config.ID

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(localLen))

	result, err := w.RT.Reduce(ctx, "runLength", buf[:], func(contribs [][]byte) []byte {
		out := make([]byte, 8*len(contribs))
		for i, c := range contribs {
			copy(out[i*8:i*8+8], c)
		}
		return out
	})
	if err != nil {
		return 0, fmt.Errorf("%w: reducing run lengths: %v", types.ErrTransport, err)
	}
	if len(result) != 8*size {
		return 0, fmt.Errorf("%w: run length table has %d bytes, want %d", types.ErrInvariant, len(result), 8*size)
	}

	if w.Config.Tunables.Placement == types.PlacementSharedFile && id == 0 {
		var total int64
		for i := 0; i < size; i++ {
			total += int64(binary.BigEndian.Uint64(result[i*8 : i*8+8]))
		}
		if err := placement.PreSize(w.Config.OutputPath, total); err != nil {
			return 0, err
		}
	}
	if err := w.RT.Barrier(ctx); err != nil {
		return 0, fmt.Errorf("%w: pre-placement barrier: %v", types.ErrTransport, err)
	}

	var offset int64
	for i := 0; i < id; i++ {
		offset += int64(binary.BigEndian.Uint64(result[i*8 : i*8+8]))
	}
	return offset, nil
}

// placer builds the Placer for the configured placement mode.
func (w *Worker) placer() (placement.Placer, error) {
	tun := w.Config.Tunables
	switch tun.Placement {
	case types.PlacementSharedFile:
		return &placement.SharedFile{Path: w.Config.OutputPath}, nil
	case types.PlacementPerPeerFile:
		return &placement.PerPeerFile{Dir: w.Config.OutputPath, Prefix: perPeerFilePrefix}, nil
	case types.PlacementSequential:
		return &placement.Sequential{Path: w.Config.OutputPath, RT: w.RT}, nil
	default:
		return nil, fmt.Errorf("%w: unknown placement mode %d", types.ErrConfiguration, tun.Placement)
	}
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
		return nil, fmt.Errorf("%w: decode records: %v", types.ErrTransport, err)
	}
	return recs, nil
}

func encodePivots(pivots types.PivotList) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(pivots); err != nil {
		return nil, fmt.Errorf("%w: encode pivot list: %v", types.ErrTransport, err)
	}
	return buf.Bytes(), nil
}

func decodePivots(data []byte) (types.PivotList, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var pivots types.PivotList
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&pivots); err != nil {
		return nil, fmt.Errorf("%w: decode pivot list: %v", types.ErrTransport, err)
	}
	return pivots, nil
}
