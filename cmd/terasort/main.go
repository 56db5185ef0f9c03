// Command terasort runs one peer of the distributed sample-sort engine,
// or the whole local cluster as supervised goroutines when --peer-id is
// omitted (§6, §12).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jabolina/go-terasort/internal/definition"
	"github.com/jabolina/go-terasort/internal/launcher"
	"github.com/jabolina/go-terasort/internal/runtime"
	"github.com/jabolina/go-terasort/internal/types"
	"github.com/jabolina/go-terasort/internal/worker"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

var (
	app = kingpin.New("terasort", "Distributed sample-sort for fixed-length 100-byte records.")

	inputPath  = app.Arg("input-path", "Path (or remote-fs directory) of the input records.").Required().String()
	outputPath = app.Arg("output-path", "Output file or directory, depending on --placement.").Required().String()
	sampleSize = app.Arg("sample-size", "Total number of pivot samples drawn across all peers.").Required().Int()
	nodesFile  = app.Arg("nodes-file", "Line-oriented list of peer hostnames.").Required().ExistingFile()

	peerID = app.Flag("peer-id", "This process's peer id. Omit (or pass -1) to run the whole cluster locally in-process.").Default("-1").Int()

	memoryMapElementCount = app.Flag("memoryMap.elementCount", "Records per mmap window.").Default("1000000").Int()
	concurSendBucketSize  = app.Flag("concurSendBucketSize", "Flush threshold, in records, for the streamed shuffle.").Default("100000").Int()
	inFlightSendLimit     = app.Flag("inFlightSendLimit", "Outstanding async sends per target for the streamed shuffle.").Default("4").Int()
	hdfsConf              = app.Flag("hdfsConf", "Path-separator-delimited list of HDFS namenode addresses (host:port); configuration files are not read.").String()
	placementFlag         = app.Flag("placement", "Output placement strategy.").Default("shared-file").Enum("shared-file", "per-peer-file", "sequential")
	shuffleFlag           = app.Flag("shuffle", "Shuffle transport strategy.").Default("streamed").Enum("batch", "streamed")
	dialTimeout           = app.Flag("dialTimeout", "How long to wait for the full peer mesh to connect.").Default("10s").Duration()
	metricsAddr           = app.Flag("metricsAddr", "Address to serve Prometheus metrics on. Empty disables it.").String()
	debug                 = app.Flag("debug", "Enable debug logging.").Bool()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	tunables := types.DefaultTunables()
	tunables.MemoryMapElementCount = *memoryMapElementCount
	tunables.ConcurSendBucketSize = *concurSendBucketSize
	tunables.InFlightSendLimit = *inFlightSendLimit
	tunables.HDFSConf = *hdfsConf
	tunables.DialTimeout = *dialTimeout
	tunables.Placement = parsePlacement(*placementFlag)
	tunables.Shuffle = parseShuffle(*shuffleFlag)

	cluster, err := launcher.ParseNodesFile(*nodesFile, 9000)
	if err != nil {
		fail(err)
	}

	base := types.PeerConfiguration{
		Cluster:    cluster,
		InputPath:  *inputPath,
		OutputPath: *outputPath,
		SampleSize: *sampleSize,
		Tunables:   tunables,
	}

	ctx := context.Background()
	if *peerID < 0 {
		inputs := make([]string, cluster.Size())
		outputs := make([]string, cluster.Size())
		for i := range inputs {
			inputs[i] = *inputPath
			outputs[i] = *outputPath
		}
		if err := launcher.RunLocalCluster(ctx, base, inputs, outputs); err != nil {
			fail(err)
		}
		return
	}

	if err := runSinglePeer(ctx, base, *peerID); err != nil {
		fail(err)
	}
}

func runSinglePeer(ctx context.Context, base types.PeerConfiguration, id int) error {
	base.ID = id
	log := definition.NewDefaultLogger().WithField("peer", id)
	log.ToggleDebug(*debug)
	tl := definition.NewTimeline(id)
	metrics := definition.NewMetrics(id)

	if *metricsAddr != "" {
		go func() {
			if err := metrics.ServeHTTP(*metricsAddr); err != nil {
				log.Warnf("metrics server stopped: %v", err)
			}
		}()
	}

	rt, err := runtime.NewTCPRuntime(ctx, id, base.Cluster, log, base.Tunables.DialTimeout)
	if err != nil {
		return err
	}
	defer rt.Close()

	w := worker.New(base, rt, log, tl, metrics)
	return w.Run(ctx)
}

func parsePlacement(s string) types.PlacementMode {
	switch s {
	case "per-peer-file":
		return types.PlacementPerPeerFile
	case "sequential":
		return types.PlacementSequential
	default:
		return types.PlacementSharedFile
	}
}

func parseShuffle(s string) types.ShuffleMode {
	if s == "batch" {
		return types.ShuffleBatch
	}
	return types.ShuffleStreamed
}

// fail prints the error to stderr and exits with a status code chosen by
// the error taxonomy from §7: configuration mistakes exit distinctly from
// I/O, invariant and transport failures so callers scripting this binary
// can tell a bad invocation from a failed run.
func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	switch {
	case errors.Is(err, types.ErrConfiguration):
		os.Exit(2)
	case errors.Is(err, types.ErrIO):
		os.Exit(3)
	case errors.Is(err, types.ErrInvariant):
		os.Exit(4)
	case errors.Is(err, types.ErrTransport):
		os.Exit(5)
	default:
		os.Exit(1)
	}
}
