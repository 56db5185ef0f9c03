package types

import "time"

// PlacementMode selects which of the Placer variants a run uses to write
// its sorted output, see §4.6.
type PlacementMode int

const (
	// PlacementSharedFile pre-sizes a single output file and has every peer
	// mmap-write its run at a disjoint, pre-computed byte offset.
	PlacementSharedFile PlacementMode = iota

	// PlacementPerPeerFile has every peer write its own `<prefix>-part-NNNNN`
	// file with no cross-peer coordination beyond a pre-run cleanup.
	PlacementPerPeerFile

	// PlacementSequential circulates a token 0->1->...->T-1, each peer
	// appending to one shared file while it holds the token. Kept for
	// comparison against the two parallel variants; not used by default.
	PlacementSequential
)

// ShuffleMode selects between the batch and streamed shuffle transports,
// see §4.4.
type ShuffleMode int

const (
	// ShuffleBatch ships one shipment per (sender, target) pair after
	// classification finishes.
	ShuffleBatch ShuffleMode = iota

	// ShuffleStreamed interleaves classification with transmission,
	// flushing sub-buckets once they cross ConcurSendBucketSize.
	ShuffleStreamed
)

// Tunables holds the configuration flags recognized by the CLI, see §6.
type Tunables struct {
	// MemoryMapElementCount is the number of records per mmap window used
	// by the windowed reader. Default 1,000,000.
	MemoryMapElementCount int

	// ConcurSendBucketSize is the flush threshold, in records, for the
	// streamed shuffle. Default 100,000.
	ConcurSendBucketSize int

	// InFlightSendLimit bounds the number of outstanding asynchronous
	// sends per target peer for the streamed shuffle (§5 back-pressure).
	InFlightSendLimit int

	// HDFSConf is a path-separator-delimited list of HDFS namenode
	// addresses (host:port), handed to the HDFS client as-is; no
	// configuration files are read. Empty disables the remote-FS adapter.
	HDFSConf string

	// Placement selects the output placement strategy.
	Placement PlacementMode

	// Shuffle selects the shuffle transport strategy.
	Shuffle ShuffleMode

	// DialTimeout bounds how long a peer waits to connect to another peer
	// during cluster bring-up.
	DialTimeout time.Duration
}

// DefaultTunables returns the tunables used when the CLI does not override
// them.
func DefaultTunables() Tunables {
	return Tunables{
		MemoryMapElementCount: 1_000_000,
		ConcurSendBucketSize:  100_000,
		InFlightSendLimit:     4,
		Placement:             PlacementSharedFile,
		Shuffle:               ShuffleStreamed,
		DialTimeout:           10 * time.Second,
	}
}

// ClusterConfiguration describes the fixed group of T peers a run executes
// across, resolved from the nodes-file (§6, §12 launcher).
type ClusterConfiguration struct {
	// Addresses holds one `host:port` entry per peer, in id order.
	Addresses []string
}

// Size returns T, the number of peers in the cluster.
func (c ClusterConfiguration) Size() int {
	return len(c.Addresses)
}

// PeerConfiguration is the configuration a single peer runs with.
type PeerConfiguration struct {
	// ID is this peer's stable integer id in [0, T).
	ID int

	// Cluster describes every peer's address, including this one.
	Cluster ClusterConfiguration

	// InputPath is the source of 100-byte records to sort.
	InputPath string

	// OutputPath is the destination: a single file for the shared-file and
	// sequential placement variants, or a directory for per-peer files.
	OutputPath string

	// SampleSize is S, the total number of samples requested across every
	// peer (not just this one).
	SampleSize int

	// Tunables holds the configuration flags, see Tunables.
	Tunables Tunables
}
