package placement

import (
	"github.com/jabolina/go-terasort/internal/recordio"
	"github.com/jabolina/go-terasort/internal/types"
)

// Cleanup removes whatever output a previous run left behind before this
// one starts, the "cleanup of stale files by peer 0" step from §4.6,
// generalized across all three placement variants. Only peer 0 should
// call this.
func Cleanup(mode types.PlacementMode, path, dir, prefix string) error {
	switch mode {
	case types.PlacementPerPeerFile:
		return recordio.CleanupPerPeerFiles(dir, prefix)
	default:
		return recordio.CleanupSharedFile(path)
	}
}
