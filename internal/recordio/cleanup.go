package recordio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jabolina/go-terasort/internal/types"
)

// CleanupPerPeerFiles removes any pre-existing `<prefix>-part-NNNNN`
// files before a run starts, the stale-output cleanup peer 0 performs
// described in §4.6/§7.
func CleanupPerPeerFiles(dir, prefix string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dir, 0755)
		}
		return fmt.Errorf("%w: read dir %s: %v", types.ErrIO, dir, err)
	}
	base := filepath.Base(prefix) + "-part-"
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if len(entry.Name()) >= len(base) && entry.Name()[:len(base)] == base {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				return fmt.Errorf("%w: remove stale output %s: %v", types.ErrIO, entry.Name(), err)
			}
		}
	}
	return nil
}

// CleanupSharedFile removes a stale single-file output before a run
// starts.
func CleanupSharedFile(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove stale output %s: %v", types.ErrIO, path, err)
	}
	return nil
}

// PartPath builds the `<prefix>-part-NNNNN` path for peer id, zero-padded
// to 5 digits as required by §4.6 and §6.
func PartPath(dir, prefix string, id int) string {
	return filepath.Join(dir, fmt.Sprintf("%s-part-%05d", prefix, id))
}
