// Package launcher resolves the `nodes-file` CLI argument into a
// ClusterConfiguration and, for the common single-machine benchmark case,
// spawns an entire local cluster as in-process peers sharing a
// LoopbackRuntime instead of real sockets. Grounded on the teacher's
// test.CreateCluster/UnityCluster pattern of building a whole peer group
// from one call.
package launcher

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jabolina/go-terasort/internal/types"
)

// ParseNodesFile reads a line-oriented list of `host:port` (or bare
// hostname, defaulted to defaultPort) entries and returns a
// ClusterConfiguration with one peer per non-blank line, in line order
// (§6: "nodes-file is a line-oriented list of hostnames used by the
// launcher to size the peer group").
func ParseNodesFile(path string, defaultPort int) (types.ClusterConfiguration, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.ClusterConfiguration{}, fmt.Errorf("%w: open nodes-file %s: %v", types.ErrConfiguration, path, err)
	}
	defer f.Close()

	var addrs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, ":") {
			line = fmt.Sprintf("%s:%d", line, defaultPort)
		}
		addrs = append(addrs, line)
	}
	if err := scanner.Err(); err != nil {
		return types.ClusterConfiguration{}, fmt.Errorf("%w: read nodes-file %s: %v", types.ErrConfiguration, path, err)
	}
	if len(addrs) == 0 {
		return types.ClusterConfiguration{}, fmt.Errorf("%w: nodes-file %s names no peers", types.ErrConfiguration, path)
	}
	return types.ClusterConfiguration{Addresses: addrs}, nil
}

// IndexOf returns the peer id assigned to addr by line order. The CLI does
// not call it; a single peer process takes its id from `--peer-id`.
func IndexOf(cluster types.ClusterConfiguration, addr string) (int, error) {
	for i, a := range cluster.Addresses {
		if a == addr {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s is not listed in the nodes-file", types.ErrConfiguration, addr)
}
