package recordio

import (
	"fmt"
	"sort"
	"strings"

	"github.com/colinmarc/hdfs/v2"
	"github.com/jabolina/go-terasort/internal/types"
)

// HDFSSource is a Source backed by a single file on a remote HDFS
// cluster, used when the `hdfsConf` tunable is set (§6). Unlike the local
// Reader it does not mmap; colinmarc/hdfs exposes a plain io.ReaderAt over
// the network stream, which is sufficient since the remote-FS adapter is
// not the hot path this design optimizes.
type HDFSSource struct {
	client *hdfs.Client
	file   *hdfs.FileReader
	length int64
}

// OpenHDFSSource opens a single remote file as a Source.
func OpenHDFSSource(client *hdfs.Client, path string) (*HDFSSource, error) {
	info, err := client.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", types.ErrIO, path, err)
	}
	if info.Size()%types.RecordSize != 0 {
		return nil, fmt.Errorf("%w: %s size %d not a multiple of %d", types.ErrInvariant, path, info.Size(), types.RecordSize)
	}
	f, err := client.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", types.ErrIO, path, err)
	}
	return &HDFSSource{client: client, file: f, length: info.Size() / types.RecordSize}, nil
}

func (h *HDFSSource) Length() int64 { return h.length }

func (h *HDFSSource) ReadAt(index int64) (types.Record, error) {
	if index < 0 || index >= h.length {
		return nil, fmt.Errorf("%w: record index %d out of range [0,%d)", types.ErrInvariant, index, h.length)
	}
	buf := make(types.Record, types.RecordSize)
	if _, err := h.file.ReadAt(buf, index*types.RecordSize); err != nil {
		return nil, fmt.Errorf("%w: read record %d: %v", types.ErrIO, index, err)
	}
	return buf, nil
}

func (h *HDFSSource) Close() error {
	return h.file.Close()
}

// OpenHDFSDirectory implements the remote-filesystem adapter from §6: it
// enumerates entries in dir whose name begins with "part", orders them
// lexicographically, and treats their concatenation as one input stream.
func OpenHDFSDirectory(client *hdfs.Client, dir string) (Source, error) {
	entries, err := client.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", types.ErrIO, dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "part") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var sources []Source
	for _, name := range names {
		src, err := OpenHDFSSource(client, dir+"/"+name)
		if err != nil {
			for _, s := range sources {
				_ = s.Close()
			}
			return nil, err
		}
		sources = append(sources, src)
	}
	return NewConcatSource(sources)
}

// ConcatSource presents several Sources, each a contiguous multiple of
// types.RecordSize, as one logically contiguous Source, translating a
// global record index into the right underlying source and local offset.
type ConcatSource struct {
	sources []Source
	offsets []int64 // offsets[i] is the first global index served by sources[i]
	total   int64
}

// NewConcatSource wraps sources in file order, recording the first global
// index each one serves. It performs no validation of its own; each
// source's size is checked when that source is opened.
func NewConcatSource(sources []Source) (*ConcatSource, error) {
	c := &ConcatSource{sources: sources, offsets: make([]int64, len(sources))}
	var total int64
	for i, s := range sources {
		c.offsets[i] = total
		total += s.Length()
	}
	c.total = total
	return c, nil
}

func (c *ConcatSource) Length() int64 { return c.total }

func (c *ConcatSource) ReadAt(index int64) (types.Record, error) {
	if index < 0 || index >= c.total {
		return nil, fmt.Errorf("%w: record index %d out of range [0,%d)", types.ErrInvariant, index, c.total)
	}
	i := sort.Search(len(c.offsets), func(i int) bool {
		return i+1 == len(c.offsets) || c.offsets[i+1] > index
	})
	return c.sources[i].ReadAt(index - c.offsets[i])
}

func (c *ConcatSource) Close() error {
	var firstErr error
	for _, s := range c.sources {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
