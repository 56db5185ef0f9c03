// Package recordio implements the RecordIO collaborator described in
// §4.7: a windowed memory-mapped reader, a disjoint-offset shared-file
// writer, a per-peer streaming writer, and an optional remote-filesystem
// adapter. Reads go through the Source interface so the core sort engine
// never depends on a concrete input backend; the writers are concrete
// types with no shared interface.
package recordio

import (
	"fmt"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
	"github.com/jabolina/go-terasort/internal/types"
)

// Source is the read-side collaborator interface: total record count and
// random access by absolute record index.
type Source interface {
	Length() int64
	ReadAt(index int64) (types.Record, error)
	Close() error
}

// Reader is a windowed, memory-mapped Source over a single local file.
// It keeps at most one mmap window open at a time, re-mapping when a read
// falls outside the current window (sliding on sequential scans, jumping
// on out-of-window seeks), as described in §4.7.
type Reader struct {
	file           *os.File
	totalRecords   int64
	windowElements int64

	mu          sync.Mutex
	window      mmap.MMap
	windowStart int64
	windowLen   int64
}

// Open opens path as a record source, validating that its size is a
// multiple of types.RecordSize (§7 invariant violation otherwise).
func Open(path string, windowElements int) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", types.ErrIO, path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", types.ErrIO, path, err)
	}
	if info.Size()%types.RecordSize != 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s size %d not a multiple of %d", types.ErrInvariant, path, info.Size(), types.RecordSize)
	}
	if windowElements <= 0 {
		windowElements = 1_000_000
	}
	return &Reader{
		file:           f,
		totalRecords:   info.Size() / types.RecordSize,
		windowElements: int64(windowElements),
	}, nil
}

// Length returns the total number of records in the file.
func (r *Reader) Length() int64 {
	return r.totalRecords
}

// ReadAt returns the record at absolute index, sliding the mmap window if
// necessary. The returned Record aliases the current window and is only
// valid until the next ReadAt call or Close; callers that must retain it
// across those should call Record.Clone.
func (r *Reader) ReadAt(index int64) (types.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= r.totalRecords {
		return nil, fmt.Errorf("%w: record index %d out of range [0,%d)", types.ErrInvariant, index, r.totalRecords)
	}
	if err := r.ensureWindow(index); err != nil {
		return nil, err
	}
	localOffset := (index - r.windowStart) * types.RecordSize
	return types.Record(r.window[localOffset : localOffset+types.RecordSize]), nil
}

// ensureWindow re-maps the active window so that index falls within it.
// Must be called with r.mu held.
func (r *Reader) ensureWindow(index int64) error {
	if r.window != nil && index >= r.windowStart && index < r.windowStart+r.windowLen {
		return nil
	}
	if r.window != nil {
		if err := r.window.Unmap(); err != nil {
			return fmt.Errorf("%w: unmap: %v", types.ErrIO, err)
		}
		r.window = nil
	}

	length := r.windowElements
	if index+length > r.totalRecords {
		length = r.totalRecords - index
	}
	offsetBytes := index * types.RecordSize
	sizeBytes := length * types.RecordSize

	m, err := mmap.MapRegion(r.file, int(sizeBytes), mmap.RDONLY, 0, offsetBytes)
	if err != nil {
		return fmt.Errorf("%w: mmap window at record %d: %v", types.ErrIO, index, err)
	}
	r.window = m
	r.windowStart = index
	r.windowLen = length
	return nil
}

// Close releases the active mmap window and the underlying file handle.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.window != nil {
		if err := r.window.Unmap(); err != nil {
			return fmt.Errorf("%w: unmap: %v", types.ErrIO, err)
		}
		r.window = nil
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", types.ErrIO, err)
	}
	return nil
}
