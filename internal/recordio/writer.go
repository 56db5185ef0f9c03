package recordio

import (
	"bufio"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/jabolina/go-terasort/internal/types"
)

// PreSizeSharedFile grows (or creates) path to exactly totalRecords *
// types.RecordSize bytes, sparse-allocating where the OS supports it.
// Called once by peer 0 before any peer writes to the shared-file
// placement variant (§4.6).
func PreSizeSharedFile(path string, totalRecords int64) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", types.ErrIO, path, err)
	}
	defer f.Close()
	if err := f.Truncate(totalRecords * types.RecordSize); err != nil {
		return fmt.Errorf("%w: presize %s to %d records: %v", types.ErrIO, path, totalRecords, err)
	}
	return nil
}

// SharedFileWriter is a writable mmap window into a pre-sized shared
// output file, opened at a byte offset disjoint from every other peer's
// window (§4.6, §4.7's `open(path, start_offset_bytes, element_count)`).
type SharedFileWriter struct {
	file   *os.File
	window mmap.MMap
	cursor int64
}

// OpenSharedFileWriter opens path for writing startOffsetBytes bytes in,
// mapping exactly elementCount records' worth of window.
func OpenSharedFileWriter(path string, startOffsetBytes int64, elementCount int64) (*SharedFileWriter, error) {
	if elementCount == 0 {
		// Peers assigned zero records still participate in placement but
		// have nothing to map; Write and Close are both no-ops.
		return &SharedFileWriter{}, nil
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s for writing: %v", types.ErrIO, path, err)
	}
	sizeBytes := elementCount * types.RecordSize
	m, err := mmap.MapRegion(f, int(sizeBytes), mmap.RDWR, 0, startOffsetBytes)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: mmap write window at offset %d: %v", types.ErrIO, startOffsetBytes, err)
	}
	return &SharedFileWriter{file: f, window: m}, nil
}

// Write appends recs sequentially into the mapped window.
func (w *SharedFileWriter) Write(recs []types.Record) error {
	if w.window == nil {
		if len(recs) != 0 {
			return fmt.Errorf("%w: writing %d records into a zero-length window", types.ErrInvariant, len(recs))
		}
		return nil
	}
	for _, r := range recs {
		if w.cursor+types.RecordSize > int64(len(w.window)) {
			return fmt.Errorf("%w: write window overflow at cursor %d", types.ErrInvariant, w.cursor)
		}
		copy(w.window[w.cursor:w.cursor+types.RecordSize], r)
		w.cursor += types.RecordSize
	}
	return nil
}

// Close flushes and unmaps the window, guaranteeing durability on return.
func (w *SharedFileWriter) Close() error {
	if w.window == nil {
		return nil
	}
	if err := w.window.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %v", types.ErrIO, err)
	}
	if err := w.window.Unmap(); err != nil {
		return fmt.Errorf("%w: unmap: %v", types.ErrIO, err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", types.ErrIO, err)
	}
	return nil
}

// StreamingWriter is the per-peer-file placement variant's writer: a
// plain sequential append, used both for `<prefix>-part-NNNNN` files and
// for the sequential placement variant's token-held shared file.
type StreamingWriter struct {
	file *os.File
	buf  *bufio.Writer
}

// OpenStreamingWriter creates (or truncates) path for sequential append.
func OpenStreamingWriter(path string) (*StreamingWriter, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", types.ErrIO, path, err)
	}
	return &StreamingWriter{file: f, buf: bufio.NewWriterSize(f, 1<<20)}, nil
}

// OpenStreamingAppender opens path for sequential append without
// truncating, used by the sequential placement variant when a later peer
// picks up the token.
func OpenStreamingAppender(path string) (*StreamingWriter, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s for append: %v", types.ErrIO, path, err)
	}
	return &StreamingWriter{file: f, buf: bufio.NewWriterSize(f, 1<<20)}, nil
}

// Write appends recs to the stream.
func (w *StreamingWriter) Write(recs []types.Record) error {
	for _, r := range recs {
		if _, err := w.buf.Write(r); err != nil {
			return fmt.Errorf("%w: write record: %v", types.ErrIO, err)
		}
	}
	return nil
}

// Close flushes buffered bytes, syncs and closes the file, guaranteeing
// durability on return.
func (w *StreamingWriter) Close() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %v", types.ErrIO, err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("%w: sync: %v", types.ErrIO, err)
	}
	return w.file.Close()
}
