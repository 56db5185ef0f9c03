package recordio

import (
	"container/list"
	"io"
	"sync"
)

// OrderedWriter buffers out-of-order WriteAt calls and flushes them to an
// underlying sequential io.Writer in offset order, serializing writes at
// disjoint byte offsets into one ordered stream. No placement variant
// uses it: the shared-file placer always writes through a writable mmap
// window, and there is no fallback for filesystems without mmap.
//
// Grounded directly on the offset-ordered buffering writer pattern used
// by s5cmd's concurrent multipart downloader.
type OrderedWriter struct {
	mu      sync.Mutex
	pending *list.List
	w       io.Writer
	written int64
}

type chunk struct {
	offset int64
	value  []byte
}

// NewOrderedWriter wraps w, whose Write calls will always observe
// monotonically increasing, contiguous byte ranges regardless of the
// order WriteAt is called in.
func NewOrderedWriter(w io.Writer) *OrderedWriter {
	return &OrderedWriter{pending: list.New(), w: w}
}

// WriteAt stages p for delivery at offset, flushing any now-contiguous
// prefix of previously staged chunks.
func (o *OrderedWriter) WriteAt(p []byte, offset int64) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.written == offset && o.pending.Len() == 0 {
		n, err := o.w.Write(p)
		o.written += int64(n)
		return n, err
	}

	cp := make([]byte, len(p))
	copy(cp, p)
	inserted := false
	for e := o.pending.Front(); e != nil; e = e.Next() {
		if offset < e.Value.(*chunk).offset {
			o.pending.InsertBefore(&chunk{offset: offset, value: cp}, e)
			inserted = true
			break
		}
	}
	if !inserted {
		o.pending.PushBack(&chunk{offset: offset, value: cp})
	}

	var flushed []*list.Element
	for e := o.pending.Front(); e != nil; e = e.Next() {
		c := e.Value.(*chunk)
		if c.offset != o.written {
			break
		}
		n, err := o.w.Write(c.value)
		o.written += int64(n)
		if err != nil {
			return n, err
		}
		flushed = append(flushed, e)
	}
	for _, e := range flushed {
		o.pending.Remove(e)
	}
	return len(p), nil
}
