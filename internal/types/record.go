package types

import "bytes"

const (
	// KeySize is the length, in bytes, of a record key.
	KeySize = 10

	// ValueSize is the length, in bytes, of a record value.
	ValueSize = 90

	// RecordSize is the total on-disk length of a record: key followed by value.
	RecordSize = KeySize + ValueSize
)

// Record is a single 100-byte fixed-length record backed by a raw byte
// slice. Keeping it as a slice instead of a struct with a fixed array
// avoids a 100-byte copy every time a record changes hands between the
// classifier, the shuffle transport and the sorter.
type Record []byte

// Key returns the 10-byte key prefix of the record.
func (r Record) Key() []byte {
	return r[:KeySize]
}

// Value returns the 90-byte value suffix of the record.
func (r Record) Value() []byte {
	return r[KeySize:RecordSize]
}

// Compare orders records by unsigned byte comparison of the key, breaking
// ties with the value. It returns a negative number, zero or a positive
// number following the usual comparator convention.
func (r Record) Compare(other Record) int {
	if c := bytes.Compare(r.Key(), other.Key()); c != 0 {
		return c
	}
	return bytes.Compare(r.Value(), other.Value())
}

// Less reports whether r sorts strictly before other.
func (r Record) Less(other Record) bool {
	return r.Compare(other) < 0
}

// Equal reports whether r and other hold the same bytes.
func (r Record) Equal(other Record) bool {
	return bytes.Equal(r, other)
}

// Clone returns an independent copy of the record, detached from whatever
// buffer backs r. Used when a record must outlive the mmap window or read
// buffer it was sliced from.
func (r Record) Clone() Record {
	c := make(Record, RecordSize)
	copy(c, r)
	return c
}

// PivotList is a strictly ascending sequence of at most T-1 records chosen
// from the sampled input, identical on every peer after broadcast.
type PivotList []Record

// LowerBound returns the smallest bucket index b such that r < pivots[b],
// or len(pivots) if no such pivot exists. Records equal to a pivot route
// to the higher bucket, matching sort.Search's half-open convention.
func (p PivotList) LowerBound(r Record) int {
	lo, hi := 0, len(p)
	for lo < hi {
		mid := (lo + hi) / 2
		if p[mid].Less(r) || p[mid].Equal(r) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Equal reports whether two pivot lists hold byte-identical records in the
// same order, the invariant the sampling broadcast must establish (I1).
func (p PivotList) Equal(other PivotList) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if !p[i].Equal(other[i]) {
			return false
		}
	}
	return true
}
