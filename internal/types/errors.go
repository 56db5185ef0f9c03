package types

import "errors"

// Sentinel error classes used to pick an exit code at the top level,
// following the taxonomy in §7: configuration errors are caught before any
// peer work starts, I/O and transport errors abort the whole group, and
// invariant violations indicate a bug rather than bad input.
var (
	ErrConfiguration = errors.New("terasort: configuration error")
	ErrIO            = errors.New("terasort: i/o error")
	ErrInvariant     = errors.New("terasort: invariant violation")
	ErrTransport     = errors.New("terasort: transport error")
)
