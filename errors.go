package chunkfs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a key is absent from both the in-memory
	// index and every SSTable it could have spilled to.
	ErrNotFound = errors.New("chunkfs: key not found")

	// ErrUnsupported is returned by Remove, which this engine does not
	// implement (see Non-goals).
	ErrUnsupported = errors.New("chunkfs: operation not supported")

	// ErrRoutingInvariant is returned when a lookup is routed to a specific
	// SSTable by a non-zero routing pointer but the key is not present in
	// that table. A miss here is a broken invariant, not an ordinary
	// not-found: the in-memory index promised this key's payload lives in
	// that exact table.
	ErrRoutingInvariant = errors.New("chunkfs: key routed to sstable but not found there")

	// ErrZeroBias is returned by New when the caller asks for a zero spill
	// cadence: Insert's size%bias spill check would divide by zero.
	ErrZeroBias = errors.New("chunkfs: bias must be greater than zero")
)

// _assert panics with a formatted message if condition is false. Reaching
// one of these indicates a broken invariant in the tree algebra (e.g. a nil
// node where a branch is required), not a recoverable runtime error.
func _assert(condition bool, msg string, v ...any) {
	if !condition {
		panic("chunkfs assertion failed: " + fmt.Sprintf(msg, v...))
	}
}
