package chunkfs

import "cmp"

// Database is the narrow contract the chunking pipeline consumes: insert a
// chunk's hash/value pair, check and fetch by hash, and an explicitly
// unsupported remove. *Tree satisfies this directly — there is no
// transactional boundary here for a separate façade type to mediate.
type Database[K cmp.Ordered, V any] interface {
	Insert(key K, value V) error
	Get(key K) (V, error)
	Contains(key K) bool
	Remove(key K) error
}

var _ Database[string, string] = (*Tree[string, string])(nil)
