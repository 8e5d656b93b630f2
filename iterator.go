package chunkfs

import (
	"cmp"
	"fmt"
)

// Iterator walks a Tree's entries in ascending key order, resolving each
// value lazily from memory or from the SSTable the node was spilled to
//. It is one-shot and walks the live tree rather than a copy: its stack
// holds pointers to the tree's own nodes, so inserts made after creation
// produce undefined ordering.
type Iterator[K cmp.Ordered, V any] struct {
	stack []*node[K, V]
	id    string
	store *sstableStore
	codec Codec[K, V]
}

// NewIterator creates a one-shot in-order iterator over t.
func (t *Tree[K, V]) NewIterator() *Iterator[K, V] {
	it := &Iterator[K, V]{id: t.id, store: t.store, codec: t.codec}
	it.pushLeftSpine(t.root)
	return it
}

func (it *Iterator[K, V]) pushLeftSpine(n *node[K, V]) {
	for n != nil {
		it.stack = append(it.stack, n)
		n = n.left
	}
}

// Next returns the next (key, value) pair in ascending order, or ok=false
// once every entry has been yielded.
func (it *Iterator[K, V]) Next() (key K, value V, ok bool, err error) {
	if len(it.stack) == 0 {
		return key, value, false, nil
	}

	last := len(it.stack) - 1
	b := it.stack[last]
	it.stack = it.stack[:last]
	it.pushLeftSpine(b.right)

	if b.value != nil {
		return b.key, *b.value, true, nil
	}

	_assert(b.sstable != 0, "iterator: node has neither a resident value nor a routing pointer")
	encodedKey, err := it.codec.EncodeKey(b.key)
	if err != nil {
		return key, value, false, fmt.Errorf("chunkfs: iterator: encode key: %w", err)
	}
	raw, found, err := it.store.find(it.id, b.sstable, encodedKey)
	if err != nil {
		return key, value, false, fmt.Errorf("chunkfs: iterator: sstable%d lookup: %w", b.sstable, err)
	}
	if !found {
		return key, value, false, fmt.Errorf("%w: sstable%d (iterator)", ErrRoutingInvariant, b.sstable)
	}
	v, err := it.codec.DecodeValue(raw)
	if err != nil {
		return key, value, false, fmt.Errorf("chunkfs: iterator: decode value: %w", err)
	}
	return b.key, v, true, nil
}
