package chunkfs

import (
	"cmp"
	"fmt"
	"strings"

	"k8s.io/klog/v2"
)

// Tree is the LSM-tree ordered index: an in-memory AVL-balanced binary
// search tree whose resident values periodically spill to on-disk SSTables
//. It is single-writer, single-reader, and not safe for
// concurrent use from multiple goroutines — there is no internal lock
// because there is no concurrency to guard against.
type Tree[K cmp.Ordered, V any] struct {
	root       *node[K, V]
	size       uint32
	spillCount uint8
	bias       uint32
	id         string

	store *sstableStore
	codec Codec[K, V]
}

// New constructs an empty tree that spills every bias successful inserts.
// bias must be greater than zero.
func New[K cmp.Ordered, V any](bias uint32, opts ...Option[K, V]) (*Tree[K, V], error) {
	if bias == 0 {
		return nil, ErrZeroBias
	}

	o := treeOptions[K, V]{
		storageRoot: "storage",
		id:          generateTreeID(),
		codec:       jsonCodec[K, V]{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Tree[K, V]{
		bias:  bias,
		id:    o.id,
		store: newSSTableStore(o.storageRoot),
		codec: o.codec,
	}
	klog.V(1).Infof("chunkfs: tree %s created, bias=%d", t.id, bias)
	return t, nil
}

// ID returns the tree's storage identifier, namespacing its SSTables under
// storage/tree{id}/.
func (t *Tree[K, V]) ID() string { return t.id }

// Size returns the total number of successful Insert calls, including
// duplicate-key inserts that were no-ops on the tree shape: size counts
// calls, not distinct keys — preserved deliberately, see DESIGN.md.
func (t *Tree[K, V]) Size() uint32 { return t.size }

// SpillCount returns the number of SSTables produced so far.
func (t *Tree[K, V]) SpillCount() uint8 { return t.spillCount }

// Insert adds key/value to the index. Re-inserting an existing key is a
// no-op on the tree's contents (the original payload, resident or spilled,
// is preserved) but still advances size and can still trigger a spill.
func (t *Tree[K, V]) Insert(key K, value V) error {
	climb := true
	t.root = avlInsert(t.root, key, value, &climb)
	t.size++
	if t.size%t.bias == 0 {
		return t.unload()
	}
	return nil
}

// Get returns the value for key, resolving through a spilled SSTable if the
// in-memory index has already evicted it. Returns ErrNotFound if the key
// was never inserted. A key that was routed to a specific SSTable but is
// missing from it is an invariant violation (ErrRoutingInvariant), not a
// not-found.
func (t *Tree[K, V]) Get(key K) (V, error) {
	var zero V

	val, sstable := avlGet(t.root, key)
	if val != nil {
		return *val, nil
	}
	if sstable == 0 {
		return zero, ErrNotFound
	}

	encodedKey, err := t.codec.EncodeKey(key)
	if err != nil {
		return zero, fmt.Errorf("chunkfs: encode key for sstable lookup: %w", err)
	}
	raw, ok, err := t.store.find(t.id, sstable, encodedKey)
	if err != nil {
		return zero, fmt.Errorf("chunkfs: tree %s: sstable%d lookup: %w", t.id, sstable, err)
	}
	if !ok {
		klog.Errorf("chunkfs: tree %s: key routed to sstable%d but not found there", t.id, sstable)
		return zero, fmt.Errorf("%w: sstable%d", ErrRoutingInvariant, sstable)
	}
	v, err := t.codec.DecodeValue(raw)
	if err != nil {
		return zero, fmt.Errorf("chunkfs: tree %s: decode value from sstable%d: %w", t.id, sstable, err)
	}
	return v, nil
}

// Contains reports whether key is present, without surfacing its value or
// any lookup error beyond "not found".
func (t *Tree[K, V]) Contains(key K) bool {
	_, err := t.Get(key)
	return err == nil
}

// Remove is not implemented.
func (t *Tree[K, V]) Remove(K) error {
	return ErrUnsupported
}

// BalanceFactor returns the balance factor recorded for key and whether key
// is present in the tree. Supplemented from original_source/src/lsmtree.rs's
// get_balance_factor; mainly a test/diagnostic aid.
func (t *Tree[K, V]) BalanceFactor(key K) (int8, bool) {
	return avlBalanceFactor(t.root, key)
}

// unload (a.k.a. "spill") evicts every currently-resident value to a new
// SSTable, in ascending key order, replacing each with a routing pointer to
// that table. Branches already spilled by an earlier unload are left alone
//.
func (t *Tree[K, V]) unload() error {
	if t.spillCount == 255 {
		klog.Warningf("chunkfs: tree %s: spill counter at its 8-bit ceiling, next spill wraps to 0", t.id)
	}
	n := t.spillCount + 1

	sw, err := t.store.newSpillWriter(t.id, n)
	if err != nil {
		return fmt.Errorf("chunkfs: tree %s: begin spill %d: %w", t.id, n, err)
	}

	var walkErr error
	avlInorder(t.root, func(b *node[K, V]) {
		if walkErr != nil || b.value == nil {
			return // already spilled by an earlier unload, or walkErr latched
		}
		encodedKey, err := t.codec.EncodeKey(b.key)
		if err != nil {
			walkErr = fmt.Errorf("encode key during spill: %w", err)
			return
		}
		encodedValue, err := t.codec.EncodeValue(*b.value)
		if err != nil {
			walkErr = fmt.Errorf("encode value during spill: %w", err)
			return
		}
		if err := sw.writeLine(encodedKey, encodedValue); err != nil {
			walkErr = fmt.Errorf("write spill line: %w", err)
			return
		}
		b.value = nil
		b.sstable = n
	})

	if closeErr := sw.close(); closeErr != nil && walkErr == nil {
		walkErr = closeErr
	}
	if walkErr != nil {
		return fmt.Errorf("chunkfs: tree %s: spill %d: %w", t.id, n, walkErr)
	}

	t.spillCount = n
	klog.V(1).Infof("chunkfs: tree %s: spill %d complete, size=%d", t.id, n, t.size)
	return nil
}

// String renders the tree as an indented in-order dump with each key's
// balance factor and, if resident, its value — supplemented from
// original_source/src/lsmtree.rs's Node::print, used there by every test as
// a pre-assertion diagnostic.
func (t *Tree[K, V]) String() string {
	var b strings.Builder
	var walk func(n *node[K, V], depth int)
	walk = func(n *node[K, V], depth int) {
		if n == nil {
			return
		}
		walk(n.left, depth+1)
		b.WriteString(strings.Repeat("    ", depth))
		if n.value != nil {
			fmt.Fprintf(&b, "%v:%v(%d)\n", n.key, *n.value, n.bf)
		} else {
			fmt.Fprintf(&b, "%v:(sstable%d)(%d)\n", n.key, n.sstable, n.bf)
		}
		walk(n.right, depth+1)
	}
	walk(t.root, 0)
	return b.String()
}
