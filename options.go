package chunkfs

import (
	"cmp"
	"strings"

	"github.com/google/uuid"
)

// Option configures a Tree at construction time, following the
// functional-options shape mhutchinson-trillian-tessera's storage
// constructors use (opts ...func(*options.StorageOptions)).
type Option[K cmp.Ordered, V any] func(*treeOptions[K, V])

type treeOptions[K cmp.Ordered, V any] struct {
	storageRoot string
	id          string
	codec       Codec[K, V]
}

// WithStorageRoot overrides the default "storage" root directory. Mainly
// useful for tests, which should never write into the process working
// directory.
func WithStorageRoot[K cmp.Ordered, V any](root string) Option[K, V] {
	return func(o *treeOptions[K, V]) { o.storageRoot = root }
}

// WithID pins the tree's identifier instead of generating a random one.
// Mostly useful for tests that want a predictable storage path.
func WithID[K cmp.Ordered, V any](id string) Option[K, V] {
	return func(o *treeOptions[K, V]) { o.id = id }
}

// WithCodec overrides the default JSON key/value codec.
func WithCodec[K cmp.Ordered, V any](c Codec[K, V]) Option[K, V] {
	return func(o *treeOptions[K, V]) { o.codec = c }
}

// generateTreeID produces a 16-character alphanumeric identifier, namespacing
// this tree's SSTables under storage/tree{id}/. A UUID's hex digits, with
// the hyphens stripped, are already alphanumeric; the first 16 of 32 are
// taken.
func generateTreeID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return hex[:16]
}
