package chunkfs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"
)

// sstableStore owns the on-disk directory layout for one or more trees:
// root/tree{id}/sstable{n}. root defaults to "storage" but can
// be overridden via WithStorageRoot, primarily so tests don't litter the
// process working directory.
type sstableStore struct {
	root string
}

func newSSTableStore(root string) *sstableStore {
	if root == "" {
		root = "storage"
	}
	return &sstableStore{root: root}
}

func (s *sstableStore) treeDir(id string) string {
	return filepath.Join(s.root, "tree"+id)
}

func (s *sstableStore) tablePath(id string, n uint8) string {
	return filepath.Join(s.treeDir(id), fmt.Sprintf("sstable%d", n))
}

// create ensures the tree's directory exists and opens (truncating) the
// file for sstable n, ready for sequential writes in ascending key order.
func (s *sstableStore) create(id string, n uint8) (*os.File, error) {
	dir := s.treeDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sstable dir %q: %w", dir, err)
	}
	f, err := os.Create(s.tablePath(id, n))
	if err != nil {
		return nil, fmt.Errorf("create sstable file: %w", err)
	}
	return f, nil
}

// find scans sstable n for a line whose key column matches encodedKey
// exactly, and returns that line's value column still in its encoded form
// (callers decode it with their Codec). The second return is false if no
// such line exists — callers that reached here via a routing pointer should
// treat that as an invariant violation (see Tree.Get), not an ordinary miss.
func (s *sstableStore) find(id string, n uint8, encodedKey string) (string, bool, error) {
	path := s.tablePath(id, n)
	f, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("open sstable %q: %w", path, err)
	}
	defer f.Close()

	prefix := encodedKey + ":"
	scanner := bufio.NewScanner(f)
	// SSTable lines hold a JSON-encoded value, which for struct payloads
	// can comfortably exceed the scanner's 64KiB default token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return rest, true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", false, fmt.Errorf("scan sstable %q: %w", path, err)
	}
	return "", false, nil
}

// spillWriter writes a spill's lines through a bufio.Writer in front of the
// backing file; close flushes what is still buffered and closes the file.
type spillWriter struct {
	f *os.File
	w *bufio.Writer
}

func (s *sstableStore) newSpillWriter(id string, n uint8) (*spillWriter, error) {
	f, err := s.create(id, n)
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("chunkfs: tree %s: opened sstable%d for spill", id, n)
	return &spillWriter{f: f, w: bufio.NewWriter(f)}, nil
}

func (sw *spillWriter) writeLine(encodedKey, encodedValue string) error {
	if _, err := sw.w.WriteString(encodedKey); err != nil {
		return err
	}
	if err := sw.w.WriteByte(':'); err != nil {
		return err
	}
	if _, err := sw.w.WriteString(encodedValue); err != nil {
		return err
	}
	return sw.w.WriteByte('\n')
}

func (sw *spillWriter) close() error {
	if err := sw.w.Flush(); err != nil {
		_ = sw.f.Close()
		return fmt.Errorf("flush sstable: %w", err)
	}
	return sw.f.Close()
}
