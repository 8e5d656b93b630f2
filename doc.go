// Package chunkfs implements the log-structured merge tree at the core of a
// content-addressed chunk store: an AVL-balanced in-memory ordered index
// that periodically spills its resident values to append-only, on-disk
// SSTables, plus the lookup and iteration paths that fuse memory and disk.
//
// The index is single-writer, single-reader, and in-process only: it does
// not implement deletion, compaction, bloom filters, snapshots, crash-safe
// journaling, or concurrent writers.
package chunkfs
