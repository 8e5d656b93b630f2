package chunkfs

import (
	"cmp"
	"fmt"
)

// Span is an (offset, length) window into the byte buffer most recently
// passed to a Chunker's ChunkData.
type Span struct {
	Offset int
	Length int
}

// Range returns the half-open [offset, offset+length) slice bounds for s
// within the buffer it was produced from.
func (s Span) Range() (start, end int) { return s.Offset, s.Offset + s.Length }

// Chunker is the contract between a content-defined (or fixed-size)
// chunking algorithm and the LSM index. It is a black box
// to the index: the index never inspects how boundaries are chosen, only
// consumes the spans it emits. Content-defined chunking families beyond
// FixedSizeChunker (Rabin, Super, Ultra, Leap — distinguished only by their
// boundary-selection algorithm) are out of scope for this module; a caller
// wanting one plugs in their own Chunker implementation.
type Chunker interface {
	// ChunkData consumes data (which should be this Chunker's previous
	// Remainder() prepended to newly-read bytes) and returns the spans
	// fully determined by this call. The last, possibly-incomplete span is
	// held back as the new Remainder() rather than emitted.
	ChunkData(data []byte) []Span

	// Remainder returns the unconsumed tail from the most recent
	// ChunkData call, to be prepended to the next buffer.
	Remainder() []byte

	// EstimateChunkCount is a capacity hint for preallocating the slice
	// ChunkData will return, given the buffer it is about to process.
	EstimateChunkCount(data []byte) int
}

// FixedSizeChunker splits a byte stream into even-sized spans, the
// chunk_size(FSC) algorithm from original_source/src/chunkers.rs's
// FSChunker — the only one of the five reference variants with no external
// content-defined-chunking library dependency, and so the one this module
// implements directly rather than merely documenting.
type FixedSizeChunker struct {
	chunkSize int
	rest      []byte
}

// NewFixedSizeChunker constructs a chunker that emits spans of exactly
// chunkSize bytes (the final, possibly shorter, span of each call is held
// back as Remainder instead of emitted). chunkSize must be positive.
func NewFixedSizeChunker(chunkSize int) (*FixedSizeChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunkfs: fixed-size chunker: chunk size must be positive, got %d", chunkSize)
	}
	return &FixedSizeChunker{chunkSize: chunkSize}, nil
}

func (c *FixedSizeChunker) ChunkData(data []byte) []Span {
	spans := make([]Span, 0, c.EstimateChunkCount(data))
	offset := 0
	for offset < len(data) {
		length := c.chunkSize
		if remaining := len(data) - offset; remaining < length {
			length = remaining
		}
		spans = append(spans, Span{Offset: offset, Length: length})
		offset += c.chunkSize
	}

	if len(spans) == 0 {
		c.rest = nil
		return spans
	}

	last := spans[len(spans)-1]
	if last.Length < c.chunkSize {
		start, end := last.Range()
		c.rest = append([]byte(nil), data[start:end]...)
		spans = spans[:len(spans)-1]
	} else {
		c.rest = nil
	}
	return spans
}

func (c *FixedSizeChunker) Remainder() []byte { return c.rest }

func (c *FixedSizeChunker) EstimateChunkCount(data []byte) int {
	return len(data)/c.chunkSize + 1
}

// HashFunc derives a content-addressed key from a chunk's raw bytes.
type HashFunc[K cmp.Ordered] func(chunk []byte) K

// ValueFunc derives the payload stored against a chunk's key. It is
// typically the identity function (store the chunk bytes themselves) or a
// function that stashes the chunk in a side store and returns a pointer/
// descriptor as V.
type ValueFunc[V any] func(chunk []byte) V

// Pipeline drives a Chunker over successive byte buffers and inserts each
// emitted span's (hash, value) pair into a Database — a runnable adapter
// over the chunker-to-index handoff, wiring a Database directly onto the
// chunker's output stream.
type Pipeline[K cmp.Ordered, V any] struct {
	chunker Chunker
	db      Database[K, V]
	hash    HashFunc[K]
	value   ValueFunc[V]
}

// NewPipeline builds a Pipeline over an existing chunker and database.
func NewPipeline[K cmp.Ordered, V any](chunker Chunker, db Database[K, V], hash HashFunc[K], value ValueFunc[V]) *Pipeline[K, V] {
	return &Pipeline[K, V]{chunker: chunker, db: db, hash: hash, value: value}
}

// Feed prepends the chunker's residual bytes from the previous call onto
// data, chunks the result, and inserts every emitted span into the
// database. Returns the number of spans inserted.
func (p *Pipeline[K, V]) Feed(data []byte) (int, error) {
	buf := data
	if rest := p.chunker.Remainder(); len(rest) > 0 {
		buf = make([]byte, 0, len(rest)+len(data))
		buf = append(buf, rest...)
		buf = append(buf, data...)
	}

	spans := p.chunker.ChunkData(buf)
	for _, s := range spans {
		start, end := s.Range()
		chunk := buf[start:end]
		if err := p.db.Insert(p.hash(chunk), p.value(chunk)); err != nil {
			return 0, fmt.Errorf("chunkfs: pipeline: insert chunk at offset %d: %w", s.Offset, err)
		}
	}
	return len(spans), nil
}
