package chunkfs

import (
	"cmp"
	"encoding/json"
	"fmt"
)

// Codec marshals keys and values to and from the self-describing textual
// form stored in SSTable lines. The default codec below
// uses JSON, the same choice mhutchinson-trillian-tessera/storage/posix
// makes for its on-disk treeState file.
//
// There is deliberately no DecodeKey: every lookup that touches an SSTable
// already holds the key it is looking for (routed there by the in-memory
// index), so the store only ever needs to recognise "is this line's key
// column exactly the encoding of the key I already have", never to parse an
// arbitrary key out of a line. This sidesteps the "first unescaped ':'"
// hazard a naive split-on-colon parse would run into — see sstable.go's
// find.
type Codec[K cmp.Ordered, V any] interface {
	EncodeKey(k K) (string, error)
	EncodeValue(v V) (string, error)
	DecodeValue(s string) (V, error)
}

// jsonCodec is the default Codec. Both key and value are encoded with
// encoding/json, which quotes strings (escaping any embedded '"' and
// leaving ':' characters safely inside the quotes).
type jsonCodec[K cmp.Ordered, V any] struct{}

func (jsonCodec[K, V]) EncodeKey(k K) (string, error) {
	b, err := json.Marshal(k)
	if err != nil {
		return "", fmt.Errorf("encode key: %w", err)
	}
	return string(b), nil
}

func (jsonCodec[K, V]) EncodeValue(v V) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode value: %w", err)
	}
	return string(b), nil
}

func (jsonCodec[K, V]) DecodeValue(s string) (V, error) {
	var v V
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return v, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}
