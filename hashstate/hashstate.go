// Package hashstate wraps a streaming 64-bit hash, used by the BST to fold
// a tree's (key, value) sequence into a single content hash. The hash
// utility itself is deliberately not reimplemented here (see spec Non-goals)
// — it is github.com/cespare/xxhash/v2, the fixed 64-bit hash already
// wired throughout the retrieval pack.
package hashstate

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// State is an opaque, streaming hash accumulator.
type State struct {
	d   xxhash.Digest
	buf [8]byte
}

// New returns a fresh hash state.
func New() *State {
	s := &State{}
	s.d.Reset()
	return s
}

// WriteUint64 folds a single 64-bit term into the hash state.
func (s *State) WriteUint64(v uint64) {
	binary.LittleEndian.PutUint64(s.buf[:], v)
	s.d.Write(s.buf[:])
}

// WritePair folds a (key, value) term pair into the hash state in a fixed,
// order-sensitive encoding.
func (s *State) WritePair(key, value uint64) {
	s.WriteUint64(key)
	s.WriteUint64(value)
}

// Sum64 returns the current hash value without mutating the state.
func (s *State) Sum64() uint64 {
	return s.d.Sum64()
}
