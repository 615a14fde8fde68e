// Package kvmap layers a lazy key/value map over the append-only command
// log: Set/Delete are O(1) amortized appends, Lookup walks the log
// backwards, and Consolidate periodically folds the whole chain into a
// single persistent BST (package bst) rooted at a fresh BST_ROOT record.
package kvmap

import (
	"encoding/binary"
	"fmt"

	"github.com/dkopko/cb"
	"github.com/dkopko/cb/offset"
)

type kind uint8

const (
	kindSet kind = iota
	kindDelete
	kindBSTRoot
)

// recordSize is the fixed on-arena encoding: kind(1, padded to 8) +
// prev_offset(8) + field1(8) + field2(8). field1/field2 carry (key, value)
// for a Set, (key, 0) for a Delete, or (root, cutoff) for a BST_ROOT.
const recordSize = 32
const recordAlign offset.T = 8

// noPrev is the prev_offset value terminating the command chain. It must
// not collide with any real record offset: since every record is appended
// at recordAlign (8), its offset is always a multiple of 8, so 1 can never
// be a live record address (the same unreachability trick bst uses for
// its own Sentinel).
const noPrev offset.T = 1

type record struct {
	kind        kind
	prevOffset  offset.T
	field1      uint64
	field2      uint64
}

func encodeRecord(b []byte, r record) {
	b[0] = byte(r.kind)
	for i := 1; i < 8; i++ {
		b[i] = 0
	}
	binary.LittleEndian.PutUint64(b[8:16], uint64(r.prevOffset))
	binary.LittleEndian.PutUint64(b[16:24], r.field1)
	binary.LittleEndian.PutUint64(b[24:32], r.field2)
}

func readRecord(c *cb.CB, o offset.T) (record, error) {
	b, err := c.At(o, recordSize)
	if err != nil {
		return record{}, fmt.Errorf("kvmap: read record: %w", err)
	}
	return record{
		kind:       kind(b[0]),
		prevOffset: offset.T(binary.LittleEndian.Uint64(b[8:16])),
		field1:     binary.LittleEndian.Uint64(b[16:24]),
		field2:     binary.LittleEndian.Uint64(b[24:32]),
	}, nil
}

// appendRecord writes r at the next aligned offset and returns it. It uses
// MemalignContiguous, not Memalign, because the record is written and read
// back via At (see readRecord/this function), which requires a single
// contiguous span rather than merely free bytes somewhere across the wrap.
func appendRecord(c *cb.CB, r record) (offset.T, error) {
	o, err := c.MemalignContiguous(recordAlign, recordSize)
	if err != nil {
		return 0, fmt.Errorf("kvmap: append record: %w", err)
	}
	b, err := c.At(o, recordSize)
	if err != nil {
		return 0, err
	}
	encodeRecord(b, r)
	return o, nil
}
