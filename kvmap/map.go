package kvmap

import (
	"github.com/dkopko/cb"
	"github.com/dkopko/cb/bst"
	"github.com/dkopko/cb/offset"
)

// Map is a lazy key/value map: mutations append to c's command log, and
// Lookup replays that log to answer reads without building a tree. It
// holds a non-owning reference to the CB handle, so a resize performed by
// the caller in between calls is transparently picked up.
type Map struct {
	c    *cb.CB
	last offset.T
}

// Init creates a map over c, rooted at the empty log.
func Init(c *cb.CB) *Map {
	return &Map{c: c, last: noPrev}
}

// LastCommandOffset returns the offset of the most recently appended
// command, or the chain terminator noPrev (1) if the map is empty.
func (m *Map) LastCommandOffset() offset.T {
	return m.last
}

// Set appends a SET command for (key, value).
func (m *Map) Set(key, value uint64) error {
	o, err := appendRecord(m.c, record{kind: kindSet, prevOffset: m.last, field1: key, field2: value})
	if err != nil {
		return err
	}
	m.last = o
	return nil
}

// Delete appends a DELETE command for key. Unlike bst.Delete, this never
// reports "not found": the log doesn't know yet whether key is live.
func (m *Map) Delete(key uint64) error {
	o, err := appendRecord(m.c, record{kind: kindDelete, prevOffset: m.last, field1: key})
	if err != nil {
		return err
	}
	m.last = o
	return nil
}

// Lookup walks the command chain backwards: the first matching SET found
// wins, a DELETE for the same key terminates the search as not-found, and
// reaching a BST_ROOT falls through to a read-only lookup in the embedded
// tree. Lookup never mutates the map.
func (m *Map) Lookup(key uint64) (uint64, bool, error) {
	cur := m.last
	for cur != noPrev {
		r, err := readRecord(m.c, cur)
		if err != nil {
			return 0, false, err
		}
		switch r.kind {
		case kindSet:
			if r.field1 == key {
				return r.field2, true, nil
			}
		case kindDelete:
			if r.field1 == key {
				return 0, false, nil
			}
		case kindBSTRoot:
			return bst.Lookup(m.c, offset.T(r.field1), key)
		}
		cur = r.prevOffset
	}
	return 0, false, nil
}
