// Package bst implements a persistent, offset-addressed red-black tree.
// Nodes live at byte offsets inside a continuous buffer (package cb) rather
// than behind language pointers, so that a tree rooted at an old offset
// remains valid after its owner's buffer has grown or shrunk, or after
// later mutations have built new nodes alongside it.
//
// Every mutation takes an explicit cutoff offset: nodes at or above cutoff
// may be mutated in place, nodes below it are cloned before being changed.
// Callers who want a persistent snapshot capture a root together with the
// cursor offset at that moment, and use that offset as the cutoff for any
// later mutation they intend not to disturb the snapshot.
package bst

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dkopko/cb"
	"github.com/dkopko/cb/offset"
)

// color is the red-black color bit, stored as a single byte on disk.
type color uint8

const (
	black color = 0
	red   color = 1
)

// Sentinel is the offset value denoting "no node" (an empty child or an
// empty tree). It can never collide with a real node offset because every
// node is allocated at alignment >= 2.
const Sentinel offset.T = 1

// NodeAlign is the alignment every on-arena node is allocated at. It must
// be >= 2 to keep Sentinel unambiguous.
const NodeAlign offset.T = 8

// NodeSize is the fixed, on-arena encoded size of a node: color, left,
// right, key, value, each as a little-endian uint64-width field (color is
// widened to keep the whole record 8-byte aligned throughout).
const NodeSize = 40

// ErrNotFound is returned by Lookup/Delete when the key is absent.
var ErrNotFound = errors.New("bst: not found")

type node struct {
	color       color
	left, right offset.T
	key, value  uint64
}

func readNode(c *cb.CB, o offset.T) (node, error) {
	b, err := c.At(o, NodeSize)
	if err != nil {
		return node{}, fmt.Errorf("bst: read node: %w", err)
	}
	return node{
		color: color(b[0]),
		left:  offset.T(binary.LittleEndian.Uint64(b[8:16])),
		right: offset.T(binary.LittleEndian.Uint64(b[16:24])),
		key:   binary.LittleEndian.Uint64(b[24:32]),
		value: binary.LittleEndian.Uint64(b[32:40]),
	}, nil
}

func encodeNode(b []byte, n node) {
	b[0] = byte(n.color)
	for i := 1; i < 8; i++ {
		b[i] = 0
	}
	binary.LittleEndian.PutUint64(b[8:16], uint64(n.left))
	binary.LittleEndian.PutUint64(b[16:24], uint64(n.right))
	binary.LittleEndian.PutUint64(b[24:32], n.key)
	binary.LittleEndian.PutUint64(b[32:40], n.value)
}

// writeNode writes n at an already-allocated offset o.
func writeNode(c *cb.CB, o offset.T, n node) error {
	b, err := c.At(o, NodeSize)
	if err != nil {
		return fmt.Errorf("bst: write node: %w", err)
	}
	encodeNode(b, n)
	return nil
}

// allocNode appends a brand new node to c and returns its offset. It uses
// MemalignContiguous, not Memalign, because the node is subsequently
// written and read back via At (see writeNode/readNode), which requires a
// single contiguous span rather than merely free bytes somewhere across
// the wrap.
func allocNode(c *cb.CB, n node) (offset.T, error) {
	o, err := c.MemalignContiguous(NodeAlign, NodeSize)
	if err != nil {
		return 0, fmt.Errorf("bst: alloc node: %w", err)
	}
	if err := writeNode(c, o, n); err != nil {
		return 0, err
	}
	return o, nil
}

// mutable reports whether the node at offset o may be mutated in place
// under the given cutoff. A zero cutoff means "no restriction" (everything
// is mutable in place); see SPEC_FULL.md §4.8 for this convention.
func mutable(o, cutoff offset.T) bool {
	return cutoff == 0 || offset.LTE(cutoff, o)
}

// cloneOrMutate returns a writable offset for the node currently at o: o
// itself if mutable(o, cutoff), or a fresh clone otherwise. The returned
// node's fields are the same as the original and are the caller's to
// modify before writeNode.
func cloneOrMutate(c *cb.CB, o, cutoff offset.T) (offset.T, node, error) {
	n, err := readNode(c, o)
	if err != nil {
		return 0, node{}, err
	}
	if mutable(o, cutoff) {
		return o, n, nil
	}
	newOff, err := c.MemalignContiguous(NodeAlign, NodeSize)
	if err != nil {
		return 0, node{}, fmt.Errorf("bst: clone node: %w", err)
	}
	return newOff, n, nil
}
