// Package region implements a windowed sub-allocator carved from a
// continuous buffer. A region is pure bookkeeping over the buffer's cursor:
// it owns no memory of its own, and destroying one is trivial.
package region

import (
	"fmt"

	"github.com/dkopko/cb"
	"github.com/dkopko/cb/offset"
)

// Flags control a region's growth and refill behavior.
type Flags int

const (
	// Reversed regions grow downward: allocations move the cursor from
	// end toward start.
	Reversed Flags = 1 << iota
	// Final regions never auto-refill on depletion; Memalign returns
	// ErrDepleted instead.
	Final
)

// Region is a (start, end, cursor) window with an alignment and direction,
// carved out of a CB via Create or Derive.
type Region struct {
	c *cb.CB

	alignment offset.T
	flags     Flags

	start, end, cursor offset.T

	// preferredSize is the size used to refill on depletion; it only
	// ever grows, so repeated depletions don't thrash with tiny regions.
	preferredSize offset.T
}

// Create carves a new region of size bytes, aligned to alignment, out of c.
func Create(c *cb.CB, alignment, size offset.T, flags Flags) (*Region, error) {
	o, err := c.Memalign(alignment, size)
	if err != nil {
		return nil, fmt.Errorf("region: create: %w", err)
	}
	r := &Region{
		c:             c,
		alignment:     alignment,
		flags:         flags,
		start:         o,
		end:           o + size,
		preferredSize: size,
	}
	if flags&Reversed != 0 {
		r.cursor = r.end
	} else {
		r.cursor = r.start
	}
	return r, nil
}

// Derive carves a child region of size bytes, aligned to alignment, out of
// parent's remaining capacity.
func Derive(parent *Region, alignment, size offset.T, flags Flags) (*Region, error) {
	o, err := parent.Memalign(alignment, size)
	if err != nil {
		return nil, fmt.Errorf("region: derive: %w", err)
	}
	child := &Region{
		c:             parent.c,
		alignment:     alignment,
		flags:         flags,
		start:         o,
		end:           o + size,
		preferredSize: size,
	}
	if flags&Reversed != 0 {
		child.cursor = child.end
	} else {
		child.cursor = child.start
	}
	return child, nil
}

// Memalign allocates size bytes aligned to a within r, growing downward
// from end if r is Reversed. On depletion, a non-Final region refills
// itself with a fresh backing region (of max(preferredSize, size)) from the
// underlying CB and retries once.
func (r *Region) Memalign(a, size offset.T) (offset.T, error) {
	o, ok := r.tryMemalign(a, size)
	if ok {
		return o, nil
	}
	if r.flags&Final != 0 {
		return 0, cb.ErrDepleted
	}
	if err := r.refill(a, size); err != nil {
		return 0, err
	}
	o, ok = r.tryMemalign(a, size)
	if !ok {
		return 0, cb.ErrDepleted
	}
	return o, nil
}

func (r *Region) tryMemalign(a, size offset.T) (offset.T, bool) {
	if r.flags&Reversed != 0 {
		newCursor := offset.AlignDown(r.cursor-size, a)
		if size > r.cursor || !offset.LTE(r.start, newCursor) {
			return 0, false
		}
		r.cursor = newCursor
		return newCursor, true
	}
	newCursor := offset.AlignedGTE(r.cursor, a)
	if newCursor+size > r.end {
		return 0, false
	}
	r.cursor = newCursor + size
	return newCursor, true
}

func (r *Region) refill(a, size offset.T) error {
	want := r.preferredSize
	if size > want {
		want = size
	}
	o, err := r.c.Memalign(a, want)
	if err != nil {
		return fmt.Errorf("region: refill: %w", err)
	}
	r.preferredSize = want
	r.alignment = a
	r.start = o
	r.end = o + want
	if r.flags&Reversed != 0 {
		r.cursor = r.end
	} else {
		r.cursor = r.start
	}
	return nil
}

// Start, End, and Cursor expose the region's current window, mostly useful
// for tests and debug rendering.
func (r *Region) Start() offset.T  { return r.start }
func (r *Region) End() offset.T    { return r.end }
func (r *Region) Cursor() offset.T { return r.cursor }
