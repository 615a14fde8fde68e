// {{{ Copyright (c) Paul R. Tagliamonte <paultag@gmail.com> 2020-2021
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

package cb

import (
	"fmt"

	"github.com/dkopko/cb/offset"
)

// growTo ensures the ring can hold at least minSize live bytes, resizing
// out-of-place if necessary.
func (c *CB) growTo(minSize offset.T) error {
	target := offset.NextPowerOfTwo(minSize)
	if target < offset.NextPowerOfTwo(c.pageSize) {
		target = offset.NextPowerOfTwo(c.pageSize)
	}
	if target == c.ringSize {
		return nil
	}
	return c.resizeTo(target)
}

// resizeTo allocates a new backing mapping of newRingSize, copies the live
// range across preserving cyclic offsets, and swaps it into c in place.
// The prior generation's fields are preserved, still mapped and reachable,
// behind c.link for optional history traversal; it is not owned by the new
// generation and is never torn down automatically.
func (c *CB) resizeTo(newRingSize offset.T) error {
	if !offset.IsPowerOfTwo(newRingSize) {
		return fmt.Errorf("cb: resize: %w: size not a power of two", errBadParam)
	}
	if newRingSize < c.DataSize() {
		return fmt.Errorf("cb: resize: %w: new size smaller than live data", errBadParam)
	}

	if c.params.OnPreresize != nil {
		c.params.OnPreresize(c)
	}

	newParams := c.params
	newParams.RingSize = uint64(newRingSize)
	newParams.LoopSize = uint64(c.loopSize)

	nc, err := Create(newParams)
	if err != nil {
		return fmt.Errorf("cb: resize: %w", err)
	}
	nc.dataStart = c.dataStart
	nc.cursor = c.cursor

	if c.DataSize() > 0 {
		if err := Memcpy(nc, c.dataStart, c, c.dataStart, int(c.DataSize())); err != nil {
			nc.Destroy()
			return fmt.Errorf("cb: resize: copy: %w", err)
		}
	}

	old := new(CB)
	*old = *c
	nc.link = old

	onResize := c.params.OnResize
	*c = *nc
	if onResize != nil {
		onResize(old, c)
	}
	return nil
}

// Grow resizes c so its ring can hold at least minSize bytes, selecting the
// smallest power of two large enough.
func Grow(c *CB, minSize offset.T) error {
	return c.growTo(minSize)
}

// Shrink resizes c down to the smallest power of two >= minSize (and >= one
// page), refusing to shrink below the current live data size.
func Shrink(c *CB, minSize offset.T) error {
	target := offset.NextPowerOfTwo(minSize)
	if target < offset.NextPowerOfTwo(c.pageSize) {
		target = offset.NextPowerOfTwo(c.pageSize)
	}
	if target >= c.ringSize {
		return nil
	}
	if target < c.DataSize() {
		return fmt.Errorf("cb: shrink: %w: below live data size", errBadParam)
	}
	return c.resizeTo(target)
}

// ShrinkAuto shrinks c to the smallest power of two that fits its current
// live data.
func ShrinkAuto(c *CB) error {
	return Shrink(c, c.DataSize())
}

// vim: foldmethod=marker
