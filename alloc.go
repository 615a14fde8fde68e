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

// UNSAFE
//
// freeBytes returns how many bytes remain before the cursor would catch up
// with data_start plus a full ring.
func (c *CB) freeBytes() offset.T {
	return c.ringSize - c.DataSize()
}

// ensureFree grows the buffer, if needed, so that n more bytes can be
// appended without the cursor lapping data_start.
func (c *CB) ensureFree(n offset.T) error {
	if c.freeBytes() >= n {
		return nil
	}
	need := c.DataSize() + n
	return c.growTo(need)
}

// physical returns the byte index into c.buf (which starts at the ring's
// physical start, i.e. index 0 of buf corresponds to cyclic offset 0 of this
// ring generation) for a cyclic offset o.
func (c *CB) physical(o offset.T) int {
	return int(offset.Mask(o, c.ringSize))
}

// Append ensures len(data) bytes are free, writes them at the cursor using
// the magic-ring contiguous path, and advances the cursor. It returns the
// offset the data was written at.
func (c *CB) Append(data []byte) (offset.T, error) {
	if err := c.ensureFree(offset.T(len(data))); err != nil {
		return 0, err
	}
	o := c.cursor
	if err := c.MemcpyIn(o, data); err != nil {
		return 0, err
	}
	c.cursor += offset.T(len(data))
	return o, nil
}

// Memalign advances the cursor to the next offset >= cursor that is a
// multiple of alignment, ensures size bytes are reachable from there, and
// advances the cursor by size. Padding bytes are recorded in stat_wastage.
// It returns the aligned offset.
func (c *CB) Memalign(alignment, size offset.T) (offset.T, error) {
	if !offset.IsPowerOfTwo(alignment) {
		return 0, fmt.Errorf("cb: memalign: %w: alignment not a power of two", errBadParam)
	}
	aligned := offset.AlignedGTE(c.cursor, alignment)
	padding := aligned - c.cursor
	if err := c.ensureFree(padding + size); err != nil {
		return 0, err
	}
	c.cursor += padding
	c.statWastage += uint64(padding)
	o := c.cursor
	c.cursor += size
	return o, nil
}

// directRun returns the number of bytes writable as a single contiguous
// memcpy starting at o without using the loop alias, i.e. the distance from
// o to the ring's physical end.
func (c *CB) directRun(o offset.T) offset.T {
	return c.ringSize - offset.T(c.physical(o))
}

// ContiguousRange returns the offset at which a contiguous span of length L
// can begin at or after the cursor: either the cursor itself, or the start
// of the ring's next lap, wasting whatever remained of the current one.
// This is the only place the cursor is permitted to skip bytes outside of
// alignment padding.
//
// Any L <= loop_size is always satisfiable at the cursor as-is: the loop
// alias guarantees at least loop_size contiguous bytes from any physical
// position (see doc.go). A skip is only ever needed for L above loop_size,
// which the alias cannot extend far enough to cover; this method accepts
// such L up to ring_size by laying the span down at the start of the next
// lap instead.
func (c *CB) ContiguousRange(length offset.T) (offset.T, error) {
	if length > c.ringSize {
		return 0, fmt.Errorf("cb: contiguous_range: %w: length exceeds ring_size", errBadParam)
	}
	if length <= c.loopSize {
		if err := c.ensureFree(length); err != nil {
			return 0, err
		}
		return c.cursor, nil
	}
	if c.directRun(c.cursor) >= length {
		if err := c.ensureFree(length); err != nil {
			return 0, err
		}
		return c.cursor, nil
	}
	skip := c.directRun(c.cursor)
	if err := c.ensureFree(skip + length); err != nil {
		return 0, err
	}
	c.statWastage += uint64(skip)
	c.cursor += skip
	return c.cursor, nil
}

// MemalignContiguous is Memalign for callers that will hand the returned
// offset straight to At rather than MemcpyIn/MemcpyOut: it aligns the
// cursor exactly as Memalign does, then uses ContiguousRange instead of a
// plain ensureFree to pick the start offset, so the reserved span is
// always a single contiguous run (skipping the remainder of the current
// one if needed) rather than merely having enough bytes free somewhere
// across the wrap. size must not exceed ring_size.
func (c *CB) MemalignContiguous(alignment, size offset.T) (offset.T, error) {
	if !offset.IsPowerOfTwo(alignment) {
		return 0, fmt.Errorf("cb: memalign_contiguous: %w: alignment not a power of two", errBadParam)
	}
	aligned := offset.AlignedGTE(c.cursor, alignment)
	padding := aligned - c.cursor
	if err := c.ensureFree(padding); err != nil {
		return 0, err
	}
	c.cursor += padding
	c.statWastage += uint64(padding)

	o, err := c.ContiguousRange(size)
	if err != nil {
		return 0, err
	}
	c.cursor = o + size
	return o, nil
}

// At returns a slice view of size bytes starting at offset o, directly
// aliasing the ring's backing memory: no copy is made. The slice is valid
// only until the next call that may grow or shrink c; callers must not
// retain it across such a call.
func (c *CB) At(o offset.T, size int) ([]byte, error) {
	if size < 0 || offset.T(size) > c.loopSize {
		return nil, fmt.Errorf("cb: at: %w: size exceeds loop_size", errBadParam)
	}
	if !c.inLiveRange(o, offset.T(size)) {
		return nil, fmt.Errorf("cb: at: %w: offset out of live range", errBadParam)
	}
	p := c.physical(o)
	return c.buf[p : p+size], nil
}

// inLiveRange reports whether [o, o+size) lies within [data_start, cursor].
func (c *CB) inLiveRange(o, size offset.T) bool {
	return offset.LTE(c.dataStart, o) && offset.LTE(o+size, c.cursor)
}

// MemcpyIn copies data into the ring at offset o, taking the single-memcpy
// path when len(data) < loop_size and otherwise splitting at the ring's
// physical end.
func (c *CB) MemcpyIn(o offset.T, data []byte) error {
	return c.copyRing(o, data, true)
}

// MemcpyOut copies len(dst) bytes out of the ring starting at offset o into
// dst, using the same short/split path as MemcpyIn.
func (c *CB) MemcpyOut(dst []byte, o offset.T) error {
	return c.copyRing(o, dst, false)
}

// copyRing implements the shared short/split copy primitive: in copies
// buf[p:] from data when in is true, buf[p:] into data otherwise.
func (c *CB) copyRing(o offset.T, data []byte, in bool) error {
	n := offset.T(len(data))
	if n == 0 {
		return nil
	}
	if n >= c.loopSize {
		return c.copyRingSplit(o, data, in)
	}
	p := c.physical(o)
	if in {
		copy(c.buf[p:], data)
	} else {
		copy(data, c.buf[p:p+int(n)])
	}
	return nil
}

// copyRingSplit handles copies of at least loop_size bytes by splitting at the
// ring's physical end into at most two contiguous segments.
func (c *CB) copyRingSplit(o offset.T, data []byte, in bool) error {
	n := offset.T(len(data))
	p := offset.T(c.physical(o))
	firstLen := c.ringSize - p
	if firstLen > n {
		firstLen = n
	}
	if in {
		copy(c.buf[p:], data[:firstLen])
		if firstLen < n {
			copy(c.buf[0:], data[firstLen:])
		}
	} else {
		copy(data[:firstLen], c.buf[p:p+firstLen])
		if firstLen < n {
			copy(data[firstLen:], c.buf[0:int(n-firstLen)])
		}
	}
	return nil
}

// Memcpy copies n bytes from src at srcOff into dst at dstOff, across two
// (possibly different-sized) continuous buffers. Both sides may need to
// wrap independently, so the copy proceeds in contiguous chunks bounded by
// whichever side's ring end comes first; this naturally resolves to at most
// three segments when ring sizes are powers of two; more for contrived
// relative sizes, always terminating since each chunk makes strictly
// positive progress.
func Memcpy(dst *CB, dstOff offset.T, src *CB, srcOff offset.T, n int) error {
	remaining := offset.T(n)
	for remaining > 0 {
		dstRun := dst.ringSize - offset.T(dst.physical(dstOff))
		srcRun := src.ringSize - offset.T(src.physical(srcOff))
		chunk := remaining
		if dstRun < chunk {
			chunk = dstRun
		}
		if srcRun < chunk {
			chunk = srcRun
		}
		sp := src.physical(srcOff)
		dp := dst.physical(dstOff)
		copy(dst.buf[dp:dp+int(chunk)], src.buf[sp:sp+int(chunk)])
		dstOff += chunk
		srcOff += chunk
		remaining -= chunk
	}
	return nil
}

// vim: foldmethod=marker
