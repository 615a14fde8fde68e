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
	"os"

	"golang.org/x/sys/unix"

	"github.com/dkopko/cb/offset"
)

// Status names the result codes of the error taxonomy. The package's
// operations do not return a Status: they report FAILURE, BADPARAM and
// DEPLETED as the sentinel errors ErrFailure, ErrBadParam and ErrDepleted
// (see errors.go), and SUCCESS as a nil error.
type Status int

const (
	SUCCESS Status = iota
	FAILURE
	BADPARAM
	DEPLETED
)

func (s Status) String() string {
	switch s {
	case SUCCESS:
		return "success"
	case FAILURE:
		return "failure"
	case BADPARAM:
		return "bad parameter"
	case DEPLETED:
		return "depleted"
	default:
		return "unknown status"
	}
}

// Flags control optional behavior of a CB's backing mapping.
type Flags int

const (
	// LeaveFiles keeps the backing file on disk after Destroy.
	LeaveFiles Flags = 1 << iota
	// Prefault populates the mapping's pages at creation time.
	Prefault
	// Mlock locks the mapping's pages into physical memory.
	Mlock
)

// Params configures Create. Only RingSize is required; everything else has
// a sensible default.
type Params struct {
	// RingSize is the desired ring size in bytes; it is rounded up to a
	// power of two no smaller than the platform page size.
	RingSize uint64

	// LoopSize is the size, in bytes, of the window re-mapped past the
	// ring's tail. It is rounded up to a multiple of the page size.
	// Default: one page.
	LoopSize uint64

	// Index is the instance id embedded in the backing filename.
	Index uint64

	// Flags holds the optional behavior bits above.
	Flags Flags

	// FileBacked selects a named, persistent backing file under
	// FilenamePrefix instead of an anonymous mapping.
	FileBacked bool

	// FilenamePrefix names the backing file when FileBacked is set.
	FilenamePrefix string

	// OnResize and OnPreresize, when set, are invoked around a resize:
	// OnPreresize before the copy begins, OnResize after the new CB is
	// live. The old generation is not torn down; it stays reachable
	// through Link.
	OnPreresize func(old *CB)
	OnResize    func(old, new *CB)
}

// CB is a continuous buffer: a power-of-two-sized ring whose first loopSize
// bytes are aliased immediately past the ring's end. CB carries no internal
// locking: a single mutator owns a handle at a time, and
// readers must not run concurrently with a mutator that might resize it.
type CB struct {
	params Params

	file       *os.File
	ownsFile   bool
	fileBacked bool

	pageSize   offset.T
	headerSize offset.T
	ringSize   offset.T
	loopSize   offset.T

	base offset.T // base virtual address of the full reservation
	buf  []byte   // view of [headerSize, headerSize+ringSize+loopSize)

	dataStart offset.T
	cursor    offset.T

	link *CB // previous CB, kept only for optional history traversal

	statWastage uint64
}

const maxMapRetries = 4

// Create reserves and maps a new continuous buffer per params.
func Create(params Params) (*CB, error) {
	pageSize := offset.T(unix.Getpagesize())

	ringSize := offset.NextPowerOfTwo(offset.T(params.RingSize))
	if ringSize < pageSize {
		ringSize = offset.NextPowerOfTwo(pageSize)
	}

	loopSize := offset.T(params.LoopSize)
	if loopSize == 0 {
		loopSize = pageSize
	}
	loopSize = offset.AlignUp(loopSize, pageSize)
	if loopSize > ringSize {
		return nil, fmt.Errorf("cb: create: %w: loop_size > ring_size", errBadParam)
	}

	headerSize := pageSize

	c := &CB{
		params:     params,
		pageSize:   pageSize,
		headerSize: headerSize,
		ringSize:   ringSize,
		loopSize:   loopSize,
		fileBacked: params.FileBacked,
	}

	fd, file, ownsFile, err := openBacking(params, headerSize, ringSize)
	if err != nil {
		return nil, fmt.Errorf("cb: create: %w: %w", errFailure, err)
	}
	c.file = file
	c.ownsFile = ownsFile

	total := headerSize + ringSize + loopSize

	mapFlags := unix.MAP_FIXED | unix.MAP_SHARED
	if params.Flags&Prefault != 0 {
		mapFlags |= unix.MAP_POPULATE
	}

	var lastErr error
	for attempt := 0; attempt < maxMapRetries; attempt++ {
		base, err := mmapReserve(total)
		if err != nil {
			lastErr = err
			continue
		}

		if _, err := mmapFixed(base, headerSize+ringSize,
			unix.PROT_READ|unix.PROT_WRITE,
			mapFlags, fd, 0); err != nil {
			munmapAt(base, total)
			lastErr = err
			continue
		}

		loopBase := base + headerSize + ringSize
		if _, err := mmapFixed(loopBase, loopSize,
			unix.PROT_READ|unix.PROT_WRITE,
			mapFlags, fd, int64(headerSize)); err != nil {
			munmapAt(base, total)
			lastErr = err
			continue
		}

		c.base = base
		c.buf = asByteSlice(base+headerSize, int(ringSize+loopSize))
		lastErr = nil
		break
	}
	if lastErr != nil {
		if ownsFile {
			file.Close()
		}
		return nil, fmt.Errorf("cb: create: %w: %w", errFailure, lastErr)
	}

	if params.Flags&Mlock != 0 {
		if err := unix.Mlock(c.buf); err != nil {
			munmapAt(c.base, total)
			if ownsFile {
				file.Close()
			}
			return nil, fmt.Errorf("cb: create: mlock: %w: %w", errFailure, err)
		}
	}

	return c, nil
}

func openBacking(params Params, headerSize, ringSize offset.T) (fd int, file *os.File, ownsFile bool, err error) {
	size := int64(headerSize + ringSize)

	if !params.FileBacked {
		memfd, err := unix.MemfdCreate(fmt.Sprintf("cb-%d", params.Index), 0)
		if err != nil {
			return -1, nil, false, fmt.Errorf("cb: memfd_create: %w", err)
		}
		if err := unix.Ftruncate(memfd, size); err != nil {
			unix.Close(memfd)
			return -1, nil, false, fmt.Errorf("cb: ftruncate: %w", err)
		}
		f := os.NewFile(uintptr(memfd), fmt.Sprintf("cb-%d", params.Index))
		return memfd, f, true, nil
	}

	name := filename(params, ringSize)
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return -1, nil, false, fmt.Errorf("cb: open %s: %w", name, err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return -1, nil, false, fmt.Errorf("cb: truncate: %w", err)
	}
	return int(f.Fd()), f, true, nil
}

// filename computes the on-disk name for a file-backed CB:
// <prefix>[-]<index>-<log2(ring_size)>.
func filename(params Params, ringSize offset.T) string {
	log2 := 0
	for sz := ringSize; sz > 1; sz >>= 1 {
		log2++
	}
	sep := ""
	if params.FilenamePrefix != "" {
		last := params.FilenamePrefix[len(params.FilenamePrefix)-1]
		if last != '-' && last != '/' {
			sep = "-"
		}
	}
	return fmt.Sprintf("%s%s%d-%d", params.FilenamePrefix, sep, params.Index, log2)
}

// Destroy unmaps the buffer and, unless LeaveFiles is set, removes any
// backing file.
func (c *CB) Destroy() error {
	total := c.headerSize + c.ringSize + c.loopSize
	if err := munmapAt(c.base, total); err != nil {
		return err
	}

	name := c.file.Name()
	if c.ownsFile {
		c.file.Close()
	}
	if c.fileBacked && c.params.Flags&LeaveFiles == 0 {
		os.Remove(name)
	}
	return nil
}

// RingSize returns the ring's power-of-two size in bytes.
func (c *CB) RingSize() offset.T { return c.ringSize }

// LoopSize returns the size of the wrap-alias window in bytes.
func (c *CB) LoopSize() offset.T { return c.loopSize }

// DataSize returns the number of live bytes currently held.
func (c *CB) DataSize() offset.T { return c.cursor - c.dataStart }

// Cursor returns the current append cursor.
func (c *CB) Cursor() offset.T { return c.cursor }

// DataStart returns the start-of-live-data offset.
func (c *CB) DataStart() offset.T { return c.dataStart }

// RewindTo resets the cursor to a previously observed value, discarding any
// data appended since. It is the caller's responsibility to ensure no live
// references point past the new cursor.
func (c *CB) RewindTo(o offset.T) error {
	if !offset.LTE(c.dataStart, o) || !offset.LTE(o, c.cursor) {
		return fmt.Errorf("cb: rewind_to: %w", errBadParam)
	}
	c.cursor = o
	return nil
}

// AdvanceDataStart moves data_start forward to o, reclaiming the bytes
// before it as free space. Callers are responsible for ensuring nothing
// still reachable from a live root addresses bytes below o.
func (c *CB) AdvanceDataStart(o offset.T) error {
	if !offset.LTE(c.dataStart, o) || !offset.LTE(o, c.cursor) {
		return fmt.Errorf("cb: advance_data_start: %w", errBadParam)
	}
	c.dataStart = o
	return nil
}

// vim: foldmethod=marker
