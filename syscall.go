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
	"unsafe"

	"golang.org/x/sys/unix"
)

// mmapFixed maps length bytes of fd (or anonymous memory, when fd < 0) at
// file offset foff, placing the mapping at the exact virtual address addr.
// Unlike unix.Mmap (which never takes an address hint), this goes straight
// to the syscall so the ring's two aliasing sub-maps can be placed inside a
// single reserved region, the same trick the teacher's diskring relies on.
func mmapFixed(addr, length uintptr, prot, flags, fd int, foff int64) (uintptr, error) {
	r0, _, errno := unix.Syscall6(unix.SYS_MMAP, addr, length,
		uintptr(prot), uintptr(flags), uintptr(fd), uintptr(foff))
	if errno != 0 {
		return 0, fmt.Errorf("cb: mmap: %w", errno)
	}
	return r0, nil
}

// mmapReserve reserves length bytes of unbacked address space, with no
// access, to be subdivided by later fixed mappings.
func mmapReserve(length uintptr) (uintptr, error) {
	return mmapFixed(0, length, unix.PROT_NONE,
		unix.MAP_ANON|unix.MAP_PRIVATE, -1, 0)
}

// munmapAt unmaps length bytes starting at addr.
func munmapAt(addr, length uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, addr, length, 0)
	if errno != 0 {
		return fmt.Errorf("cb: munmap: %w", errno)
	}
	return nil
}

// asByteSlice turns a raw mapped address into a Go byte slice of the given
// size. This is the same trick the teacher's diskring uses to get at mmap'd
// memory without incurring a copy; the returned slice is only valid for as
// long as the underlying mapping is alive, and must be re-derived after any
// call that may move the mapping (resize).
func asByteSlice(base uintptr, size int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(base)), size)
}

// vim: foldmethod=marker
