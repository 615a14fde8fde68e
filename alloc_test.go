package cb

import (
	"bytes"
	"testing"

	"github.com/dkopko/cb/offset"
)

func mustCreate(t *testing.T, ringSize, loopSize uint64) *CB {
	t.Helper()
	c, err := Create(Params{RingSize: ringSize, LoopSize: loopSize})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { c.Destroy() })
	return c
}

func TestAppendAndAt(t *testing.T) {
	c := mustCreate(t, 4096, 0)

	data := []byte("hello, continuous buffer")
	o, err := c.Append(data)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if o != 0 {
		t.Fatalf("first append offset = %d, want 0", o)
	}

	got, err := c.At(o, len(data))
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("At returned %q, want %q", got, data)
	}
}

func TestMemalignPadding(t *testing.T) {
	c := mustCreate(t, 4096, 0)

	if _, err := c.Append([]byte{1}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if c.Cursor() != 1 {
		t.Fatalf("cursor = %d, want 1", c.Cursor())
	}

	o, err := c.Memalign(8, 8)
	if err != nil {
		t.Fatalf("Memalign: %v", err)
	}
	if o != 8 {
		t.Fatalf("Memalign offset = %d, want 8", o)
	}
	if c.StatWastage() != 7 {
		t.Fatalf("stat_wastage = %d, want 7", c.StatWastage())
	}
	if c.Cursor() != 16 {
		t.Fatalf("cursor = %d, want 16", c.Cursor())
	}
}

func TestMemalignRejectsNonPowerOfTwo(t *testing.T) {
	c := mustCreate(t, 4096, 0)
	if _, err := c.Memalign(3, 8); err == nil {
		t.Fatal("expected error for non-power-of-two alignment")
	}
}

// TestMagicRingWraparound exercises a write that starts near the physical
// end of the ring and must proceed into the loop-aliased region to stay
// contiguous.
func TestMagicRingWraparound(t *testing.T) {
	c := mustCreate(t, 4096, 4096)

	first := bytes.Repeat([]byte{0xAA}, 4000)
	if _, err := c.Append(first); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := c.AdvanceDataStart(4000); err != nil {
		t.Fatalf("AdvanceDataStart: %v", err)
	}

	second := make([]byte, 200)
	for i := range second {
		second[i] = byte(i)
	}
	o, err := c.Append(second)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if o != 4000 {
		t.Fatalf("second append offset = %d, want 4000", o)
	}

	got, err := c.At(o, len(second))
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if !bytes.Equal(got, second) {
		t.Fatalf("At returned data crossing the ring boundary incorrectly")
	}
}

func TestRewindTo(t *testing.T) {
	c := mustCreate(t, 4096, 0)

	if _, err := c.Append([]byte("aaaa")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	mark := c.Cursor()
	if _, err := c.Append([]byte("bbbb")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := c.RewindTo(mark); err != nil {
		t.Fatalf("RewindTo: %v", err)
	}
	if c.Cursor() != mark {
		t.Fatalf("cursor = %d, want %d", c.Cursor(), mark)
	}
}

func TestRewindToRejectsOutOfRange(t *testing.T) {
	c := mustCreate(t, 4096, 0)
	if err := c.RewindTo(c.Cursor() + 1); err == nil {
		t.Fatal("expected error rewinding past cursor")
	}
}

func TestMemcpyInOutRoundTrip(t *testing.T) {
	c := mustCreate(t, 4096, 4096)

	o, err := c.Memalign(8, 64)
	if err != nil {
		t.Fatalf("Memalign: %v", err)
	}
	want := bytes.Repeat([]byte{0x5A}, 64)
	if err := c.MemcpyIn(o, want); err != nil {
		t.Fatalf("MemcpyIn: %v", err)
	}
	got := make([]byte, 64)
	if err := c.MemcpyOut(got, o); err != nil {
		t.Fatalf("MemcpyOut: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatal("MemcpyOut did not round-trip MemcpyIn's data")
	}
}

// TestContiguousRangeFitsWithinLoopAliasRegardlessOfCursor demonstrates the
// magic ring's defining guarantee: any length <= loop_size is satisfiable
// at the cursor as-is, even with only a few bytes of room before the
// ring's physical end, because the loop alias covers the rest.
func TestContiguousRangeFitsWithinLoopAliasRegardlessOfCursor(t *testing.T) {
	c := mustCreate(t, 4096, 4096)

	if _, err := c.Append(bytes.Repeat([]byte{0}, 4088)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := c.AdvanceDataStart(4088); err != nil {
		t.Fatalf("AdvanceDataStart: %v", err)
	}
	if c.Cursor() != 4088 {
		t.Fatalf("cursor = %d, want 4088", c.Cursor())
	}

	before := c.StatWastage()
	o, err := c.ContiguousRange(64)
	if err != nil {
		t.Fatalf("ContiguousRange: %v", err)
	}
	if o != 4088 {
		t.Fatalf("ContiguousRange returned %d, want 4088 (no skip needed within loop_size)", o)
	}
	if c.StatWastage() != before {
		t.Fatalf("stat_wastage changed by %d, want 0", c.StatWastage()-before)
	}
}

// TestContiguousRangeSkipsToNextLapAboveLoopSize exercises the one case
// where a skip is actually required: a request larger than loop_size (so
// the alias can't extend far enough) that doesn't fit in what remains of
// the ring's current lap.
func TestContiguousRangeSkipsToNextLapAboveLoopSize(t *testing.T) {
	c := mustCreate(t, 16384, 4096)

	if _, err := c.Append(bytes.Repeat([]byte{0}, 12288)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := c.AdvanceDataStart(12288); err != nil {
		t.Fatalf("AdvanceDataStart: %v", err)
	}
	if c.Cursor() != 12288 {
		t.Fatalf("cursor = %d, want 12288", c.Cursor())
	}

	before := c.StatWastage()
	o, err := c.ContiguousRange(5000)
	if err != nil {
		t.Fatalf("ContiguousRange: %v", err)
	}
	if o != 16384 {
		t.Fatalf("ContiguousRange returned %d, want 16384 (skipping to the next lap)", o)
	}
	if c.StatWastage()-before != 4096 {
		t.Fatalf("stat_wastage increased by %d, want 4096", c.StatWastage()-before)
	}
}

func TestContiguousRangeRejectsOversizeRequest(t *testing.T) {
	c := mustCreate(t, 4096, 4096)
	if _, err := c.ContiguousRange(4096 + 1); err == nil {
		t.Fatal("expected error for a length exceeding ring_size")
	}
}

func TestMemalignContiguousRoundTripsThroughAt(t *testing.T) {
	c := mustCreate(t, 4096, 4096)

	if _, err := c.Append(bytes.Repeat([]byte{0}, 4090)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := c.AdvanceDataStart(4090); err != nil {
		t.Fatalf("AdvanceDataStart: %v", err)
	}

	o, err := c.MemalignContiguous(8, 32)
	if err != nil {
		t.Fatalf("MemalignContiguous: %v", err)
	}
	if offset.Mask(o, 8) != 0 {
		t.Fatalf("offset %d is not 8-byte aligned", o)
	}

	want := bytes.Repeat([]byte{0x99}, 32)
	b, err := c.At(o, 32)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	copy(b, want)

	got, err := c.At(o, 32)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatal("data written through MemalignContiguous's offset did not read back correctly across the ring boundary")
	}
}

func TestCrossBufferMemcpy(t *testing.T) {
	src := mustCreate(t, 4096, 4096)
	dst := mustCreate(t, 8192, 4096)

	data := bytes.Repeat([]byte{0x7}, 128)
	so, err := src.Append(data)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	do, err := dst.Memalign(8, offset.T(len(data)))
	if err != nil {
		t.Fatalf("Memalign: %v", err)
	}
	if err := Memcpy(dst, do, src, so, len(data)); err != nil {
		t.Fatalf("Memcpy: %v", err)
	}
	got, err := dst.At(do, len(data))
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("cross-buffer Memcpy produced wrong bytes")
	}
}
