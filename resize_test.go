package cb

import (
	"bytes"
	"testing"

	"github.com/dkopko/cb/offset"
)

func TestGrowPreservesLiveData(t *testing.T) {
	c := mustCreate(t, 4096, 0)

	type rec struct {
		off  offset.T
		data []byte
	}
	var recs []rec
	for i := 0; i < 20; i++ {
		d := bytes.Repeat([]byte{byte(i + 1)}, 100)
		o, err := c.Append(d)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		recs = append(recs, rec{o, d})
	}

	if err := Grow(c, 1<<20); err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if c.RingSize() < (1 << 20) {
		t.Fatalf("ring_size = %d, want >= %d", c.RingSize(), 1<<20)
	}
	if c.Link() == nil {
		t.Fatal("expected Link() to return the prior generation after a resize")
	}

	for _, r := range recs {
		got, err := c.At(r.off, len(r.data))
		if err != nil {
			t.Fatalf("At(%d): %v", r.off, err)
		}
		if !bytes.Equal(got, r.data) {
			t.Fatalf("At(%d) = %v, want %v", r.off, got, r.data)
		}
	}
}

func TestShrinkAutoPreservesLiveData(t *testing.T) {
	c := mustCreate(t, 1<<20, 0)

	d := bytes.Repeat([]byte{0x42}, 256)
	o, err := c.Append(d)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := ShrinkAuto(c); err != nil {
		t.Fatalf("ShrinkAuto: %v", err)
	}
	if c.RingSize() >= (1 << 20) {
		t.Fatalf("ring_size = %d, expected it to have shrunk", c.RingSize())
	}

	got, err := c.At(o, len(d))
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if !bytes.Equal(got, d) {
		t.Fatal("ShrinkAuto lost live data")
	}
}

func TestShrinkRefusesBelowLiveData(t *testing.T) {
	c := mustCreate(t, 1<<20, 0)
	if _, err := c.Append(bytes.Repeat([]byte{1}, 5000)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := Shrink(c, 1); err == nil {
		t.Fatal("expected Shrink to refuse a target smaller than live data")
	}
}
