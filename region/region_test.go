package region

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dkopko/cb"
)

func mustCreateCB(t *testing.T) *cb.CB {
	t.Helper()
	c, err := cb.Create(cb.Params{RingSize: 1 << 20})
	if err != nil {
		t.Fatalf("cb.Create: %v", err)
	}
	t.Cleanup(func() { c.Destroy() })
	return c
}

func TestCreateAndMemalign(t *testing.T) {
	c := mustCreateCB(t)
	r, err := Create(c, 8, 256, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Start() == r.End() {
		t.Fatal("region has zero size")
	}

	o1, err := r.Memalign(8, 16)
	if err != nil {
		t.Fatalf("Memalign: %v", err)
	}
	o2, err := r.Memalign(8, 16)
	if err != nil {
		t.Fatalf("Memalign: %v", err)
	}
	if o1 == o2 {
		t.Fatal("two allocations returned the same offset")
	}
	if o2 < o1 {
		t.Fatal("forward region should allocate upward")
	}
}

func TestReversedGrowsDownward(t *testing.T) {
	c := mustCreateCB(t)
	r, err := Create(c, 8, 256, Reversed)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	o1, err := r.Memalign(8, 16)
	if err != nil {
		t.Fatalf("Memalign: %v", err)
	}
	o2, err := r.Memalign(8, 16)
	if err != nil {
		t.Fatalf("Memalign: %v", err)
	}
	if o2 >= o1 {
		t.Fatal("reversed region should allocate downward")
	}
}

func TestFinalRegionDepletes(t *testing.T) {
	c := mustCreateCB(t)
	r, err := Create(c, 8, 32, Final)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := r.Memalign(8, 16); err != nil {
		t.Fatalf("Memalign: %v", err)
	}
	if _, err := r.Memalign(8, 16); err != nil {
		t.Fatalf("Memalign: %v", err)
	}
	_, err = r.Memalign(8, 16)
	if !errors.Is(err, cb.ErrDepleted) {
		t.Fatalf("expected ErrDepleted, got %v", err)
	}
}

func TestNonFinalRefillsOnDepletion(t *testing.T) {
	c := mustCreateCB(t)
	r, err := Create(c, 8, 16, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := r.Memalign(8, 16); err != nil {
		t.Fatalf("Memalign: %v", err)
	}
	// The region is now depleted; a non-Final region should refill from c
	// and satisfy the next request rather than erroring.
	if _, err := r.Memalign(8, 16); err != nil {
		t.Fatalf("Memalign after depletion: %v", err)
	}
}

func TestDeriveCarvesFromParent(t *testing.T) {
	c := mustCreateCB(t)
	parent, err := Create(c, 8, 512, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	child, err := Derive(parent, 8, 64, 0)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if child.Start() < parent.Start() || child.End() > parent.End()+512 {
		t.Fatal("child region offsets look unrelated to its parent")
	}

	o, err := child.Memalign(8, 32)
	if err != nil {
		t.Fatalf("Memalign: %v", err)
	}
	data := bytes.Repeat([]byte{9}, 32)
	if err := c.MemcpyIn(o, data); err != nil {
		t.Fatalf("MemcpyIn: %v", err)
	}
	got, err := c.At(o, 32)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("data written through a derived region's offset did not round-trip")
	}
}
