package offset

import "testing"

func TestCmpAndLTE(t *testing.T) {
	cases := []struct {
		a, b T
		want int
	}{
		{0, 0, 0},
		{0, 1, -1},
		{1, 0, 1},
		{100, 200, -1},
		{200, 100, 1},
	}
	for _, c := range cases {
		if got := Cmp(c.a, c.b); got != c.want {
			t.Errorf("Cmp(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestLTEWraparound(t *testing.T) {
	// Near the top of the space, b can wrap back around to a small value
	// and still be considered "after" a in cyclic order.
	a := ^T(0) - 9 // close to the max T value
	b := T(5)
	if !LTE(a, b) {
		t.Errorf("expected LTE(%d, %d) to hold under wraparound", a, b)
	}
	if LTE(b, a) {
		t.Errorf("expected LTE(%d, %d) to not hold", b, a)
	}
}

func TestLT(t *testing.T) {
	if LT(5, 5) {
		t.Error("LT(5,5) should be false")
	}
	if !LT(5, 6) {
		t.Error("LT(5,6) should be true")
	}
}

func TestMask(t *testing.T) {
	if got := Mask(10, 8); got != 2 {
		t.Errorf("Mask(10,8) = %d, want 2", got)
	}
	if got := Mask(7, 8); got != 7 {
		t.Errorf("Mask(7,8) = %d, want 7", got)
	}
	if got := Mask(8, 8); got != 0 {
		t.Errorf("Mask(8,8) = %d, want 0", got)
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []T{1, 2, 4, 1024, 1 << 20} {
		if !IsPowerOfTwo(n) {
			t.Errorf("IsPowerOfTwo(%d) should be true", n)
		}
	}
	for _, n := range []T{0, 3, 5, 100, 1023} {
		if IsPowerOfTwo(n) {
			t.Errorf("IsPowerOfTwo(%d) should be false", n)
		}
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := []struct{ in, want T }{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{5, 8},
		{1023, 1024},
		{1024, 1024},
	}
	for _, c := range cases {
		if got := NextPowerOfTwo(c.in); got != c.want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestAlignUpDown(t *testing.T) {
	if got := AlignUp(5, 8); got != 8 {
		t.Errorf("AlignUp(5,8) = %d, want 8", got)
	}
	if got := AlignUp(8, 8); got != 8 {
		t.Errorf("AlignUp(8,8) = %d, want 8", got)
	}
	if got := AlignDown(13, 8); got != 8 {
		t.Errorf("AlignDown(13,8) = %d, want 8", got)
	}
	if got := AlignDown(8, 8); got != 8 {
		t.Errorf("AlignDown(8,8) = %d, want 8", got)
	}
}

func TestAlignedLT(t *testing.T) {
	if got := AlignedLT(16, 8); got != 8 {
		t.Errorf("AlignedLT(16,8) = %d, want 8", got)
	}
	if got := AlignedLT(17, 8); got != 16 {
		t.Errorf("AlignedLT(17,8) = %d, want 16", got)
	}
}
