package geometry

import "testing"

func TestLocateConcreteScenarios(t *testing.T) {
	const n = 3
	const b = 4

	cases := []struct {
		l      uint64
		stripe uint64
		parity int
		data   int
	}{
		{0, 0, 0, 1},
		{1, 0, 0, 2},
		{2, 1, 1, 0},
	}

	for _, c := range cases {
		p := Locate(n, b, c.l*b)
		if p.Stripe != c.stripe || p.Parity != c.parity || p.Data != c.data {
			t.Errorf("Locate(L=%d) = %+v, want stripe=%d parity=%d data=%d", c.l, p, c.stripe, c.parity, c.data)
		}
		if p.PhysOff != c.stripe*b {
			t.Errorf("Locate(L=%d).PhysOff = %d, want %d", c.l, p.PhysOff, c.stripe*b)
		}
	}
}

func TestLocateMappingLaws(t *testing.T) {
	for n := 3; n <= 16; n++ {
		for b := uint64(1); b <= 3; b++ {
			for l := uint64(0); l < uint64(n-1)*5; l++ {
				p := Locate(n, b, l*b)

				dataPerStripe := uint64(n - 1)
				wantStripe := l / dataPerStripe
				wantPos := int(l % dataPerStripe)

				if p.Stripe != wantStripe {
					t.Fatalf("n=%d b=%d L=%d: stripe=%d want %d", n, b, l, p.Stripe, wantStripe)
				}
				if p.Parity < 0 || p.Parity >= n {
					t.Fatalf("n=%d b=%d L=%d: parity %d out of range", n, b, l, p.Parity)
				}
				if p.Data < 0 || p.Data >= n || p.Data == p.Parity {
					t.Fatalf("n=%d b=%d L=%d: data %d invalid (parity %d)", n, b, l, p.Data, p.Parity)
				}
				if wantPos < p.Parity && p.Data != wantPos {
					t.Fatalf("n=%d b=%d L=%d: pos %d < parity %d, data=%d want %d", n, b, l, wantPos, p.Parity, p.Data, wantPos)
				}
				if wantPos >= p.Parity && p.Data != wantPos+1 {
					t.Fatalf("n=%d b=%d L=%d: pos %d >= parity %d, data=%d want %d", n, b, l, wantPos, p.Parity, p.Data, wantPos+1)
				}
			}
		}
	}
}

func TestStripeSpanBytes(t *testing.T) {
	if got := StripeSpanBytes(4, 4096); got != 3*4096 {
		t.Errorf("StripeSpanBytes(4, 4096) = %d, want %d", got, 3*4096)
	}
}

func TestIsFullStripeBoundary(t *testing.T) {
	const n = 4
	const b = uint64(4096)
	span := StripeSpanBytes(n, b)

	if !IsFullStripeBoundary(n, b, 0, span) {
		t.Error("expected full-stripe-aligned write at offset 0 to qualify")
	}
	if !IsFullStripeBoundary(n, b, span*2, span*3) {
		t.Error("expected aligned write covering multiple stripes to qualify")
	}
	if IsFullStripeBoundary(n, b, b, span) {
		t.Error("expected block-aligned but not stripe-aligned offset to not qualify")
	}
	if IsFullStripeBoundary(n, b, 0, span-b) {
		t.Error("expected short write to not qualify even when aligned")
	}
}
