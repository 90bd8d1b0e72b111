package mathx

import (
	"math"
	"testing"
)

// FuzzClamp verifies the result is always inside the (normalized) bounds.
func FuzzClamp(f *testing.F) {
	f.Add(0.5, 0.1, 1.0)
	f.Add(-3.0, 0.3, 1.5)
	f.Add(2.0, 2.0, 0.1)

	f.Fuzz(func(t *testing.T, v, lo, hi float64) {
		if math.IsNaN(v) || math.IsNaN(lo) || math.IsNaN(hi) {
			t.Skip()
		}
		got := Clamp(v, lo, hi)
		min, max := lo, hi
		if min > max {
			min, max = max, min
		}
		if got < min || got > max {
			t.Errorf("Clamp(%v, %v, %v) = %v escaped [%v, %v]", v, lo, hi, got, min, max)
		}
	})
}

// FuzzRoundN verifies rounding never drifts more than half a unit in the
// last requested place.
func FuzzRoundN(f *testing.F) {
	f.Add(1.2345, 2)
	f.Add(-99.999, 3)

	f.Fuzz(func(t *testing.T, v float64, n int) {
		if math.IsNaN(v) || math.IsInf(v, 0) || n < 0 || n > 8 || math.Abs(v) > 1e12 {
			t.Skip()
		}
		got := RoundN(v, n)
		step := math.Pow(10, -float64(n))
		if math.Abs(got-v) > step/2+1e-9 {
			t.Errorf("RoundN(%v, %d) = %v drifted more than half a step", v, n, got)
		}
	})
}
