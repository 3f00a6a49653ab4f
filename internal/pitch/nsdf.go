package pitch

import (
	"github.com/tphakala/simd/f32"
)

// windowPower returns the sum of squared samples.
func windowPower(x []float32) float64 {
	return float64(f32.DotProduct(x, x))
}

// computeNSDF fills out with the normalized square difference function of x
// for lags 0..len(out)-1. energy is the sum of squares of x.
//
// The autocorrelation term uses the SIMD dot product of the overlapping
// segments; the normalization term m(τ) is updated incrementally by removing
// the two samples that leave the overlap at each step.
func computeNSDF(x []float32, energy float64, out []float64) {
	w := len(x)
	m := 2 * energy

	for tau := range out {
		if tau > 0 {
			head := float64(x[tau-1])
			tail := float64(x[w-tau])
			m -= head*head + tail*tail
		}

		if m <= 0 {
			out[tau] = 0
			continue
		}

		r := float64(f32.DotProduct(x[:w-tau], x[tau:]))
		v := 2 * r / m
		// rounding in the incremental m can push |v| marginally past 1
		switch {
		case v > 1:
			v = 1
		case v < -1:
			v = -1
		}
		out[tau] = v
	}
}
