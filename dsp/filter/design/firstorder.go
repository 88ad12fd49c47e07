package design

import (
	"math"

	"github.com/cwbudde/algo-tape/dsp/filter/biquad"
)

// FirstOrderHighpass designs a first-order (6 dB/oct) highpass using
// the bilinear transform.
func FirstOrderHighpass(freq, sampleRate float64) biquad.FirstOrderCoefficients {
	k, ok := warpedK(freq, sampleRate)
	if !ok {
		return biquad.FirstOrderCoefficients{B0: 1}
	}

	inv := 1 / (1 + k)

	return biquad.FirstOrderCoefficients{
		B0: inv,
		B1: -inv,
		A1: (k - 1) * inv,
	}
}

// FirstOrderLowpass designs a first-order (6 dB/oct) lowpass using
// the bilinear transform.
func FirstOrderLowpass(freq, sampleRate float64) biquad.FirstOrderCoefficients {
	k, ok := warpedK(freq, sampleRate)
	if !ok {
		return biquad.FirstOrderCoefficients{B0: 1}
	}

	inv := 1 / (1 + k)

	return biquad.FirstOrderCoefficients{
		B0: k * inv,
		B1: k * inv,
		A1: (k - 1) * inv,
	}
}

// AllpassCoefficient derives the first-order allpass tuning coefficient
// for H(z) = (a + z^-1)/(1 + a*z^-1) so the 90-degree phase-shift point
// lands at freq. Phase lag grows with frequency for a in (0, 1).
func AllpassCoefficient(freq, sampleRate float64) float64 {
	k, ok := warpedK(freq, sampleRate)
	if !ok {
		return 0
	}

	return (1 - k) / (1 + k)
}

// warpedK computes tan(pi*freq/sampleRate) with the same Nyquist guard
// applied by the biquad designers.
func warpedK(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || freq <= 0 || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, false
	}

	limit := sampleRate / 2 * nyquistGuard
	if freq > limit {
		freq = limit
	}

	return math.Tan(math.Pi * freq / sampleRate), true
}
