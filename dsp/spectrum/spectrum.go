// Package spectrum holds frequency-domain helpers: complex-bin
// magnitude/power extraction and single-bin Goertzel analysis.
package spectrum

import (
	vecmath "github.com/cwbudde/algo-vecmath"
)

// Magnitude returns |X[k]| for each complex spectrum bin.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im := splitParts(in)
	vecmath.Magnitude(out, re, im)

	return out
}

// Power returns |X[k]|^2 for each complex spectrum bin.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im := splitParts(in)
	vecmath.Power(out, re, im)

	return out
}

// PowerFromParts computes |X[k]|^2 = re[k]^2 + im[k]^2 into dst.
// Zero-allocation fast path for callers holding split parts already.
func PowerFromParts(dst, re, im []float64) {
	vecmath.Power(dst, re, im)
}

func splitParts(in []complex128) (re, im []float64) {
	buf := make([]float64, 2*len(in))
	re = buf[:len(in)]
	im = buf[len(in):]

	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	return re, im
}
