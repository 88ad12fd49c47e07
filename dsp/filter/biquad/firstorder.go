package biquad

import (
	"math"
	"math/cmplx"
)

// FirstOrderCoefficients holds the transfer function of a first-order
// section, a0 normalized to 1.
type FirstOrderCoefficients struct {
	B0, B1 float64
	A1     float64
}

// FirstOrder is a single first-order filter (6 dB/oct slopes) in
// Direct Form II Transposed.
type FirstOrder struct {
	FirstOrderCoefficients

	z1 float64
}

// NewFirstOrder returns a first-order section with the given
// coefficients and zero state.
func NewFirstOrder(c FirstOrderCoefficients) *FirstOrder {
	return &FirstOrder{FirstOrderCoefficients: c}
}

// SetCoefficients replaces the transfer function, state untouched.
func (f *FirstOrder) SetCoefficients(c FirstOrderCoefficients) {
	f.FirstOrderCoefficients = c
}

// ProcessSample filters one input sample and returns the output.
func (f *FirstOrder) ProcessSample(x float64) float64 {
	y := f.B0*x + f.z1
	f.z1 = f.B1*x - f.A1*y

	return y
}

// Reset clears the delay line to zero.
func (f *FirstOrder) Reset() {
	f.z1 = 0
}

// Response computes the complex frequency response at freqHz.
func (f *FirstOrderCoefficients) Response(freqHz, sampleRate float64) complex128 {
	w := 2 * math.Pi * freqHz / sampleRate
	ejw := cmplx.Exp(complex(0, -w))

	num := complex(f.B0, 0) + complex(f.B1, 0)*ejw
	den := complex(1, 0) + complex(f.A1, 0)*ejw

	return num / den
}

// Allpass1 is a first-order allpass in one-multiply lattice form:
//
//	H(z) = (a + z^-1) / (1 + a*z^-1)
//
// Magnitude response is exactly unity at all frequencies; only phase
// (and thus group delay) varies with the tuning coefficient.
type Allpass1 struct {
	a  float64
	z1 float64
}

// SetCoefficient sets the allpass coefficient directly.
func (ap *Allpass1) SetCoefficient(a float64) {
	ap.a = a
}

// Coefficient returns the current allpass coefficient.
func (ap *Allpass1) Coefficient() float64 {
	return ap.a
}

// ProcessSample advances the filter by one sample.
func (ap *Allpass1) ProcessSample(x float64) float64 {
	y := ap.a*x + ap.z1
	ap.z1 = x - ap.a*y

	return y
}

// Reset clears the delay element.
func (ap *Allpass1) Reset() {
	ap.z1 = 0
}

// Response computes the complex frequency response at freqHz.
//
// Note the sign convention: the lattice update y = a*x + z1,
// z1 = x - a*y realizes H(z) = (a + z^-1) / (1 + a*z^-1).
func (ap *Allpass1) Response(freqHz, sampleRate float64) complex128 {
	w := 2 * math.Pi * freqHz / sampleRate
	ejw := cmplx.Exp(complex(0, -w))

	num := complex(ap.a, 0) + ejw
	den := complex(1, 0) + complex(ap.a, 0)*ejw

	return num / den
}

// Phase returns the phase response in radians at freqHz.
func (ap *Allpass1) Phase(freqHz, sampleRate float64) float64 {
	return cmplx.Phase(ap.Response(freqHz, sampleRate))
}
