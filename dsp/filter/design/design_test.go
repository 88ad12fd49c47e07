package design

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-tape/dsp/filter/biquad"
)

const fs = 96000.0

func TestLowpassResponseShape(t *testing.T) {
	c := Lowpass(1000, 1/math.Sqrt2, fs)

	if db := c.MagnitudeDB(20, fs); math.Abs(db) > 0.1 {
		t.Fatalf("passband not flat: %g dB at 20 Hz", db)
	}

	if db := c.MagnitudeDB(1000, fs); math.Abs(db+3.01) > 0.2 {
		t.Fatalf("corner not at -3 dB: %g dB", db)
	}

	if db := c.MagnitudeDB(10000, fs); db > -35 {
		t.Fatalf("stopband too shallow: %g dB at 10 kHz", db)
	}
}

func TestHighpassResponseShape(t *testing.T) {
	c := Highpass(5, 1/math.Sqrt2, fs)

	// The DC-blocker corner must leave 20 Hz materially unaffected.
	if db := c.MagnitudeDB(20, fs); db < -1 {
		t.Fatalf("20 Hz attenuated too much: %g dB", db)
	}

	if db := c.MagnitudeDB(0.1, fs); db > -40 {
		t.Fatalf("deep sub-DC attenuation too shallow: %g dB", db)
	}
}

func TestPeakBoostCutNull(t *testing.T) {
	boost := biquad.NewSection(Peak(3000, 6, 1.2, fs))
	cut := biquad.NewSection(Peak(3000, -6, 1.2, fs))

	for _, f := range []float64{100, 1000, 3000, 8000, 20000} {
		h := boost.Response(f, fs) * cut.Response(f, fs)
		db := 20 * math.Log10(math.Hypot(real(h), imag(h)))
		if math.Abs(db) > 0.001 {
			t.Fatalf("bell boost/cut does not null at %g Hz: %g dB", f, db)
		}
	}
}

func TestHighShelfBoostCutNull(t *testing.T) {
	boost := HighShelf(8000, 4, 0.7, fs)
	cut := HighShelf(8000, -4, 0.7, fs)

	for _, f := range []float64{100, 1000, 8000, 16000, 20000} {
		h := boost.Response(f, fs) * cut.Response(f, fs)
		db := 20 * math.Log10(math.Hypot(real(h), imag(h)))
		if math.Abs(db) > 0.001 {
			t.Fatalf("shelf boost/cut does not null at %g Hz: %g dB", f, db)
		}
	}
}

func TestNyquistClampKeepsFilterStable(t *testing.T) {
	// Corner far beyond Nyquist must clamp, not blow up.
	c := Peak(40000, 6, 1, 48000)

	s := biquad.NewSection(c)
	out := 0.0
	for i := 0; i < 4800; i++ {
		out = s.ProcessSample(math.Sin(0.3 * float64(i)))
		if math.IsNaN(out) || math.IsInf(out, 0) {
			t.Fatalf("unstable filter output at sample %d: %g", i, out)
		}
	}

	if math.Abs(out) > 100 {
		t.Fatalf("filter diverging: |out|=%g", math.Abs(out))
	}
}

func TestInvalidInputsYieldIdentity(t *testing.T) {
	cases := []biquad.Coefficients{
		Lowpass(-10, 1, fs),
		Highpass(100, 1, 0),
		Peak(0, 6, 1, fs),
		HighShelf(math.NaN(), 3, 1, fs),
	}

	for i, c := range cases {
		if c != biquad.Identity() {
			t.Fatalf("case %d: expected identity coefficients, got %+v", i, c)
		}
	}
}

func TestFirstOrderHighpassShape(t *testing.T) {
	c := FirstOrderHighpass(30, fs)
	f := biquad.NewFirstOrder(c)

	// Steady-state DC must decay toward zero.
	y := 0.0
	for i := 0; i < 96000; i++ {
		y = f.ProcessSample(1)
	}

	if math.Abs(y) > 1e-3 {
		t.Fatalf("first-order highpass passes DC: %g", y)
	}

	if db := 20 * math.Log10(cabs(c.Response(1000, fs))); math.Abs(db) > 0.1 {
		t.Fatalf("1 kHz not flat: %g dB", db)
	}
}

func TestAllpassCoefficientRange(t *testing.T) {
	for _, f := range []float64{1000, 5000, 10000, 20000} {
		a := AllpassCoefficient(f, fs)
		if a <= -1 || a >= 1 {
			t.Fatalf("allpass coefficient out of stable range at %g Hz: %g", f, a)
		}
	}

	if a := AllpassCoefficient(-5, fs); a != 0 {
		t.Fatalf("invalid frequency should yield zero coefficient, got %g", a)
	}
}

func cabs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
