package spectrum

import (
	"math"
	"testing"
)

func sine(freq, sampleRate, amplitude float64, n int) []float64 {
	out := make([]float64, n)
	step := 2 * math.Pi * freq / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

func TestNewGoertzelValidation(t *testing.T) {
	if _, err := NewGoertzel(1000, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}

	if _, err := NewGoertzel(30000, 48000); err == nil {
		t.Fatal("expected error for frequency above Nyquist")
	}

	if _, err := NewGoertzel(-1, 48000); err == nil {
		t.Fatal("expected error for negative frequency")
	}
}

func TestGoertzelDetectsTone(t *testing.T) {
	const (
		fs = 48000.0
		n  = 4800 // 100 cycles of 1 kHz, bin-exact
	)

	block := sine(1000, fs, 1.0, n)

	onTone, err := AnalyzeBlock(block, 1000, fs)
	if err != nil {
		t.Fatal(err)
	}

	offTone, err := AnalyzeBlock(block, 1500, fs)
	if err != nil {
		t.Fatal(err)
	}

	if onTone <= 0 {
		t.Fatalf("on-tone power must be positive: %g", onTone)
	}

	if offTone*1e6 > onTone {
		t.Fatalf("off-tone rejection too weak: on=%g off=%g", onTone, offTone)
	}

	// |X[k]| of a unit sine over N samples is N/2.
	g, err := NewGoertzel(1000, fs)
	if err != nil {
		t.Fatal(err)
	}
	g.ProcessBlock(block)

	want := float64(n) / 2
	if got := g.Magnitude(); math.Abs(got-want)/want > 1e-6 {
		t.Fatalf("magnitude: got %g want %g", got, want)
	}
}

func TestGoertzelReset(t *testing.T) {
	g, err := NewGoertzel(1000, 48000)
	if err != nil {
		t.Fatal(err)
	}

	g.ProcessBlock(sine(1000, 48000, 1.0, 480))
	if g.Power() == 0 {
		t.Fatal("expected nonzero power before reset")
	}

	g.Reset()
	if g.Power() != 0 {
		t.Fatalf("expected zero power after reset: %g", g.Power())
	}
}

func TestGoertzelSampleBlockEquivalence(t *testing.T) {
	block := sine(440, 48000, 0.5, 1024)

	a, _ := NewGoertzel(440, 48000)
	b, _ := NewGoertzel(440, 48000)

	a.ProcessBlock(block)
	for _, x := range block {
		b.ProcessSample(x)
	}

	if math.Abs(a.Power()-b.Power()) > 1e-9*math.Max(1, a.Power()) {
		t.Fatalf("block/sample mismatch: %g vs %g", a.Power(), b.Power())
	}
}

func TestHarmonicProbe(t *testing.T) {
	const fs = 48000.0

	p, err := NewHarmonicProbe(1000, fs, 5)
	if err != nil {
		t.Fatal(err)
	}

	if p.Len() != 5 {
		t.Fatalf("Len: got %d want 5", p.Len())
	}

	// Fundamental plus a -20 dB third harmonic.
	n := 4800
	block := sine(1000, fs, 1.0, n)
	third := sine(3000, fs, 0.1, n)
	for i := range block {
		block[i] += third[i]
	}

	p.ProcessBlock(block)
	mags := p.Magnitudes()

	if mags[0] <= 0 {
		t.Fatal("fundamental magnitude must be positive")
	}

	ratio := mags[2] / mags[0]
	if math.Abs(ratio-0.1) > 1e-3 {
		t.Fatalf("third harmonic ratio: got %g want 0.1", ratio)
	}

	// Absent harmonics stay far below the present ones.
	if mags[1] > mags[0]*1e-3 {
		t.Fatalf("second harmonic should be near zero: %g", mags[1])
	}
}

func TestHarmonicProbeNyquistTruncation(t *testing.T) {
	// 10 kHz fundamental at 48 kHz: only 2 harmonics fit below Nyquist.
	p, err := NewHarmonicProbe(10000, 48000, 8)
	if err != nil {
		t.Fatal(err)
	}

	if p.Len() != 2 {
		t.Fatalf("Len: got %d want 2", p.Len())
	}

	if _, err := NewHarmonicProbe(30000, 48000, 4); err == nil {
		t.Fatal("expected error for fundamental above Nyquist")
	}
}
