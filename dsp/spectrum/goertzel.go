package spectrum

import (
	"fmt"
	"math"
)

// Goertzel evaluates a single DFT bin recursively, without computing a
// full transform. It is the cheap way to track one tone, e.g. the
// fundamental of a distortion measurement or a pilot tone.
//
// The analyzer is stateful: Power and Magnitude reflect every sample
// processed since the last Reset. The effective bin width narrows with
// block length, so the block must be long enough to separate the
// target from its neighbors (main lobe width is 4*pi/N).
type Goertzel struct {
	frequency  float64
	sampleRate float64
	coeff      float64
	s0, s1     float64
}

// NewGoertzel creates an analyzer for the target frequency.
// frequency must be between 0 and sampleRate/2.
func NewGoertzel(frequency, sampleRate float64) (*Goertzel, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("goertzel: sample rate must be > 0: %v", sampleRate)
	}

	if frequency < 0 || frequency > sampleRate/2 || math.IsNaN(frequency) || math.IsInf(frequency, 0) {
		return nil, fmt.Errorf("goertzel: frequency must be between 0 and sampleRate/2: %v", frequency)
	}

	g := &Goertzel{
		frequency:  frequency,
		sampleRate: sampleRate,
	}
	g.updateCoeff()

	return g, nil
}

func (g *Goertzel) updateCoeff() {
	g.coeff = 2 * math.Cos(2*math.Pi*g.frequency/g.sampleRate)
}

// Reset clears the internal state.
func (g *Goertzel) Reset() {
	g.s0 = 0
	g.s1 = 0
}

// ProcessSample updates the internal state with a single input sample.
func (g *Goertzel) ProcessSample(input float64) {
	s := input + g.coeff*g.s0 - g.s1
	g.s1 = g.s0
	g.s0 = s
}

// ProcessBlock updates the internal state with a block of samples.
func (g *Goertzel) ProcessBlock(input []float64) {
	s0, s1 := g.s0, g.s1

	coeff := g.coeff
	for _, x := range input {
		s := x + coeff*s0 - s1
		s1 = s0
		s0 = s
	}

	g.s0, g.s1 = s0, s1
}

// Power returns the squared magnitude of the frequency component,
// equivalent to |X[k]|^2 from a DFT of the same block length.
func (g *Goertzel) Power() float64 {
	return g.s0*g.s0 + g.s1*g.s1 - g.coeff*g.s0*g.s1
}

// Magnitude returns the magnitude of the frequency component.
func (g *Goertzel) Magnitude() float64 {
	p := g.Power()
	if p <= 0 {
		return 0
	}

	return math.Sqrt(p)
}

// Frequency returns the current target frequency.
func (g *Goertzel) Frequency() float64 { return g.frequency }

// AnalyzeBlock computes the Goertzel power for a single frequency in one shot.
func AnalyzeBlock(input []float64, frequency, sampleRate float64) (float64, error) {
	g, err := NewGoertzel(frequency, sampleRate)
	if err != nil {
		return 0, err
	}

	g.ProcessBlock(input)

	return g.Power(), nil
}

// HarmonicProbe tracks a fundamental and its harmonics with one
// Goertzel analyzer per tone. Harmonics above Nyquist are skipped at
// construction.
type HarmonicProbe struct {
	analyzers []*Goertzel
}

// NewHarmonicProbe creates analyzers at fundamental, 2*fundamental, ...
// up to maxHarmonics tones (fundamental included), dropping any that
// would land above Nyquist.
func NewHarmonicProbe(fundamental, sampleRate float64, maxHarmonics int) (*HarmonicProbe, error) {
	if fundamental <= 0 {
		return nil, fmt.Errorf("harmonic probe: fundamental must be > 0: %v", fundamental)
	}
	if maxHarmonics < 1 {
		return nil, fmt.Errorf("harmonic probe: need at least one harmonic: %d", maxHarmonics)
	}

	analyzers := make([]*Goertzel, 0, maxHarmonics)
	for k := 1; k <= maxHarmonics; k++ {
		f := float64(k) * fundamental
		if f > sampleRate/2 {
			break
		}

		g, err := NewGoertzel(f, sampleRate)
		if err != nil {
			return nil, err
		}

		analyzers = append(analyzers, g)
	}

	if len(analyzers) == 0 {
		return nil, fmt.Errorf("harmonic probe: fundamental above Nyquist: %v", fundamental)
	}

	return &HarmonicProbe{analyzers: analyzers}, nil
}

// Len returns the number of tracked tones, fundamental included.
func (p *HarmonicProbe) Len() int {
	return len(p.analyzers)
}

// ProcessBlock updates all analyzers with the same input block.
func (p *HarmonicProbe) ProcessBlock(input []float64) {
	for _, g := range p.analyzers {
		g.ProcessBlock(input)
	}
}

// Magnitudes returns the magnitude per tone, index 0 being the
// fundamental.
func (p *HarmonicProbe) Magnitudes() []float64 {
	out := make([]float64, len(p.analyzers))
	for i, g := range p.analyzers {
		out[i] = g.Magnitude()
	}

	return out
}

// Reset resets all analyzers.
func (p *HarmonicProbe) Reset() {
	for _, g := range p.analyzers {
		g.Reset()
	}
}
