package tape

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-tape/dsp/filter/biquad"
	"github.com/cwbudde/algo-tape/dsp/filter/design"
)

// hfShieldCoefficients builds the bias-shielding shelf pair for one
// machine. gainSign -1 gives the cut curve, +1 the restoring inverse;
// both sides share frequencies and Q so the cascade nulls exactly.
func hfShieldCoefficients(machine Machine, gainSign, sampleRate float64) []biquad.Coefficients {
	nyquist := sampleRate / 2

	var f1, f2, gain float64
	switch machine {
	case MachineTracks:
		// Studer A820: flat to 6 kHz, then a steeper slope.
		f1 = math.Min(6000, nyquist*0.9)
		f2 = math.Min(12000, nyquist*0.85)
		gain = 6.0
	default:
		// Ampex ATR-102: flat to 8 kHz, gentler slope.
		f1 = math.Min(8000, nyquist*0.9)
		f2 = math.Min(14000, nyquist*0.85)
		gain = 4.0
	}

	return []biquad.Coefficients{
		design.HighShelf(f1, gainSign*gain, 0.7, sampleRate),
		design.HighShelf(f2, gainSign*gain, 0.7, sampleRate),
	}
}

// ccirCoefficients approximates the CCIR 35us record emphasis,
// 10*log10(1+(f/4547)^2) dB, to within +/-0.5 dB with two shelves and
// three correction bells. gainSign -1 yields the de-emphasis inverse.
func ccirCoefficients(gainSign, sampleRate float64) []biquad.Coefficients {
	nyquist := sampleRate / 2

	shelf2Freq := math.Min(10000, nyquist*0.9)
	bell1Freq := math.Min(20000, nyquist*0.9)

	return []biquad.Coefficients{
		design.HighShelf(3000, gainSign*4.0, 0.5, sampleRate),
		design.HighShelf(shelf2Freq, gainSign*5.0, 0.71, sampleRate),
		design.Peak(bell1Freq, gainSign*5.0, 0.6, sampleRate),
		design.Peak(15000, gainSign*-1.1, 1.2, sampleRate),
		design.Peak(3000, gainSign*-1.0, 1.5, sampleRate),
	}
}

// HFCut attenuates the high band the way AC bias shields it from the
// worst of magnetic saturation. Its output is what the nonlinear
// stages see; the residual against the input is the protected band.
type HFCut struct {
	machine    Machine
	sampleRate float64
	chain      *biquad.Chain
}

// NewHFCut returns the forward bias-shielding filter.
func NewHFCut(sampleRate float64, machine Machine) (*HFCut, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("hfcut: sample rate must be > 0: %g", sampleRate)
	}

	f := &HFCut{machine: machine, sampleRate: sampleRate}
	f.chain = biquad.NewChain(hfShieldCoefficients(machine, -1, sampleRate))

	return f, nil
}

// SetMachine swaps the target curve. Filter state is preserved.
func (f *HFCut) SetMachine(machine Machine) {
	if machine == f.machine {
		return
	}

	f.machine = machine
	f.update()
}

// SetSampleRate redesigns the shelves for a new rate.
func (f *HFCut) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("hfcut: sample rate must be > 0: %g", sampleRate)
	}

	f.sampleRate = sampleRate
	f.update()

	return nil
}

func (f *HFCut) update() {
	coeffs := hfShieldCoefficients(f.machine, -1, f.sampleRate)
	for i, c := range coeffs {
		f.chain.Section(i).SetCoefficients(c)
	}
}

// ProcessSample advances the filter by one sample.
func (f *HFCut) ProcessSample(x float64) float64 {
	return f.chain.ProcessSample(x)
}

// Reset clears filter state.
func (f *HFCut) Reset() {
	f.chain.Reset()
}

// Response returns the complex frequency response at freqHz.
func (f *HFCut) Response(freqHz float64) complex128 {
	return f.chain.Response(freqHz, f.sampleRate)
}

// HFRestore is the exact inverse of HFCut: cascading the two is flat
// to within floating-point error at every frequency.
type HFRestore struct {
	machine    Machine
	sampleRate float64
	chain      *biquad.Chain
}

// NewHFRestore returns the inverse bias-shielding filter.
func NewHFRestore(sampleRate float64, machine Machine) (*HFRestore, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("hfrestore: sample rate must be > 0: %g", sampleRate)
	}

	f := &HFRestore{machine: machine, sampleRate: sampleRate}
	f.chain = biquad.NewChain(hfShieldCoefficients(machine, 1, sampleRate))

	return f, nil
}

// SetMachine swaps the target curve. Filter state is preserved.
func (f *HFRestore) SetMachine(machine Machine) {
	if machine == f.machine {
		return
	}

	f.machine = machine
	f.update()
}

// SetSampleRate redesigns the shelves for a new rate.
func (f *HFRestore) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("hfrestore: sample rate must be > 0: %g", sampleRate)
	}

	f.sampleRate = sampleRate
	f.update()

	return nil
}

func (f *HFRestore) update() {
	coeffs := hfShieldCoefficients(f.machine, 1, f.sampleRate)
	for i, c := range coeffs {
		f.chain.Section(i).SetCoefficients(c)
	}
}

// ProcessSample advances the filter by one sample.
func (f *HFRestore) ProcessSample(x float64) float64 {
	return f.chain.ProcessSample(x)
}

// Reset clears filter state.
func (f *HFRestore) Reset() {
	f.chain.Reset()
}

// Response returns the complex frequency response at freqHz.
func (f *HFRestore) Response(freqHz float64) complex128 {
	return f.chain.Response(freqHz, f.sampleRate)
}

// DeEmphasis cuts highs along the CCIR 35us curve before saturation;
// ReEmphasis restores them after. The pair is used by the series
// topology and nulls like the shielding pair.
type DeEmphasis struct {
	sampleRate float64
	chain      *biquad.Chain
}

// NewDeEmphasis returns the CCIR 35us de-emphasis cascade.
func NewDeEmphasis(sampleRate float64) (*DeEmphasis, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("deemphasis: sample rate must be > 0: %g", sampleRate)
	}

	return &DeEmphasis{
		sampleRate: sampleRate,
		chain:      biquad.NewChain(ccirCoefficients(-1, sampleRate)),
	}, nil
}

// SetSampleRate redesigns the cascade for a new rate.
func (f *DeEmphasis) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("deemphasis: sample rate must be > 0: %g", sampleRate)
	}

	f.sampleRate = sampleRate

	coeffs := ccirCoefficients(-1, sampleRate)
	for i, c := range coeffs {
		f.chain.Section(i).SetCoefficients(c)
	}

	return nil
}

// ProcessSample advances the filter by one sample.
func (f *DeEmphasis) ProcessSample(x float64) float64 {
	return f.chain.ProcessSample(x)
}

// Reset clears filter state.
func (f *DeEmphasis) Reset() {
	f.chain.Reset()
}

// Response returns the complex frequency response at freqHz.
func (f *DeEmphasis) Response(freqHz float64) complex128 {
	return f.chain.Response(freqHz, f.sampleRate)
}

// ReEmphasis is the exact inverse of DeEmphasis.
type ReEmphasis struct {
	sampleRate float64
	chain      *biquad.Chain
}

// NewReEmphasis returns the CCIR 35us re-emphasis cascade.
func NewReEmphasis(sampleRate float64) (*ReEmphasis, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("reemphasis: sample rate must be > 0: %g", sampleRate)
	}

	return &ReEmphasis{
		sampleRate: sampleRate,
		chain:      biquad.NewChain(ccirCoefficients(1, sampleRate)),
	}, nil
}

// SetSampleRate redesigns the cascade for a new rate.
func (f *ReEmphasis) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("reemphasis: sample rate must be > 0: %g", sampleRate)
	}

	f.sampleRate = sampleRate

	coeffs := ccirCoefficients(1, sampleRate)
	for i, c := range coeffs {
		f.chain.Section(i).SetCoefficients(c)
	}

	return nil
}

// ProcessSample advances the filter by one sample.
func (f *ReEmphasis) ProcessSample(x float64) float64 {
	return f.chain.ProcessSample(x)
}

// Reset clears filter state.
func (f *ReEmphasis) Reset() {
	f.chain.Reset()
}

// Response returns the complex frequency response at freqHz.
func (f *ReEmphasis) Response(freqHz float64) complex128 {
	return f.chain.Response(freqHz, f.sampleRate)
}
