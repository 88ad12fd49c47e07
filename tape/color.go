package tape

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-tape/dsp/delay"
	"github.com/cwbudde/algo-tape/dsp/filter/biquad"
	"github.com/cwbudde/algo-tape/dsp/filter/design"
)

// The color stages run at the base (non-oversampled) rate, after the
// per-channel Processor cores. They are deliberately subtle: each one
// models a transport imperfection measured in fractions of a dB.

// crosstalkGain is the adjacent-track bleed level, about -40 dB.
const crosstalkGain = 0.01

// crosstalk models adjacent-track bleed on a multitrack transport: the
// band-limited mono sum leaks back into both channels at low level.
// Only the Tracks machine exhibits it; a half-inch two-track master
// deck has far wider guard bands.
type crosstalk struct {
	highpass biquad.Section
	lowpass  biquad.Section
}

func (c *crosstalk) configure(sampleRate float64) {
	c.highpass.SetCoefficients(design.Highpass(100, 0.707, sampleRate))
	c.lowpass.SetCoefficients(design.Lowpass(8000, 0.707, sampleRate))
}

func (c *crosstalk) reset() {
	c.highpass.Reset()
	c.lowpass.Reset()
}

// processSample adds the filtered mono bleed to both channels.
func (c *crosstalk) processSample(left, right float64) (float64, float64) {
	mono := (left + right) * 0.5
	bleed := c.lowpass.ProcessSample(c.highpass.ProcessSample(mono)) * crosstalkGain

	return left + bleed, right + bleed
}

// Head-bump wow LFO rates in Hz, chosen incommensurate so the combined
// modulation never audibly repeats.
const (
	wowFreq1 = 0.63
	wowFreq2 = 1.07
	wowFreq3 = 0.31
)

// headBumpModulator simulates wow-induced gain variation in the head
// bump region: transport speed flutter slightly shifts the bump
// resonance, heard as slow low-frequency amplitude modulation. The
// bump band is isolated per channel with a bandpass; three summed
// sine LFOs modulate only that band.
type headBumpModulator struct {
	sampleRate float64
	depth      float64

	bandpassL biquad.Section
	bandpassR biquad.Section

	phase1 float64
	phase2 float64
	phase3 float64
}

func (h *headBumpModulator) configure(sampleRate float64, machine Machine) {
	h.sampleRate = sampleRate

	// The Ampex transport is tighter: lower bump, less wow.
	centerHz := 40.0
	h.depth = 0.009
	if machine == MachineTracks {
		centerHz = 75.0
		h.depth = 0.014
	}

	c := design.Bandpass(centerHz, 0.7, sampleRate)
	h.bandpassL.SetCoefficients(c)
	h.bandpassR.SetCoefficients(c)
}

func (h *headBumpModulator) reset() {
	h.bandpassL.Reset()
	h.bandpassR.Reset()

	// Staggered starting phases so the three LFOs never align at reset.
	h.phase1 = 0
	h.phase2 = 0.3
	h.phase3 = 0.7
}

// updateLFO advances the LFOs by one block and returns the gain
// multiplier for the bump band. Block-rate update is plenty: the
// fastest LFO moves about a thousandth of a cycle per typical block.
func (h *headBumpModulator) updateLFO(blockSize int) float64 {
	blockTime := float64(blockSize) / h.sampleRate

	h.phase1 = wrapPhase(h.phase1 + wowFreq1*blockTime*2*math.Pi)
	h.phase2 = wrapPhase(h.phase2 + wowFreq2*blockTime*2*math.Pi)
	h.phase3 = wrapPhase(h.phase3 + wowFreq3*blockTime*2*math.Pi)

	lfo := math.Sin(h.phase1)*0.5 + math.Sin(h.phase2)*0.3 + math.Sin(h.phase3)*0.2

	return 1 + lfo*h.depth
}

// processSample modulates only the bandpass-isolated bump region:
// subtract the static bump, add the modulated one.
func (h *headBumpModulator) processSample(left, right, modGain float64) (float64, float64) {
	modAmount := modGain - 1

	left += h.bandpassL.ProcessSample(left) * modAmount
	right += h.bandpassR.ProcessSample(right) * modAmount

	return left, right
}

func wrapPhase(phase float64) float64 {
	if phase > 2*math.Pi {
		phase -= 2 * math.Pi
	}

	return phase
}

// toleranceEQ models manufacturing spread between individual machines:
// every physical deck measures slightly differently, so each instance
// draws small random low/high shelf offsets at construction. Left and
// right are decorrelated like two separately calibrated channels. The
// seed is explicit so tests can pin the draw.
type toleranceEQ struct {
	lowShelfL  biquad.Section
	highShelfL biquad.Section
	lowShelfR  biquad.Section
	highShelfR biquad.Section
}

func (t *toleranceEQ) configure(sampleRate float64, machine Machine, seed int64) {
	lowHz, lowRangeDB := 60.0, 0.10
	highHz, highRangeDB := 16000.0, 0.12
	if machine == MachineTracks {
		lowHz, lowRangeDB = 75.0, 0.15
		highHz, highRangeDB = 15000.0, 0.18
	}

	rng := rand.New(rand.NewSource(seed))
	offset := func(rangeDB float64) float64 {
		return (rng.Float64()*2 - 1) * rangeDB
	}

	t.lowShelfL.SetCoefficients(design.LowShelf(lowHz, offset(lowRangeDB), 0.7071, sampleRate))
	t.highShelfL.SetCoefficients(design.HighShelf(highHz, offset(highRangeDB), 0.7071, sampleRate))
	t.lowShelfR.SetCoefficients(design.LowShelf(lowHz, offset(lowRangeDB), 0.7071, sampleRate))
	t.highShelfR.SetCoefficients(design.HighShelf(highHz, offset(highRangeDB), 0.7071, sampleRate))
}

func (t *toleranceEQ) reset() {
	t.lowShelfL.Reset()
	t.highShelfL.Reset()
	t.lowShelfR.Reset()
	t.highShelfR.Reset()
}

func (t *toleranceEQ) processSample(left, right float64) (float64, float64) {
	left = t.highShelfL.ProcessSample(t.lowShelfL.ProcessSample(left))
	right = t.highShelfR.ProcessSample(t.lowShelfR.ProcessSample(right))

	return left, right
}

const (
	// printThroughDelaySeconds is one wrap of tape on a 10.5" reel at
	// 30 ips, the layer spacing that produces the pre-echo.
	printThroughDelaySeconds = 0.065
	// printThroughCoeff is the published GP9 print level, about -58 dB
	// at unity signal.
	printThroughCoeff = 0.00126
	// printThroughFloor gates the effect below -60 dB so tape hiss
	// never prints.
	printThroughFloor = 0.001
)

// printThrough models magnetic bleed between adjacent tape layers on
// the reel: a faint, signal-dependent echo 65 ms away. The multitrack
// formulation has higher print than mastering stock, so only the
// Tracks machine applies it.
type printThrough struct {
	lineL        *delay.Line
	lineR        *delay.Line
	delaySamples int
}

func newPrintThrough(sampleRate float64) (*printThrough, error) {
	p := &printThrough{}
	if err := p.configure(sampleRate); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *printThrough) configure(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("print-through: sample rate must be > 0: %g", sampleRate)
	}

	p.delaySamples = int(printThroughDelaySeconds * sampleRate)

	size := p.delaySamples + 1
	var err error
	if p.lineL, err = delay.New(size); err != nil {
		return err
	}
	if p.lineR, err = delay.New(size); err != nil {
		return err
	}

	return nil
}

func (p *printThrough) reset() {
	p.lineL.Reset()
	p.lineR.Reset()
}

// processSample adds the pre-echo. The print level scales with the
// delayed signal itself, so quiet passages stay clean while loud hits
// print through.
func (p *printThrough) processSample(left, right float64) (float64, float64) {
	p.lineL.Write(left)
	p.lineR.Write(right)

	delayedL := p.lineL.Read(p.delaySamples)
	delayedR := p.lineR.Read(p.delaySamples)

	if abs := math.Abs(delayedL); abs > printThroughFloor {
		left += delayedL * printThroughCoeff * abs
	}
	if abs := math.Abs(delayedR); abs > printThroughFloor {
		right += delayedR * printThroughCoeff * abs
	}

	return left, right
}
