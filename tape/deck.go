package tape

import (
	"fmt"
	"math/rand"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-tape/dsp/core"
)

// Machine-mode bias strengths. The bias control maps below/above the
// machine threshold, so these pick the profile and its drive character
// in one number.
const (
	masterBias = 0.65
	tracksBias = 0.82
)

// Trim ranges as exposed to the host.
const (
	inputTrimMin  = 0.25
	inputTrimMax  = 8.0
	outputTrimMin = 0.1
	outputTrimMax = 3.0
)

// deckMakeupGain compensates the level lost in the saturation stages,
// +6 dB after the output trim.
const deckMakeupGain = 2.0

// meterFloorDB is reported while the input peak sits below -80 dBFS.
const meterFloorDB = -96.0

// Params is the scalar control snapshot a host persists. Internal
// filter and hysteresis state is never part of it.
type Params struct {
	Machine    Machine
	InputTrim  float64
	OutputTrim float64
	TapeBump   bool
}

// Deck is the stereo block-level wrapper: two per-channel Processors
// plus the machine color stages (crosstalk, head-bump wow, tolerance
// EQ, print-through) and the trim/metering shell. Oversampling stays
// outside: construct the Deck at whatever rate the buffers arrive at.
//
// Like the Processor, a Deck is single-writer: the caller serializes
// parameter setters against ProcessBlock.
type Deck struct {
	sampleRate float64

	left  *Processor
	right *Processor

	machine       Machine
	inputTrim     float64
	outputTrim    float64
	tapeBump      bool
	lastInputTrim float64

	// Guards the auto-gain link against re-entrant trim updates.
	updatingOutputTrim bool

	toleranceSeed int64

	xtalk   crosstalk
	bump    headBumpModulator
	tolEQ   toleranceEQ
	print   *printThrough
	peakLin float64
}

// DeckOption configures a Deck.
type DeckOption func(*Deck)

// WithToleranceSeed pins the manufacturing-tolerance randomization so
// two decks (or two test runs) measure identically. Without it every
// deck draws fresh tolerances, like every physical machine.
func WithToleranceSeed(seed int64) DeckOption {
	return func(d *Deck) {
		d.toleranceSeed = seed
	}
}

// NewDeck returns a stereo deck in Master mode at unity trims.
func NewDeck(sampleRate float64, opts ...DeckOption) (*Deck, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("deck: sample rate must be > 0: %g", sampleRate)
	}

	d := &Deck{
		sampleRate:    sampleRate,
		machine:       MachineMaster,
		inputTrim:     0.5,
		outputTrim:    1.0,
		tapeBump:      true,
		lastInputTrim: 0.5,
		toleranceSeed: rand.Int63(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	var err error
	if d.left, err = NewProcessor(sampleRate); err != nil {
		return nil, err
	}
	if d.right, err = NewProcessor(sampleRate); err != nil {
		return nil, err
	}
	if d.print, err = newPrintThrough(sampleRate); err != nil {
		return nil, err
	}

	d.xtalk.configure(sampleRate)
	d.bump.configure(sampleRate, d.machine)
	d.bump.reset()
	d.tolEQ.configure(sampleRate, d.machine, d.toleranceSeed)
	d.pushProcessorParams()

	return d, nil
}

// Machine returns the active machine mode.
func (d *Deck) Machine() Machine {
	return d.machine
}

// SetSampleRate reconfigures both channels and all color stages, then
// clears state.
func (d *Deck) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("deck: sample rate must be > 0: %g", sampleRate)
	}

	d.sampleRate = sampleRate

	if err := d.left.SetSampleRate(sampleRate); err != nil {
		return err
	}
	if err := d.right.SetSampleRate(sampleRate); err != nil {
		return err
	}
	if err := d.print.configure(sampleRate); err != nil {
		return err
	}

	d.xtalk.configure(sampleRate)
	d.bump.configure(sampleRate, d.machine)
	d.tolEQ.configure(sampleRate, d.machine, d.toleranceSeed)
	d.Reset()

	return nil
}

// SetMachineMode switches between the two decks. The machine change is
// tracked here, on the Deck, so the color stages reconfigure exactly
// once per actual switch.
func (d *Deck) SetMachineMode(machine Machine) {
	if machine == d.machine {
		return
	}

	d.machine = machine
	d.pushProcessorParams()
	d.bump.configure(d.sampleRate, machine)
	d.bump.reset()
	d.tolEQ.configure(d.sampleRate, machine, d.toleranceSeed)
	d.tolEQ.reset()
}

// SetInputTrim sets the drive into the tape stages, clamped to
// [0.25, 8]. The output trim is adjusted by the inverse ratio of the
// change so perceived loudness holds steady while drive increases.
func (d *Deck) SetInputTrim(trim float64) {
	trim = core.Clamp(trim, inputTrimMin, inputTrimMax)
	d.inputTrim = trim

	if !d.updatingOutputTrim && d.lastInputTrim > 0 {
		ratio := d.lastInputTrim / trim

		d.updatingOutputTrim = true
		d.SetOutputTrim(d.outputTrim * ratio)
		d.updatingOutputTrim = false
	}

	d.lastInputTrim = trim
}

// SetOutputTrim sets the post-tape level, clamped to [0.1, 3].
func (d *Deck) SetOutputTrim(trim float64) {
	d.outputTrim = core.Clamp(trim, outputTrimMin, outputTrimMax)
}

// SetTapeBump toggles the machine EQ curves in both channels.
func (d *Deck) SetTapeBump(enabled bool) {
	if enabled == d.tapeBump {
		return
	}

	d.tapeBump = enabled
	d.pushProcessorParams()
}

// Params returns the persistable control snapshot.
func (d *Deck) Params() Params {
	return Params{
		Machine:    d.machine,
		InputTrim:  d.inputTrim,
		OutputTrim: d.outputTrim,
		TapeBump:   d.tapeBump,
	}
}

// SetParams restores a snapshot. Trims are applied directly, without
// the auto-gain link: a restore is not a user gesture.
func (d *Deck) SetParams(p Params) {
	d.inputTrim = core.Clamp(p.InputTrim, inputTrimMin, inputTrimMax)
	d.lastInputTrim = d.inputTrim
	d.SetOutputTrim(p.OutputTrim)
	d.tapeBump = p.TapeBump
	d.machine = p.Machine
	d.pushProcessorParams()
	d.bump.configure(d.sampleRate, d.machine)
	d.tolEQ.configure(d.sampleRate, d.machine, d.toleranceSeed)
}

func (d *Deck) pushProcessorParams() {
	bias := masterBias
	if d.machine == MachineTracks {
		bias = tracksBias
	}

	d.left.SetParameters(bias, 1.0, d.tapeBump)
	d.right.SetParameters(bias, 1.0, d.tapeBump)
}

// PeakLevelDB returns the input peak of the last processed block in
// dBFS, floored at -96.
func (d *Deck) PeakLevelDB() float64 {
	if d.peakLin < 1e-4 {
		return meterFloorDB
	}

	return core.LinearToDB(d.peakLin)
}

// Reset clears both channels and all color-stage state.
func (d *Deck) Reset() {
	d.left.Reset()
	d.right.Reset()
	d.xtalk.reset()
	d.bump.reset()
	d.tolEQ.reset()
	d.print.reset()
	d.peakLin = 0
}

// ProcessBlock processes one stereo block in place. Pass right == nil
// for mono; the stereo-only stages (crosstalk, azimuth) are skipped
// and the rest run on the left buffer alone.
func (d *Deck) ProcessBlock(left, right []float64) {
	stereo := right != nil

	vecmath.ScaleBlockInPlace(left, d.inputTrim)
	if stereo {
		vecmath.ScaleBlockInPlace(right, d.inputTrim)
	}

	d.peakLin = vecmath.MaxAbs(left)
	if stereo {
		if p := vecmath.MaxAbs(right); p > d.peakLin {
			d.peakLin = p
		}
	}

	modGain := d.bump.updateLFO(len(left))
	isTracks := d.machine == MachineTracks

	for i := range left {
		l := d.left.ProcessSample(left[i])

		var r float64
		if stereo {
			r = d.right.ProcessRightChannel(right[i])
		}

		if isTracks && stereo {
			l, r = d.xtalk.processSample(l, r)
		}

		l, r = d.bump.processSample(l, r, modGain)
		l, r = d.tolEQ.processSample(l, r)

		if isTracks {
			l, r = d.print.processSample(l, r)
		}

		left[i] = l
		if stereo {
			right[i] = r
		}
	}

	outGain := d.outputTrim * deckMakeupGain
	vecmath.ScaleBlockInPlace(left, outGain)
	if stereo {
		vecmath.ScaleBlockInPlace(right, outGain)
	}
}
