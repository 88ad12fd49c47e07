package tape

import (
	"fmt"

	"github.com/cwbudde/algo-tape/dsp/core"
	"github.com/cwbudde/algo-tape/tape/hysteresis"
)

// Topology selects how the bias-shielding filters wrap the saturator.
type Topology int

const (
	// TopologyParallelSplit runs the nonlinear stages on the
	// HF-attenuated band only; the clean HF residual bypasses them and
	// is re-added after. This is the primary configuration.
	TopologyParallelSplit Topology = iota
	// TopologySeries cuts highs with the CCIR 35us de-emphasis before
	// the saturator and restores them after; everything passes through
	// the nonlinearity.
	TopologySeries
)

// Processor is the per-channel hybrid saturation pipeline: bias-shield
// split, Jiles-Atherton hysteresis in parallel with an asymmetric
// tanh/atan chain, level-dependent blending, machine EQ, dispersive
// phase smear and DC removal.
//
// A Processor owns one channel. It is not safe for concurrent use, and
// parameter setters must be serialized against the processing calls by
// the caller. The expectation is that it runs at an externally
// oversampled rate (2x); pass that rate, not the host rate.
type Processor struct {
	sampleRate float64
	topology   Topology

	bias     float64
	gain     float64
	tapeBump bool
	prof     profile

	env     envelopeFollower
	ja      *hysteresis.Core
	hfCut   *HFCut
	deEmph  *DeEmphasis
	reEmph  *ReEmphasis
	eq      *MachineEQ
	disp    *DispersiveAllpass
	dcBlock *DCBlocker
	azimuth *azimuthDelay
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithTopology selects the bias-shielding configuration.
func WithTopology(t Topology) ProcessorOption {
	return func(p *Processor) {
		p.topology = t
	}
}

// NewProcessor returns a processor at the given (already oversampled)
// sample rate, configured for the Master machine at unity gain.
func NewProcessor(sampleRate float64, opts ...ProcessorOption) (*Processor, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("processor: sample rate must be > 0: %g", sampleRate)
	}

	p := &Processor{
		sampleRate: sampleRate,
		bias:       0.65,
		gain:       1.0,
		tapeBump:   true,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	p.prof = profileFor(p.bias)

	var err error
	if p.ja, err = hysteresis.New(sampleRate, p.prof.hysteresis); err != nil {
		return nil, err
	}
	if p.hfCut, err = NewHFCut(sampleRate, p.prof.machine); err != nil {
		return nil, err
	}
	if p.deEmph, err = NewDeEmphasis(sampleRate); err != nil {
		return nil, err
	}
	if p.reEmph, err = NewReEmphasis(sampleRate); err != nil {
		return nil, err
	}
	if p.eq, err = NewMachineEQ(sampleRate, p.prof.machine); err != nil {
		return nil, err
	}
	if p.disp, err = NewDispersiveAllpass(sampleRate, p.prof.dispersiveCornerHz); err != nil {
		return nil, err
	}
	if p.dcBlock, err = NewDCBlocker(sampleRate); err != nil {
		return nil, err
	}
	if p.azimuth, err = newAzimuthDelay(sampleRate, p.prof.azimuthDelayMicros); err != nil {
		return nil, err
	}

	return p, nil
}

// Machine returns the currently active machine profile.
func (p *Processor) Machine() Machine {
	return p.prof.machine
}

// SetSampleRate reconfigures every stage for a new rate and clears
// state; a rate change is a reconfiguration event, not a glitch to
// smooth over.
func (p *Processor) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("processor: sample rate must be > 0: %g", sampleRate)
	}

	p.sampleRate = sampleRate

	if err := p.ja.SetSampleRate(sampleRate); err != nil {
		return err
	}
	if err := p.hfCut.SetSampleRate(sampleRate); err != nil {
		return err
	}
	if err := p.deEmph.SetSampleRate(sampleRate); err != nil {
		return err
	}
	if err := p.reEmph.SetSampleRate(sampleRate); err != nil {
		return err
	}
	if err := p.eq.SetSampleRate(sampleRate); err != nil {
		return err
	}
	if err := p.disp.SetSampleRate(sampleRate); err != nil {
		return err
	}
	if err := p.dcBlock.SetSampleRate(sampleRate); err != nil {
		return err
	}
	if err := p.azimuth.configure(sampleRate, p.prof.azimuthDelayMicros); err != nil {
		return err
	}

	p.Reset()

	return nil
}

// SetParameters updates bias strength, input gain and the machine-EQ
// toggle. Bias is clamped to [0, 1]. Machine-dependent stages are only
// reconfigured when the profile actually changes, so redundant pushes
// never cancel filter state.
func (p *Processor) SetParameters(biasStrength, inputGain float64, tapeBumpEnabled bool) {
	p.bias = core.Clamp(biasStrength, 0, 1)
	p.gain = inputGain
	p.tapeBump = tapeBumpEnabled

	next := profileFor(p.bias)
	if next.machine == p.prof.machine {
		return
	}

	p.prof = next

	// Swapping machines replaces the hysteresis constants wholesale;
	// a fresh core starts the new machine demagnetized.
	if ja, err := hysteresis.New(p.sampleRate, next.hysteresis); err == nil {
		p.ja = ja
	}

	p.hfCut.SetMachine(next.machine)
	p.eq.SetMachine(next.machine)
	_ = p.disp.SetCorner(next.dispersiveCornerHz)
	_ = p.azimuth.configure(p.sampleRate, next.azimuthDelayMicros)
}

// Reset clears all filter, envelope, hysteresis and delay state,
// simulating silence on a demagnetized head.
func (p *Processor) Reset() {
	p.env.reset()
	p.ja.Reset()
	p.hfCut.Reset()
	p.deEmph.Reset()
	p.reEmph.Reset()
	p.eq.Reset()
	p.disp.Reset()
	p.dcBlock.Reset()
	p.azimuth.reset()
}

// ProcessSample runs the full pipeline for one sample. Real-time safe:
// no allocation, no locking, constant work per call.
func (p *Processor) ProcessSample(input float64) float64 {
	gained := input * p.gain

	env := p.env.processSample(gained)

	jaBlend := p.prof.jaBlendMax * core.Smoothstep((env-p.prof.jaBlendThreshold)/p.prof.jaBlendWidth)
	atanAmount := p.prof.atanMixMax * core.Smoothstep((env-p.prof.atanThreshold)/p.prof.atanWidth)

	// Split or pre-filter, depending on topology.
	var satIn, cleanHF float64
	if p.topology == TopologyParallelSplit {
		satIn = p.hfCut.ProcessSample(gained)
		cleanHF = gained - satIn
	} else {
		satIn = p.deEmph.ProcessSample(gained)
	}

	// Hysteresis path.
	jaPath := p.ja.ProcessSample(satIn*p.prof.jaInputScale) * p.prof.jaOutputScale

	// Waveshaper path: tanh drive, then a level-dependent series atan
	// knee. Symmetric atan keeps the Master odd-dominant; the Tracks
	// machine uses the asymmetric variant for extra even content.
	tanhOut := asymmetricTanh(satIn, p.prof.tanhDrive, p.prof.tanhAsymmetry)

	var atanOut float64
	if p.prof.asymmetricAtan {
		atanOut = asymmetricAtan(tanhOut, p.prof.atanDrive, p.prof.atanAsymmetry)
	} else {
		atanOut = softAtan(tanhOut, p.prof.atanDrive)
	}

	tanhPath := tanhOut*(1-atanAmount) + atanOut*atanAmount

	out := jaPath*jaBlend + tanhPath*(1-jaBlend)

	if p.topology == TopologyParallelSplit {
		out += cleanHF
	} else {
		out = p.reEmph.ProcessSample(out)
	}

	if p.tapeBump {
		out = p.eq.ProcessSample(out)
	}

	out = p.disp.ProcessSample(out)
	out = p.dcBlock.ProcessSample(out)

	return core.FlushDenormals(out)
}

// ProcessRightChannel runs the identical pipeline, then applies the
// azimuth head-offset delay. Apart from that sub-sample shift, left
// and right are processed identically.
func (p *Processor) ProcessRightChannel(input float64) float64 {
	return p.azimuth.processSample(p.ProcessSample(input))
}
