package tape

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-tape/dsp/filter/biquad"
	"github.com/cwbudde/algo-tape/dsp/filter/design"
)

const dispersiveStages = 4

// DispersiveAllpass models tape-head phase smear: four first-order
// allpass sections at geometrically spaced corners add group delay
// that grows with frequency while the magnitude stays exactly flat.
type DispersiveAllpass struct {
	cornerHz   float64
	sampleRate float64
	stages     [dispersiveStages]biquad.Allpass1
}

// NewDispersiveAllpass returns a cascade with stages tuned at
// cornerHz * 2^(i*0.5) for i = 0..3.
func NewDispersiveAllpass(sampleRate, cornerHz float64) (*DispersiveAllpass, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("dispersive: sample rate must be > 0: %g", sampleRate)
	}
	if cornerHz <= 0 {
		return nil, fmt.Errorf("dispersive: corner must be > 0: %g", cornerHz)
	}

	d := &DispersiveAllpass{cornerHz: cornerHz, sampleRate: sampleRate}
	d.update()

	return d, nil
}

// SetCorner retunes the cascade base frequency.
func (d *DispersiveAllpass) SetCorner(cornerHz float64) error {
	if cornerHz <= 0 {
		return fmt.Errorf("dispersive: corner must be > 0: %g", cornerHz)
	}

	d.cornerHz = cornerHz
	d.update()

	return nil
}

// SetSampleRate retunes every stage for a new rate.
func (d *DispersiveAllpass) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("dispersive: sample rate must be > 0: %g", sampleRate)
	}

	d.sampleRate = sampleRate
	d.update()

	return nil
}

func (d *DispersiveAllpass) update() {
	for i := range d.stages {
		freq := d.cornerHz * math.Pow(2, float64(i)*0.5)
		d.stages[i].SetCoefficient(design.AllpassCoefficient(freq, d.sampleRate))
	}
}

// ProcessSample advances the cascade by one sample.
func (d *DispersiveAllpass) ProcessSample(x float64) float64 {
	for i := range d.stages {
		x = d.stages[i].ProcessSample(x)
	}

	return x
}

// Reset clears all stage state.
func (d *DispersiveAllpass) Reset() {
	for i := range d.stages {
		d.stages[i].Reset()
	}
}

// Response returns the cascaded complex response at freqHz.
func (d *DispersiveAllpass) Response(freqHz float64) complex128 {
	h := complex(1, 0)
	for i := range d.stages {
		h *= d.stages[i].Response(freqHz, d.sampleRate)
	}

	return h
}
