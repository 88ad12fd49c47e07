package tape

import (
	"fmt"

	"github.com/cwbudde/algo-tape/dsp/filter/biquad"
	"github.com/cwbudde/algo-tape/dsp/filter/design"
)

// machineEQCoefficients builds the measured-response approximation for
// one machine: head-bump resonances in the 30-120 Hz region plus the
// subtle midrange and HF deviations of each transport.
func machineEQCoefficients(machine Machine, sampleRate float64) []biquad.Coefficients {
	if machine == MachineTracks {
		// Studer A820. The extra first-order highpass lives outside
		// this biquad list.
		return []biquad.Coefficients{
			design.Highpass(30, 0.7071, sampleRate),
			design.Peak(32, 0.4, 1.5, sampleRate),
			design.Peak(72, -2.7, 2.07, sampleRate),
			design.Peak(85, 3.2, 1.0, sampleRate),
			design.Peak(180, -0.8, 1.0, sampleRate),
			design.Peak(600, 0.2, 0.8, sampleRate),
			design.Peak(2000, 0.1, 1.0, sampleRate),
			design.Peak(5000, 0.1, 1.0, sampleRate),
			design.Peak(10000, -0.1, 1.0, sampleRate),
		}
	}

	// Ampex ATR-102.
	return []biquad.Coefficients{
		design.Highpass(20, 0.7071, sampleRate),
		design.Peak(40, 1.4, 1.58, sampleRate),
		design.Peak(65, -2.0, 1.265, sampleRate),
		design.Peak(75, 2.0, 0.8, sampleRate),
		design.Peak(230, -0.8, 0.6, sampleRate),
		design.Peak(6000, -0.6, 0.4, sampleRate),
	}
}

// MachineEQ applies the per-machine response cascade. The Studer curve
// carries an additional first-order 30 Hz highpass, making its low cut
// 18 dB/oct total against the Ampex 12 dB/oct.
type MachineEQ struct {
	machine    Machine
	sampleRate float64

	chain    *biquad.Chain
	studerHP *biquad.FirstOrder
}

// NewMachineEQ returns the EQ cascade for the given machine.
func NewMachineEQ(sampleRate float64, machine Machine) (*MachineEQ, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("machine eq: sample rate must be > 0: %g", sampleRate)
	}

	eq := &MachineEQ{
		machine:    machine,
		sampleRate: sampleRate,
		studerHP:   biquad.NewFirstOrder(design.FirstOrderHighpass(30, sampleRate)),
	}
	eq.chain = biquad.NewChain(machineEQCoefficients(machine, sampleRate))

	return eq, nil
}

// SetMachine swaps the active curve. The cascade is rebuilt because
// the two machines carry different section counts.
func (eq *MachineEQ) SetMachine(machine Machine) {
	if machine == eq.machine {
		return
	}

	eq.machine = machine
	eq.chain = biquad.NewChain(machineEQCoefficients(machine, eq.sampleRate))
	eq.studerHP.Reset()
}

// SetSampleRate redesigns every section for a new rate.
func (eq *MachineEQ) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("machine eq: sample rate must be > 0: %g", sampleRate)
	}

	eq.sampleRate = sampleRate

	coeffs := machineEQCoefficients(eq.machine, sampleRate)
	for i, c := range coeffs {
		eq.chain.Section(i).SetCoefficients(c)
	}

	eq.studerHP.SetCoefficients(design.FirstOrderHighpass(30, sampleRate))

	return nil
}

// ProcessSample advances the cascade by one sample.
func (eq *MachineEQ) ProcessSample(x float64) float64 {
	if eq.machine == MachineTracks {
		x = eq.studerHP.ProcessSample(x)
	}

	return eq.chain.ProcessSample(x)
}

// Reset clears all filter state.
func (eq *MachineEQ) Reset() {
	eq.chain.Reset()
	eq.studerHP.Reset()
}

// Response returns the complex frequency response at freqHz.
func (eq *MachineEQ) Response(freqHz float64) complex128 {
	h := eq.chain.Response(freqHz, eq.sampleRate)
	if eq.machine == MachineTracks {
		h *= eq.studerHP.Response(freqHz, eq.sampleRate)
	}

	return h
}
