// Package hysteresis implements the Jiles-Atherton magnetization model
// solved per sample with a fixed-iteration Newton-Raphson step.
//
// The core maps an input field H to a magnetization M that depends on
// the direction the field is moving, which is what produces the loop
// memory absent from any static waveshaper.
package hysteresis

import (
	"fmt"
	"math"
)

// newtonIterations is fixed so the per-sample cost is constant; eight
// steps converge well past float64 noise for audio-range field swings.
const newtonIterations = 8

// Parameters holds the Jiles-Atherton model parameters.
type Parameters struct {
	// Msat is the saturation magnetization, the hard ceiling for |M|.
	Msat float64
	// A shapes the anhysteretic curve (higher = softer knee).
	A float64
	// K controls pinning-site density, i.e. loop width.
	K float64
	// C is the reversible magnetization fraction in (0, 1].
	C float64
	// Alpha is the mean-field coupling between M and the effective field.
	Alpha float64
}

func (p Parameters) validate() error {
	if p.Msat <= 0 {
		return fmt.Errorf("hysteresis: Msat must be > 0: %g", p.Msat)
	}
	if p.A <= 0 {
		return fmt.Errorf("hysteresis: A must be > 0: %g", p.A)
	}
	if p.K <= 0 {
		return fmt.Errorf("hysteresis: K must be > 0: %g", p.K)
	}
	if p.C <= 0 || p.C > 1 {
		return fmt.Errorf("hysteresis: C must be in (0, 1]: %g", p.C)
	}
	if p.Alpha < 0 {
		return fmt.Errorf("hysteresis: Alpha must be >= 0: %g", p.Alpha)
	}

	return nil
}

// Core is a single-channel Jiles-Atherton solver. Not safe for
// concurrent use; stereo processing uses one Core per channel.
type Core struct {
	params Parameters
	dt     float64

	hPrev float64
	m     float64
}

// New returns a Core at the given sample rate.
func New(sampleRate float64, params Parameters) (*Core, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("hysteresis: sample rate must be > 0: %g", sampleRate)
	}

	if err := params.validate(); err != nil {
		return nil, err
	}

	return &Core{
		params: params,
		dt:     1 / sampleRate,
	}, nil
}

// Parameters returns the model parameters.
func (c *Core) Parameters() Parameters {
	return c.params
}

// SetSampleRate updates the integration step. State is preserved.
func (c *Core) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("hysteresis: sample rate must be > 0: %g", sampleRate)
	}

	c.dt = 1 / sampleRate

	return nil
}

// Reset clears the loop state to the demagnetized origin.
func (c *Core) Reset() {
	c.hPrev = 0
	c.m = 0
}

// ProcessSample advances the model by one sample of applied field and
// returns the magnetization.
func (c *Core) ProcessSample(h float64) float64 {
	p := c.params
	dt := c.dt

	hd := (h - c.hPrev) / dt
	delta := sign(hd)

	mPrev := c.m
	m := mPrev

	for i := 0; i < newtonIterations; i++ {
		hEff := h + p.Alpha*m
		mAn := p.Msat * langevin(hEff/p.A)
		dmAnDm := p.Msat * langevinD(hEff/p.A) * (1 / p.A) * p.Alpha
		mDiff := mAn - m

		// Irreversible motion only acts along the field direction;
		// against it, just the reversible term remains.
		var dmDh float64
		if math.Abs(mDiff) > 1e-12 && delta*mDiff > 0 {
			dmDh = (mDiff/(delta*p.K-p.Alpha*mDiff) + p.C*dmAnDm) / (1 - p.C*p.Alpha)
		} else {
			dmDh = p.C * dmAnDm / (1 - p.C*p.Alpha)
		}

		f := m - mPrev - dt*dmDh*hd

		var dfdM float64
		denom := delta*p.K - p.Alpha*mDiff
		if math.Abs(denom) > 1e-12 {
			dfdM = (dmAnDm - 1) / denom / (1 - p.C*p.Alpha)
		}

		fPrime := 1 - dt*hd*dfdM
		if math.Abs(fPrime) > 1e-12 {
			m -= f / fPrime
		}

		if m > p.Msat {
			m = p.Msat
		} else if m < -p.Msat {
			m = -p.Msat
		}
	}

	c.hPrev = h
	c.m = m

	return m
}

// langevin computes L(x) = coth(x) - 1/x, switching to the x/3 Taylor
// form near zero where the direct expression cancels catastrophically.
func langevin(x float64) float64 {
	if math.Abs(x) < 1e-4 {
		return x / 3
	}

	return 1/math.Tanh(x) - 1/x
}

// langevinD computes dL/dx = 1/x^2 - csch^2(x), with the 1/3 limit
// near zero.
func langevinD(x float64) float64 {
	if math.Abs(x) < 1e-4 {
		return 1.0 / 3.0
	}

	sinh := math.Sinh(x)

	return 1/(x*x) - 1/(sinh*sinh)
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}

	return 1
}
