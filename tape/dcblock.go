package tape

import (
	"fmt"

	"github.com/cwbudde/algo-tape/dsp/filter/biquad"
	"github.com/cwbudde/algo-tape/dsp/filter/design"
)

const dcBlockerCornerHz = 5.0

// DCBlocker removes the DC the asymmetric stages generate: two
// cascaded Butterworth highpass biquads at 5 Hz (24 dB/oct total),
// leaving 20 Hz essentially untouched.
type DCBlocker struct {
	sampleRate float64
	first      biquad.Section
	second     biquad.Section
}

// NewDCBlocker returns the 4th-order 5 Hz blocker.
func NewDCBlocker(sampleRate float64) (*DCBlocker, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("dc blocker: sample rate must be > 0: %g", sampleRate)
	}

	b := &DCBlocker{sampleRate: sampleRate}
	b.update()

	return b, nil
}

// SetSampleRate redesigns both sections for a new rate.
func (b *DCBlocker) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("dc blocker: sample rate must be > 0: %g", sampleRate)
	}

	b.sampleRate = sampleRate
	b.update()

	return nil
}

func (b *DCBlocker) update() {
	c := design.Highpass(dcBlockerCornerHz, 0.7071, b.sampleRate)
	b.first.SetCoefficients(c)
	b.second.SetCoefficients(c)
}

// ProcessSample advances the blocker by one sample.
func (b *DCBlocker) ProcessSample(x float64) float64 {
	return b.second.ProcessSample(b.first.ProcessSample(x))
}

// Reset clears both sections.
func (b *DCBlocker) Reset() {
	b.first.Reset()
	b.second.Reset()
}
