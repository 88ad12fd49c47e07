package tape

import (
	"fmt"

	"github.com/cwbudde/algo-tape/dsp/delay"
)

// azimuthBufferSize holds the playback-head offset with room to spare:
// the largest modeled delay is 12us, under 5 samples even at 384 kHz.
const azimuthBufferSize = 16

// azimuthDelay applies the sub-sample inter-channel offset caused by
// playback-head azimuth error. Only the right channel carries one.
type azimuthDelay struct {
	line         *delay.Line
	delaySamples float64
}

func newAzimuthDelay(sampleRate, micros float64) (*azimuthDelay, error) {
	line, err := delay.New(azimuthBufferSize)
	if err != nil {
		return nil, err
	}

	a := &azimuthDelay{line: line}
	if err := a.configure(sampleRate, micros); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *azimuthDelay) configure(sampleRate, micros float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("azimuth: sample rate must be > 0: %g", sampleRate)
	}
	if micros < 0 {
		return fmt.Errorf("azimuth: delay must be >= 0: %g", micros)
	}

	a.delaySamples = micros * 1e-6 * sampleRate

	return nil
}

func (a *azimuthDelay) processSample(x float64) float64 {
	a.line.Write(x)

	return a.line.ReadFractionalLinear(a.delaySamples)
}

func (a *azimuthDelay) reset() {
	a.line.Reset()
}
