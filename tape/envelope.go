package tape

import "math"

// Asymmetric ballistics. The rise coefficient is an order of
// magnitude smaller than the fall, so the envelope eases into the
// hysteresis blend and backs out quickly. The whole THD-vs-level
// curve is tuned against these exact constants; making the rise the
// fast side pushes the blend past its threshold on every peak and
// the distortion curve stops being monotonic with level.
const (
	envelopeAttack  = 0.002
	envelopeRelease = 0.020
)

// envelopeFollower smooths |x| into a slowly varying level estimate
// that gates the nonlinear path blends.
type envelopeFollower struct {
	env float64
}

func (e *envelopeFollower) processSample(x float64) float64 {
	level := math.Abs(x)

	coeff := envelopeRelease
	if level > e.env {
		coeff = envelopeAttack
	}

	e.env += coeff * (level - e.env)

	return e.env
}

func (e *envelopeFollower) reset() {
	e.env = 0
}
