package tape

import "math"

// shaperBypassDrive is the floor below which the atan stages degrade
// to identity instead of dividing by a near-zero normalization term.
const shaperBypassDrive = 0.001

// asymmetricTanh biases the input before the tanh so positive and
// negative half-waves compress differently (even harmonics), subtracts
// the DC term the bias introduces, and renormalizes to unity
// small-signal gain.
func asymmetricTanh(x, drive, asymmetry float64) float64 {
	bias := asymmetry - 1
	dcOffset := math.Tanh(drive * bias)
	out := math.Tanh(drive*(x+bias)) - dcOffset

	// d/dx tanh(drive*(x+bias)) at x=0.
	norm := drive * (1 - dcOffset*dcOffset)
	if norm > shaperBypassDrive {
		out /= norm
	}

	return out
}

// softAtan is the symmetric knee stage, normalized to unity
// small-signal gain. Near-zero drive bypasses.
func softAtan(x, drive float64) float64 {
	if drive < shaperBypassDrive {
		return x
	}

	return math.Atan(drive*x) / drive
}

// asymmetricAtan is the DC-bias variant of softAtan, same construction
// as asymmetricTanh.
func asymmetricAtan(x, drive, asymmetry float64) float64 {
	if drive < shaperBypassDrive {
		return x
	}

	bias := asymmetry - 1
	out := math.Atan(drive*(x+bias)) - math.Atan(drive*bias)

	norm := drive / (1 + (drive*bias)*(drive*bias))
	if norm > shaperBypassDrive {
		out /= norm
	}

	return out
}
