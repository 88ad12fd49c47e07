package tape

import "github.com/cwbudde/algo-tape/tape/hysteresis"

// Machine identifies one of the two modeled tape decks.
type Machine int

const (
	// MachineMaster models a half-inch mastering deck: later, softer
	// saturation onset and a mostly symmetric transfer curve.
	MachineMaster Machine = iota
	// MachineTracks models a 2-inch multitrack: earlier saturation,
	// stronger asymmetry, more even-order content.
	MachineTracks
)

func (m Machine) String() string {
	if m == MachineTracks {
		return "tracks"
	}

	return "master"
}

// machineBiasThreshold splits the bias-strength control range between
// the two machines.
const machineBiasThreshold = 0.74

// profile bundles every machine-dependent tuning constant. Values are
// empirical fits against hardware measurements; the pipeline structure,
// not the numbers, is the contract.
type profile struct {
	machine Machine

	hysteresis    hysteresis.Parameters
	jaInputScale  float64
	jaOutputScale float64

	jaBlendMax       float64
	jaBlendThreshold float64
	jaBlendWidth     float64

	tanhDrive     float64
	tanhAsymmetry float64

	atanDrive      float64
	atanMixMax     float64
	atanThreshold  float64
	atanWidth      float64
	atanAsymmetry  float64
	asymmetricAtan bool

	dispersiveCornerHz float64
	azimuthDelayMicros float64
}

var masterProfile = profile{
	machine: MachineMaster,
	hysteresis: hysteresis.Parameters{
		Msat:  1.0,
		A:     50.0,
		K:     0.005,
		C:     0.95,
		Alpha: 1e-6,
	},
	jaInputScale:  1.0,
	jaOutputScale: 150.0,

	jaBlendMax:       1.00,
	jaBlendThreshold: 0.77,
	jaBlendWidth:     1.5,

	tanhDrive:     0.095,
	tanhAsymmetry: 1.08,

	atanDrive:      5.0,
	atanMixMax:     0.65,
	atanThreshold:  0.5,
	atanWidth:      2.5,
	atanAsymmetry:  1.0,
	asymmetricAtan: false,

	dispersiveCornerHz: 10000.0,
	azimuthDelayMicros: 8.0,
}

var tracksProfile = profile{
	machine: MachineTracks,
	hysteresis: hysteresis.Parameters{
		Msat:  1.0,
		A:     35.0,
		K:     0.01,
		C:     0.92,
		Alpha: 1e-5,
	},
	jaInputScale:  1.0,
	jaOutputScale: 105.0,

	jaBlendMax:       1.00,
	jaBlendThreshold: 0.60,
	jaBlendWidth:     1.2,

	tanhDrive:     0.14,
	tanhAsymmetry: 1.18,

	atanDrive:      5.5,
	atanMixMax:     0.72,
	atanThreshold:  0.4,
	atanWidth:      2.5,
	atanAsymmetry:  1.25,
	asymmetricAtan: true,

	dispersiveCornerHz: 10000.0,
	azimuthDelayMicros: 12.0,
}

// profileFor maps a bias strength in [0, 1] to the active machine
// profile. Pure: the full constant set is swapped wholesale, never
// mutated piecemeal.
func profileFor(bias float64) profile {
	if bias >= machineBiasThreshold {
		return tracksProfile
	}

	return masterProfile
}
