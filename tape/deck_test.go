package tape

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-tape/dsp/signal"
)

func newTestDeck(t *testing.T, sampleRate float64) *Deck {
	t.Helper()

	d, err := NewDeck(sampleRate, WithToleranceSeed(1))
	if err != nil {
		t.Fatalf("NewDeck: %v", err)
	}

	return d
}

func stereoNoise(t *testing.T, sampleRate float64, samples int) ([]float64, []float64) {
	t.Helper()

	gen, err := signal.NewGenerator(sampleRate, signal.WithSeed(11))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	left, err := gen.WhiteNoise(0.8, samples)
	if err != nil {
		t.Fatalf("WhiteNoise: %v", err)
	}

	right := make([]float64, samples)
	copy(right, left)

	return left, right
}

func TestDeckProcessBlockFinite(t *testing.T) {
	for _, machine := range []Machine{MachineMaster, MachineTracks} {
		d := newTestDeck(t, 48000)
		d.SetMachineMode(machine)

		left, right := stereoNoise(t, 48000, 4096)
		d.ProcessBlock(left, right)

		for i := range left {
			if math.IsNaN(left[i]) || math.IsInf(left[i], 0) ||
				math.IsNaN(right[i]) || math.IsInf(right[i], 0) {
				t.Fatalf("%v sample %d: l=%g r=%g", machine, i, left[i], right[i])
			}
		}
	}
}

func TestDeckProcessBlockMono(t *testing.T) {
	d := newTestDeck(t, 48000)
	d.SetMachineMode(MachineTracks)

	left, _ := stereoNoise(t, 48000, 2048)
	d.ProcessBlock(left, nil)

	for i := range left {
		if math.IsNaN(left[i]) || math.IsInf(left[i], 0) {
			t.Fatalf("sample %d: %g", i, left[i])
		}
	}
}

func TestDeckAutoGainLink(t *testing.T) {
	d := newTestDeck(t, 48000)

	// Defaults: input 0.5, output 1.0. Doubling the drive halves the
	// output trim.
	d.SetInputTrim(1.0)
	if got := d.Params().OutputTrim; math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("output trim got=%g want=0.5", got)
	}

	// Dropping the drive raises it back, through the clamp.
	d.SetInputTrim(0.25)
	if got := d.Params().OutputTrim; math.Abs(got-2.0) > 1e-12 {
		t.Fatalf("output trim got=%g want=2.0", got)
	}

	// A huge drive jump pins the compensation at the floor.
	d.SetInputTrim(8.0)
	if got := d.Params().OutputTrim; got != outputTrimMin {
		t.Fatalf("output trim got=%g want=%g", got, outputTrimMin)
	}
}

func TestDeckInputTrimClamped(t *testing.T) {
	d := newTestDeck(t, 48000)

	d.SetInputTrim(100)
	if got := d.Params().InputTrim; got != inputTrimMax {
		t.Fatalf("input trim got=%g want=%g", got, inputTrimMax)
	}

	d.SetInputTrim(0)
	if got := d.Params().InputTrim; got != inputTrimMin {
		t.Fatalf("input trim got=%g want=%g", got, inputTrimMin)
	}
}

func TestDeckParamsRoundTrip(t *testing.T) {
	d := newTestDeck(t, 48000)

	want := Params{
		Machine:    MachineTracks,
		InputTrim:  2.0,
		OutputTrim: 0.75,
		TapeBump:   false,
	}
	d.SetParams(want)

	if got := d.Params(); got != want {
		t.Fatalf("got=%+v want=%+v", got, want)
	}
	if d.Machine() != MachineTracks {
		t.Fatalf("machine got=%v", d.Machine())
	}
}

func TestDeckSetParamsSkipsAutoGain(t *testing.T) {
	d := newTestDeck(t, 48000)

	d.SetParams(Params{Machine: MachineMaster, InputTrim: 4.0, OutputTrim: 1.5, TapeBump: true})
	if got := d.Params().OutputTrim; got != 1.5 {
		t.Fatalf("restore must not trigger the auto-gain link: output trim got=%g", got)
	}
}

func TestDeckPeakMeter(t *testing.T) {
	const sampleRate = 48000.0

	d := newTestDeck(t, sampleRate)
	d.SetParams(Params{Machine: MachineMaster, InputTrim: 1.0, OutputTrim: 1.0, TapeBump: true})

	gen, err := signal.NewGenerator(sampleRate)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	left, err := gen.Sine(1000, 0.5, 4800)
	if err != nil {
		t.Fatalf("Sine: %v", err)
	}
	right := make([]float64, len(left))
	copy(right, left)

	d.ProcessBlock(left, right)

	if got := d.PeakLevelDB(); math.Abs(got-(-6.02)) > 0.1 {
		t.Fatalf("peak got=%g dB want about -6", got)
	}
}

func TestDeckPeakMeterFloor(t *testing.T) {
	d := newTestDeck(t, 48000)

	silence := make([]float64, 512)
	d.ProcessBlock(silence, make([]float64, 512))

	if got := d.PeakLevelDB(); got != meterFloorDB {
		t.Fatalf("peak got=%g want=%g", got, meterFloorDB)
	}
}

func TestDeckToleranceSeedDeterminism(t *testing.T) {
	const sampleRate = 48000.0

	a, err := NewDeck(sampleRate, WithToleranceSeed(99))
	if err != nil {
		t.Fatalf("NewDeck: %v", err)
	}
	b, err := NewDeck(sampleRate, WithToleranceSeed(99))
	if err != nil {
		t.Fatalf("NewDeck: %v", err)
	}

	la, ra := stereoNoise(t, sampleRate, 2048)
	lb := make([]float64, len(la))
	rb := make([]float64, len(ra))
	copy(lb, la)
	copy(rb, ra)

	a.ProcessBlock(la, ra)
	b.ProcessBlock(lb, rb)

	for i := range la {
		if la[i] != lb[i] || ra[i] != rb[i] {
			t.Fatalf("sample %d: decks with equal seeds diverged", i)
		}
	}
}

func TestDeckResetEquivalence(t *testing.T) {
	const sampleRate = 48000.0

	fresh, err := NewDeck(sampleRate, WithToleranceSeed(5))
	if err != nil {
		t.Fatalf("NewDeck: %v", err)
	}
	used, err := NewDeck(sampleRate, WithToleranceSeed(5))
	if err != nil {
		t.Fatalf("NewDeck: %v", err)
	}

	l, r := stereoNoise(t, sampleRate, 2048)
	used.ProcessBlock(l, r)
	used.Reset()

	la, ra := stereoNoise(t, sampleRate, 2048)
	lb := make([]float64, len(la))
	rb := make([]float64, len(ra))
	copy(lb, la)
	copy(rb, ra)

	fresh.ProcessBlock(la, ra)
	used.ProcessBlock(lb, rb)

	for i := range la {
		if math.Abs(la[i]-lb[i]) > 1e-10 || math.Abs(ra[i]-rb[i]) > 1e-10 {
			t.Fatalf("sample %d: fresh and reset decks diverged", i)
		}
	}
}

func TestDeckMachineModeRedundantSwitch(t *testing.T) {
	d := newTestDeck(t, 48000)

	d.SetMachineMode(MachineMaster)
	if d.Machine() != MachineMaster {
		t.Fatalf("machine got=%v", d.Machine())
	}

	d.SetMachineMode(MachineTracks)
	d.SetMachineMode(MachineTracks)
	if d.Machine() != MachineTracks {
		t.Fatalf("machine got=%v", d.Machine())
	}
}
