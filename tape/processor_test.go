package tape

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-tape/dsp/signal"
	"github.com/cwbudde/algo-tape/dsp/spectrum"
)

var processorRates = []float64{44100, 48000, 88200, 96000, 176400, 192000}

// measureTone settles the pipeline on a sine, then measures fundamental
// gain (linear) and THD over a bin-aligned analysis window.
func measureTone(t *testing.T, process func(float64) float64, freq, amplitude, sampleRate float64) (gain, thd float64) {
	t.Helper()

	const harmonics = 10
	settle := int(sampleRate / 2)
	analyze := int(sampleRate / 2)

	probe, err := spectrum.NewHarmonicProbe(freq, sampleRate, harmonics)
	if err != nil {
		t.Fatalf("NewHarmonicProbe: %v", err)
	}

	step := 2 * math.Pi * freq / sampleRate
	for i := 0; i < settle; i++ {
		process(amplitude * math.Sin(step*float64(i)))
	}

	block := make([]float64, analyze)
	for i := range block {
		block[i] = process(amplitude * math.Sin(step*float64(settle+i)))
	}
	probe.ProcessBlock(block)

	mags := probe.Magnitudes()
	fund := mags[0]
	if fund <= 0 {
		t.Fatal("no fundamental detected")
	}

	var harmPower float64
	for _, m := range mags[1:] {
		harmPower += m * m
	}

	gain = fund / (float64(analyze) / 2 * amplitude)
	thd = math.Sqrt(harmPower) / fund

	return gain, thd
}

func newTestProcessor(t *testing.T, sampleRate float64, machine Machine, opts ...ProcessorOption) *Processor {
	t.Helper()

	p, err := NewProcessor(sampleRate, opts...)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}

	if machine == MachineTracks {
		p.SetParameters(0.82, 1.0, true)
	}
	if p.Machine() != machine {
		t.Fatalf("machine got=%v want=%v", p.Machine(), machine)
	}

	return p
}

func TestProcessorNoInvalidOutput(t *testing.T) {
	for _, rate := range processorRates {
		for _, machine := range []Machine{MachineMaster, MachineTracks} {
			for _, topo := range []Topology{TopologyParallelSplit, TopologySeries} {
				p := newTestProcessor(t, rate, machine, WithTopology(topo))

				gen, err := signal.NewGenerator(rate, signal.WithSeed(42))
				if err != nil {
					t.Fatalf("NewGenerator: %v", err)
				}

				noise, err := gen.WhiteNoise(1000, 4000)
				if err != nil {
					t.Fatalf("WhiteNoise: %v", err)
				}

				for i, x := range noise {
					l := p.ProcessSample(x)
					r := p.ProcessRightChannel(x)
					if math.IsNaN(l) || math.IsInf(l, 0) || math.IsNaN(r) || math.IsInf(r, 0) {
						t.Fatalf("rate=%g %v topo=%d sample %d: l=%g r=%g", rate, machine, topo, i, l, r)
					}
				}
			}
		}
	}
}

func TestProcessorDCRejection(t *testing.T) {
	const sampleRate = 96000.0

	for _, machine := range []Machine{MachineMaster, MachineTracks} {
		p := newTestProcessor(t, sampleRate, machine)

		var out float64
		for i := 0; i < int(sampleRate); i++ {
			out = p.ProcessSample(0.5)
		}
		if math.Abs(out) > 1e-3 {
			t.Fatalf("%v: after 1 s of DC 0.5: |out|=%g want < 1e-3", machine, math.Abs(out))
		}

		for i := 0; i < 4*int(sampleRate); i++ {
			out = p.ProcessSample(0.5)
		}
		if math.Abs(out) > 1e-4 {
			t.Fatalf("%v: after settling: |out|=%g want < 1e-4", machine, math.Abs(out))
		}
	}
}

func TestProcessorResetEquivalence(t *testing.T) {
	const sampleRate = 96000.0

	fresh := newTestProcessor(t, sampleRate, MachineTracks)
	used := newTestProcessor(t, sampleRate, MachineTracks)

	gen, err := signal.NewGenerator(sampleRate, signal.WithSeed(7))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	noise, err := gen.WhiteNoise(2.0, 8000)
	if err != nil {
		t.Fatalf("WhiteNoise: %v", err)
	}

	for _, x := range noise {
		used.ProcessSample(x)
		used.ProcessRightChannel(x)
	}
	used.Reset()

	for i, x := range noise {
		a := fresh.ProcessSample(x)
		b := used.ProcessSample(x)
		if math.Abs(a-b) > 1e-10 {
			t.Fatalf("sample %d: fresh=%g reset=%g", i, a, b)
		}
	}
}

func TestProcessorChannelSymmetry(t *testing.T) {
	const (
		sampleRate = 96000.0
		freq       = 1000.0
		amplitude  = 1.0
	)

	for _, machine := range []Machine{MachineMaster, MachineTracks} {
		left := newTestProcessor(t, sampleRate, machine)
		right := newTestProcessor(t, sampleRate, machine)

		gainL, thdL := measureTone(t, left.ProcessSample, freq, amplitude, sampleRate)
		gainR, thdR := measureTone(t, right.ProcessRightChannel, freq, amplitude, sampleRate)

		gainDiffDB := math.Abs(20 * math.Log10(gainL/gainR))
		if gainDiffDB > 0.1 {
			t.Fatalf("%v: channel gain mismatch %g dB", machine, gainDiffDB)
		}

		if thdL > 0 && math.Abs(thdL-thdR)/thdL > 0.05 {
			t.Fatalf("%v: channel THD mismatch: left=%g right=%g", machine, thdL, thdR)
		}
	}
}

func TestProcessorMonotonicTHD(t *testing.T) {
	const (
		sampleRate = 96000.0
		freq       = 1000.0
	)

	levelsDB := []float64{-12, -9, -6, -3, 0, 3, 6, 9}

	for _, machine := range []Machine{MachineMaster, MachineTracks} {
		prev := 0.0
		for _, db := range levelsDB {
			p := newTestProcessor(t, sampleRate, machine)
			amplitude := math.Pow(10, db/20)

			_, thd := measureTone(t, p.ProcessSample, freq, amplitude, sampleRate)
			if thd < prev*0.95 {
				t.Fatalf("%v at %+g dB: THD fell: %g < %g", machine, db, thd, prev)
			}
			prev = thd
		}
	}
}

func TestProcessorLowLevelUnityGain(t *testing.T) {
	const (
		sampleRate = 96000.0
		freq       = 1000.0
	)

	for _, machine := range []Machine{MachineMaster, MachineTracks} {
		for _, db := range []float64{-30, -20} {
			p := newTestProcessor(t, sampleRate, machine)
			amplitude := math.Pow(10, db/20)

			gain, _ := measureTone(t, p.ProcessSample, freq, amplitude, sampleRate)
			gainDB := 20 * math.Log10(gain)
			if math.Abs(gainDB) > 1 {
				t.Fatalf("%v at %g dB: gain got=%g dB want 0 +/-1", machine, db, gainDB)
			}
		}
	}
}

func TestProcessorTracksHotterThanMaster(t *testing.T) {
	const (
		sampleRate = 96000.0
		freq       = 1000.0
		amplitude  = 1.0
	)

	master := newTestProcessor(t, sampleRate, MachineMaster)
	tracks := newTestProcessor(t, sampleRate, MachineTracks)

	_, thdMaster := measureTone(t, master.ProcessSample, freq, amplitude, sampleRate)
	_, thdTracks := measureTone(t, tracks.ProcessSample, freq, amplitude, sampleRate)

	if thdTracks <= thdMaster {
		t.Fatalf("THD ordering: tracks=%g master=%g", thdTracks, thdMaster)
	}
}

func TestProcessorSeriesTopologyGain(t *testing.T) {
	const (
		sampleRate = 96000.0
		freq       = 1000.0
	)

	p := newTestProcessor(t, sampleRate, MachineMaster, WithTopology(TopologySeries))

	gain, _ := measureTone(t, p.ProcessSample, freq, math.Pow(10, -20.0/20), sampleRate)
	if gainDB := 20 * math.Log10(gain); math.Abs(gainDB) > 1 {
		t.Fatalf("series topology gain got=%g dB want 0 +/-1", gainDB)
	}
}

func TestProcessorSetParametersClampsAndSwitches(t *testing.T) {
	p := newTestProcessor(t, 96000, MachineMaster)

	p.SetParameters(-5, 1.0, true)
	if p.Machine() != MachineMaster {
		t.Fatalf("bias clamped low: machine got=%v", p.Machine())
	}

	p.SetParameters(5, 1.0, true)
	if p.Machine() != MachineTracks {
		t.Fatalf("bias clamped high: machine got=%v", p.Machine())
	}

	p.SetParameters(0.3, 1.0, true)
	if p.Machine() != MachineMaster {
		t.Fatalf("switch back: machine got=%v", p.Machine())
	}
}

func TestProcessorSampleRateChangeStaysFinite(t *testing.T) {
	p := newTestProcessor(t, 44100, MachineTracks)

	for i := 0; i < 1000; i++ {
		p.ProcessSample(0.8 * math.Sin(float64(i)*0.1))
	}

	if err := p.SetSampleRate(192000); err != nil {
		t.Fatalf("SetSampleRate: %v", err)
	}

	for i := 0; i < 1000; i++ {
		y := p.ProcessSample(0.8 * math.Sin(float64(i)*0.05))
		if math.IsNaN(y) || math.IsInf(y, 0) {
			t.Fatalf("sample %d after rate change: %g", i, y)
		}
	}
}
