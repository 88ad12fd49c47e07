// Command tapesim measures and auditions the tape machine emulation.
//
// Usage:
//
//	tapesim thd [--machine tracks] [--rate 48000] [--oversample 2]
//	tapesim response --stage shield|ccir|eq|dispersive [--machine tracks]
//	tapesim play [--machine tracks] [--freq 220] [--duration 3]
//
// The thd subcommand sweeps input level through the saturation
// pipeline and reports distortion per level; response prints the
// frequency response of the individual filter stages; play renders a
// test tone through a full stereo deck to the default audio device.
package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"math/cmplx"
	"os"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-tape/dsp/signal"
	"github.com/cwbudde/algo-tape/dsp/window"
	"github.com/cwbudde/algo-tape/measure/thd"
	"github.com/cwbudde/algo-tape/tape"
)

type cli struct {
	THD      thdCmd      `cmd:"" help:"Measure THD vs input level through the saturation pipeline."`
	Response responseCmd `cmd:"" help:"Print the frequency response of a filter stage."`
	Play     playCmd     `cmd:"" help:"Render a test tone through a stereo deck and play it."`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("tapesim"),
		kong.Description("Analog tape machine emulation workbench"),
		kong.UsageOnError(),
	)

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseMachine(name string) tape.Machine {
	if name == "tracks" {
		return tape.MachineTracks
	}

	return tape.MachineMaster
}

func machineBias(m tape.Machine) float64 {
	if m == tape.MachineTracks {
		return 0.82
	}

	return 0.65
}

type thdCmd struct {
	Machine    string  `enum:"master,tracks" default:"master" help:"Machine profile (master or tracks)."`
	Rate       float64 `default:"48000" help:"Base sample rate in Hz."`
	Oversample int     `default:"2" help:"Oversampling factor the pipeline runs at."`
	Freq       float64 `default:"1000" help:"Test tone frequency in Hz."`
	From       float64 `default:"-12" help:"Sweep start level in dBFS."`
	To         float64 `default:"9" help:"Sweep end level in dBFS."`
	Step       float64 `default:"3" help:"Sweep step in dB."`
}

func (c *thdCmd) Run() error {
	if c.Oversample < 1 {
		return fmt.Errorf("oversample must be >= 1: %d", c.Oversample)
	}
	if c.Step <= 0 || c.To < c.From {
		return fmt.Errorf("invalid sweep %g..%g step %g", c.From, c.To, c.Step)
	}

	procRate := c.Rate * float64(c.Oversample)
	machine := parseMachine(c.Machine)

	const fftSize = 65536
	settle := int(procRate / 2)

	gen, err := signal.NewGenerator(procRate)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "machine: %v, tone %g Hz at %g Hz internal rate\n", machine, c.Freq, procRate)
	fmt.Fprintln(w, "Level\tTHD\tTHD dB\tE/O\tFundamental")

	for level := c.From; level <= c.To+1e-9; level += c.Step {
		amp := math.Pow(10, level/20)

		tone, err := gen.Sine(c.Freq, amp, settle+fftSize)
		if err != nil {
			return err
		}

		p, err := tape.NewProcessor(procRate)
		if err != nil {
			return err
		}
		p.SetParameters(machineBias(machine), 1.0, true)

		for i, x := range tone {
			tone[i] = p.ProcessSample(x)
		}

		res := thd.AnalyzeSignal(tone[settle:], thd.Config{
			SampleRate:      procRate,
			FFTSize:         fftSize,
			FundamentalFreq: c.Freq,
			MaxHarmonics:    10,
			WindowType:      window.TypeHann,
		})

		fmt.Fprintf(w, "%+.0f dB\t%.4f%%\t%.1f dB\t%.3f\t%.2f dB\n",
			level, res.THD*100, res.THDDB, res.EORatio, res.FundamentalLevel)
	}

	return w.Flush()
}

type responseCmd struct {
	Machine string  `enum:"master,tracks" default:"master" help:"Machine profile (master or tracks)."`
	Rate    float64 `default:"96000" help:"Sample rate in Hz."`
	Stage   string  `enum:"shield,ccir,eq,dispersive" default:"shield" help:"Stage to sweep."`
	From    float64 `default:"20" help:"Start frequency in Hz."`
	To      float64 `default:"20000" help:"End frequency in Hz."`
}

func (c *responseCmd) Run() error {
	if c.From <= 0 || c.To <= c.From {
		return fmt.Errorf("invalid frequency range %g..%g", c.From, c.To)
	}

	machine := parseMachine(c.Machine)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)

	// Sixth-octave sweep.
	step := math.Pow(2, 1.0/6)

	switch c.Stage {
	case "shield":
		cut, err := tape.NewHFCut(c.Rate, machine)
		if err != nil {
			return err
		}
		restore, err := tape.NewHFRestore(c.Rate, machine)
		if err != nil {
			return err
		}

		fmt.Fprintln(w, "Freq\tCut dB\tRestore dB\tCascade dB")
		for f := c.From; f <= c.To; f *= step {
			hc, hr := cut.Response(f), restore.Response(f)
			fmt.Fprintf(w, "%.0f\t%.3f\t%.3f\t%.4f\n",
				f, magDB(hc), magDB(hr), magDB(hc*hr))
		}

	case "ccir":
		de, err := tape.NewDeEmphasis(c.Rate)
		if err != nil {
			return err
		}
		re, err := tape.NewReEmphasis(c.Rate)
		if err != nil {
			return err
		}

		fmt.Fprintln(w, "Freq\tDe dB\tRe dB\tCascade dB")
		for f := c.From; f <= c.To; f *= step {
			hd, hr := de.Response(f), re.Response(f)
			fmt.Fprintf(w, "%.0f\t%.3f\t%.3f\t%.4f\n",
				f, magDB(hd), magDB(hr), magDB(hd*hr))
		}

	case "eq":
		eq, err := tape.NewMachineEQ(c.Rate, machine)
		if err != nil {
			return err
		}

		fmt.Fprintln(w, "Freq\tMag dB\tPhase deg")
		for f := c.From; f <= c.To; f *= step {
			h := eq.Response(f)
			fmt.Fprintf(w, "%.0f\t%.3f\t%.1f\n", f, magDB(h), phaseDeg(h))
		}

	case "dispersive":
		d, err := tape.NewDispersiveAllpass(c.Rate, 10000)
		if err != nil {
			return err
		}

		fmt.Fprintln(w, "Freq\tMag dB\tPhase deg")
		for f := c.From; f <= c.To; f *= step {
			h := d.Response(f)
			fmt.Fprintf(w, "%.0f\t%.4f\t%.1f\n", f, magDB(h), phaseDeg(h))
		}
	}

	return w.Flush()
}

func magDB(h complex128) float64 {
	return 20 * math.Log10(cmplx.Abs(h))
}

func phaseDeg(h complex128) float64 {
	return cmplx.Phase(h) * 180 / math.Pi
}

type playCmd struct {
	Machine  string  `enum:"master,tracks" default:"master" help:"Machine profile (master or tracks)."`
	Rate     int     `default:"48000" help:"Output sample rate in Hz."`
	Freq     float64 `default:"220" help:"Tone frequency in Hz."`
	Level    float64 `default:"-6" help:"Tone level in dBFS."`
	Duration float64 `default:"3" help:"Duration in seconds."`
	Bump     bool    `default:"true" negatable:"" help:"Enable the machine EQ head bump."`
}

func (c *playCmd) Run() error {
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be > 0: %g", c.Duration)
	}

	machine := parseMachine(c.Machine)

	deck, err := tape.NewDeck(float64(c.Rate))
	if err != nil {
		return err
	}
	deck.SetParams(tape.Params{
		Machine:    machine,
		InputTrim:  1.0,
		OutputTrim: 0.5,
		TapeBump:   c.Bump,
	})

	gen, err := signal.NewGenerator(float64(c.Rate))
	if err != nil {
		return err
	}

	samples := int(c.Duration * float64(c.Rate))
	left, err := gen.Sine(c.Freq, math.Pow(10, c.Level/20), samples)
	if err != nil {
		return err
	}
	right := make([]float64, samples)
	copy(right, left)

	const blockSize = 4096
	var pcm bytes.Buffer
	for off := 0; off < samples; off += blockSize {
		end := off + blockSize
		if end > samples {
			end = samples
		}

		deck.ProcessBlock(left[off:end], right[off:end])
		for i := off; i < end; i++ {
			binary.Write(&pcm, binary.LittleEndian, float32(left[i]))
			binary.Write(&pcm, binary.LittleEndian, float32(right[i]))
		}
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   c.Rate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return err
	}
	<-ready

	player := ctx.NewPlayer(bytes.NewReader(pcm.Bytes()))
	player.Play()
	for player.IsPlaying() {
		time.Sleep(50 * time.Millisecond)
	}

	fmt.Printf("played %gs %s tone, input peak %.1f dBFS\n", c.Duration, machine, deck.PeakLevelDB())

	return player.Close()
}
