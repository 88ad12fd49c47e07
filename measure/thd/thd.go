// Package thd measures total harmonic distortion from time-domain
// signals or precomputed spectra.
//
// All ratios follow the RMS convention: THD is the root-sum-square of
// the harmonic amplitudes divided by the fundamental amplitude, so a
// single -40 dB harmonic yields THD = 0.01.
package thd

import (
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-tape/dsp/spectrum"
	"github.com/cwbudde/algo-tape/dsp/window"
)

const (
	defaultRangeLowerHz = 20.0
	defaultRangeUpperHz = 20000.0
)

// Config holds THD calculation parameters.
//
// FundamentalFreq pins the fundamental bin; when zero, the strongest
// bin inside [RangeLowerFreq, RangeUpperFreq] is used. CaptureBins
// widens each tone measurement by that many bins on either side to
// collect energy smeared by the analysis window; zero derives it from
// the window's main-lobe null.
type Config struct {
	SampleRate      float64
	FFTSize         int
	FundamentalFreq float64
	RangeLowerFreq  float64
	RangeUpperFreq  float64
	CaptureBins     int
	MaxHarmonics    int
	WindowType      window.Type
}

// Result holds THD measurement results. Ratios are linear (1.0 = 100%);
// the dB fields are 20*log10 of the matching ratio.
type Result struct {
	FundamentalFreq  float64
	FundamentalLevel float64
	THD              float64
	THDN             float64
	THDDB            float64
	THDNDB           float64
	EvenHD           float64
	OddHD            float64
	EORatio          float64
	Noise            float64
	Harmonics        []float64
}

// Calculator performs THD analysis on frequency-domain data.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a new THD calculator.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: normalizeConfig(cfg)}
}

// Analyze is a one-shot THD analysis for a complex spectrum.
func Analyze(spec []complex128, cfg Config) Result {
	return NewCalculator(cfg).Calculate(spec)
}

// AnalyzeSignal performs one-shot THD analysis from a time-domain signal.
func AnalyzeSignal(signal []float64, cfg Config) Result {
	return NewCalculator(cfg).AnalyzeSignal(signal)
}

// Calculate computes THD metrics from a complex spectrum.
func (c *Calculator) Calculate(spec []complex128) Result {
	if len(spec) == 0 {
		return Result{}
	}

	binCount := len(spec)/2 + 1
	if binCount <= 1 {
		return Result{}
	}

	power := spectrum.Power(spec[:binCount])

	cfg := c.cfg
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = len(spec)
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = float64(cfg.FFTSize)
	}

	calc := Calculator{cfg: cfg}

	return calc.CalculateFromPower(power)
}

// AnalyzeSignal computes THD metrics from a real-valued time-domain
// signal. The configured window is applied before the FFT.
func (c *Calculator) AnalyzeSignal(signal []float64) Result {
	if len(signal) == 0 {
		return Result{}
	}

	cfg := c.cfg

	fftSize := cfg.FFTSize
	if fftSize <= 0 {
		fftSize = nextPowerOf2(len(signal))
	}
	if fftSize <= 1 {
		return Result{}
	}

	coeffs := window.Generate(cfg.WindowType, len(signal))

	inData := make([]complex128, fftSize)
	for i := range signal {
		inData[i] = complex(signal[i]*coeffs[i], 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Result{}
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, inData); err != nil {
		return Result{}
	}

	cfg.FFTSize = fftSize
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = float64(fftSize)
	}

	calc := NewCalculator(cfg)

	return calc.Calculate(out)
}

// CalculateFromPower computes THD metrics from a squared-magnitude
// spectrum covering the non-negative-frequency bins [0..Nyquist].
func (c *Calculator) CalculateFromPower(power []float64) Result {
	if len(power) <= 1 {
		return Result{}
	}

	cfg := c.cfg
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = 2 * (len(power) - 1)
	}
	if cfg.FFTSize <= 1 {
		return Result{}
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = float64(cfg.FFTSize)
	}

	maxBin := len(power) - 1
	binHz := cfg.SampleRate / float64(cfg.FFTSize)
	if binHz <= 0 {
		return Result{}
	}

	lowerBin := clampInt(int(math.Round(cfg.RangeLowerFreq/binHz)), 1, maxBin)
	upperBin := clampInt(int(math.Round(cfg.RangeUpperFreq/binHz)), lowerBin, maxBin)

	fundamentalBin := c.findFundamentalBin(power, lowerBin, upperBin, binHz)
	if fundamentalBin < 1 || fundamentalBin > maxBin {
		return Result{}
	}

	captureBins := cfg.CaptureBins
	if captureBins <= 0 {
		captureBins = int(math.Round(window.FirstMinimumBins(cfg.WindowType)))
	}

	// A wide capture must not swallow the neighboring harmonic.
	if captureBins*2 > fundamentalBin {
		captureBins = fundamentalBin / 2
	}

	fundPower := capturePower(power, fundamentalBin, captureBins)
	if fundPower <= 0 {
		return Result{FundamentalFreq: float64(fundamentalBin) * binHz}
	}

	harmPower := 0.0
	evenPower := 0.0
	oddPower := 0.0
	harmonics := make([]float64, 0, 8)

	harmonicCount := 0
	for k := 2; ; k++ {
		if cfg.MaxHarmonics > 0 && harmonicCount >= cfg.MaxHarmonics {
			break
		}

		bin := k * fundamentalBin
		if bin > upperBin || bin > maxBin {
			break
		}

		if bin < lowerBin {
			continue
		}

		p := capturePower(power, bin, captureBins)

		harmPower += p
		if k%2 == 0 {
			evenPower += p
		} else {
			oddPower += p
		}

		harmonics = append(harmonics, math.Sqrt(p/fundPower))
		harmonicCount++
	}

	totalPower := 0.0
	for i := lowerBin; i <= upperBin; i++ {
		totalPower += positive(power[i])
	}

	residualPower := positive(totalPower - fundPower)
	noisePower := positive(residualPower - harmPower)

	thd := math.Sqrt(harmPower / fundPower)
	thdn := math.Sqrt(residualPower / fundPower)
	even := math.Sqrt(evenPower / fundPower)
	odd := math.Sqrt(oddPower / fundPower)

	eoRatio := math.Inf(1)
	if oddPower > 0 {
		eoRatio = even / odd
	}

	return Result{
		FundamentalFreq:  float64(fundamentalBin) * binHz,
		FundamentalLevel: math.Sqrt(fundPower),
		THD:              thd,
		THDN:             thdn,
		THDDB:            ratioToDB(thd),
		THDNDB:           ratioToDB(thdn),
		EvenHD:           even,
		OddHD:            odd,
		EORatio:          eoRatio,
		Noise:            math.Sqrt(noisePower / fundPower),
		Harmonics:        harmonics,
	}
}

func (c *Calculator) findFundamentalBin(power []float64, lowerBin, upperBin int, binHz float64) int {
	if c.cfg.FundamentalFreq > 0 {
		bin := int(math.Round(c.cfg.FundamentalFreq / binHz))
		return clampInt(bin, lowerBin, upperBin)
	}

	bestBin := lowerBin
	bestVal := -1.0

	for i := lowerBin; i <= upperBin; i++ {
		if power[i] > bestVal {
			bestVal = power[i]
			bestBin = i
		}
	}

	return bestBin
}

func normalizeConfig(cfg Config) Config {
	if cfg.RangeLowerFreq <= 0 {
		cfg.RangeLowerFreq = defaultRangeLowerHz
	}

	if cfg.RangeUpperFreq <= 0 {
		cfg.RangeUpperFreq = defaultRangeUpperHz
	}

	if cfg.RangeUpperFreq < cfg.RangeLowerFreq {
		cfg.RangeUpperFreq = cfg.RangeLowerFreq
	}

	if cfg.CaptureBins < 0 {
		cfg.CaptureBins = 0
	}

	if cfg.MaxHarmonics < 0 {
		cfg.MaxHarmonics = 0
	}

	return cfg
}

// capturePower sums squared magnitudes over [bin-capture, bin+capture].
func capturePower(power []float64, bin, captureBins int) float64 {
	if bin < 0 || bin >= len(power) {
		return 0
	}

	lo := bin - captureBins
	if lo < 0 {
		lo = 0
	}

	hi := bin + captureBins
	if hi >= len(power) {
		hi = len(power) - 1
	}

	sum := 0.0
	for i := lo; i <= hi; i++ {
		sum += positive(power[i])
	}

	return sum
}

func positive(v float64) float64 {
	if v < 0 {
		return 0
	}

	return v
}

func ratioToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(v)
}

func clampInt(val, lo, hi int) int {
	if val < lo {
		return lo
	}

	if val > hi {
		return hi
	}

	return val
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
