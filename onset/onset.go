// Package onset computes frame-by-frame onset detection values from
// audio, with a set of spectral difference functions and an optional
// threshold-based segmenter.
package onset

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/hupe1980/sonago"
	"github.com/hupe1980/sonago/spectral"
)

// Function selects the onset detection measure computed per frame.
type Function int

const (
	// FunctionPowerSpectrum measures the rectified power difference
	// between successive spectra.
	FunctionPowerSpectrum Function = iota

	// FunctionHighFrequency weights bin power by bin index.
	FunctionHighFrequency

	// FunctionComplexDomain measures deviation from a phase-predicted
	// complex spectrum.
	FunctionComplexDomain

	// FunctionRectifiedComplex is the complex domain deviation counted
	// only where magnitude increases.
	FunctionRectifiedComplex

	// FunctionPhaseDev measures the mean second-order phase deviation.
	FunctionPhaseDev

	// FunctionWeightedPhaseDev weights phase deviation by magnitude.
	FunctionWeightedPhaseDev

	// FunctionModKL measures a modified Kullback-Leibler divergence of
	// successive magnitude spectra.
	FunctionModKL

	// FunctionItakuraSaito measures the Itakura-Saito distance of
	// successive power spectra.
	FunctionItakuraSaito

	// FunctionCosine measures the cosine distance of successive
	// magnitude spectra.
	FunctionCosine

	// FunctionNormPower is the power difference normalized by the
	// current frame power.
	FunctionNormPower
)

func (f Function) String() string {
	switch f {
	case FunctionPowerSpectrum:
		return "PowerSpectrum"
	case FunctionHighFrequency:
		return "HighFrequency"
	case FunctionComplexDomain:
		return "ComplexDomain"
	case FunctionRectifiedComplex:
		return "RectifiedComplex"
	case FunctionPhaseDev:
		return "PhaseDev"
	case FunctionWeightedPhaseDev:
		return "WeightedPhaseDev"
	case FunctionModKL:
		return "ModKL"
	case FunctionItakuraSaito:
		return "ItakuraSaito"
	case FunctionCosine:
		return "Cosine"
	case FunctionNormPower:
		return "NormPower"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

const epsilon = 1e-10

// Options configure a Detector.
type Options struct {
	// WindowSize is the analysis window length in samples.
	WindowSize int

	// FFTSize is the transform length; must be >= WindowSize.
	FFTSize int

	// FilterSize is the median filter length applied to magnitude
	// spectra for background subtraction. Values below 3 disable it.
	FilterSize int

	// Function is the detection measure.
	Function Function

	// FrameDelta compares the head and an offset window of the same
	// input instead of consecutive calls. Zero uses call history.
	FrameDelta int
}

// Detector computes an onset detection value per audio frame. It keeps
// two frames of magnitude and phase history for the differential
// functions. Not safe for concurrent use.
type Detector struct {
	opts   Options
	window []float64
	fft    *fourier.FFT

	numBins       int
	prevMag       []float64
	prevPrevMag   []float64
	prevPhase     []float64
	prevPrevPhase []float64
	primed        int
}

// NewDetector creates a detector. Defaults: windowSize 1024, fftSize =
// windowSize, PowerSpectrum function, no median filter.
func NewDetector(optFns ...func(*Options)) (*Detector, error) {
	opts := Options{WindowSize: 1024}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.FFTSize == 0 {
		opts.FFTSize = opts.WindowSize
	}

	if opts.WindowSize < 2 {
		return nil, sonago.NewInvalidConfig("windowSize", "must be >= 2")
	}
	if opts.FFTSize < opts.WindowSize {
		return nil, sonago.NewInvalidConfig("fftSize", "must be >= windowSize")
	}
	if opts.Function < FunctionPowerSpectrum || opts.Function > FunctionNormPower {
		return nil, sonago.NewInvalidConfig("function", "unknown detection function")
	}
	if opts.FrameDelta < 0 {
		return nil, sonago.NewInvalidConfig("frameDelta", "must be >= 0")
	}

	window, err := spectral.MakeWindow(spectral.WindowHann, opts.WindowSize)
	if err != nil {
		return nil, err
	}

	numBins := opts.FFTSize/2 + 1
	return &Detector{
		opts:          opts,
		window:        window,
		fft:           fourier.NewFFT(opts.FFTSize),
		numBins:       numBins,
		prevMag:       make([]float64, numBins),
		prevPrevMag:   make([]float64, numBins),
		prevPhase:     make([]float64, numBins),
		prevPrevPhase: make([]float64, numBins),
	}, nil
}

// WindowSize returns the analysis window length.
func (d *Detector) WindowSize() int { return d.opts.WindowSize }

// NumBins returns the spectrum width used internally.
func (d *Detector) NumBins() int { return d.numBins }

// Reset clears the frame history.
func (d *Detector) Reset() {
	for i := range d.prevMag {
		d.prevMag[i] = 0
		d.prevPrevMag[i] = 0
		d.prevPhase[i] = 0
		d.prevPrevPhase[i] = 0
	}
	d.primed = 0
}

// ProcessFrame computes the detection value for one frame. The input
// must hold at least windowSize samples, or windowSize+frameDelta when
// a frame delta is configured. Larger values indicate more likely
// onsets.
func (d *Detector) ProcessFrame(input []float64) (float64, error) {
	minLen := d.opts.WindowSize + d.opts.FrameDelta
	if len(input) < minLen {
		return 0, &sonago.ErrShapeMismatch{Rows: 1, Cols: minLen, Len: len(input)}
	}

	mag, phase := d.analyze(input[d.opts.FrameDelta : d.opts.FrameDelta+d.opts.WindowSize])

	refMag := d.prevMag
	if d.opts.FrameDelta > 0 {
		refMag, _ = d.analyze(input[:d.opts.WindowSize])
	}

	value := d.detect(mag, phase, refMag)
	if d.opts.FrameDelta == 0 && d.primed < 2 {
		d.primed++
		// Unseeded history compares against zeros; suppress the
		// spurious first values of the differential functions.
		if d.opts.Function != FunctionHighFrequency {
			value = 0
		}
	}

	copy(d.prevPrevMag, d.prevMag)
	copy(d.prevPrevPhase, d.prevPhase)
	copy(d.prevMag, mag)
	copy(d.prevPhase, phase)
	return value, nil
}

// analyze windows, transforms and median-filters one frame.
func (d *Detector) analyze(samples []float64) (mag, phase []float64) {
	frame := make([]float64, d.opts.FFTSize)
	for i, w := range d.window {
		frame[i] = samples[i] * w
	}

	coeffs := make([]complex128, d.numBins)
	d.fft.Coefficients(coeffs, frame)

	mag = make([]float64, d.numBins)
	phase = make([]float64, d.numBins)
	for i, c := range coeffs {
		mag[i] = cmplx.Abs(c)
		phase[i] = cmplx.Phase(c)
	}

	if d.opts.FilterSize >= 3 {
		medianSubtract(mag, d.opts.FilterSize)
	}
	return mag, phase
}

func (d *Detector) detect(mag, phase, refMag []float64) float64 {
	switch d.opts.Function {
	case FunctionHighFrequency:
		sum := 0.0
		for i, m := range mag {
			sum += float64(i) * m * m
		}
		return sum / float64(len(mag))

	case FunctionComplexDomain, FunctionRectifiedComplex:
		rectified := d.opts.Function == FunctionRectifiedComplex
		sum := 0.0
		for i := range mag {
			// Predict the current bin from the last two phases.
			predPhase := 2*d.prevPhase[i] - d.prevPrevPhase[i]
			pred := cmplx.Rect(refMag[i], predPhase)
			cur := cmplx.Rect(mag[i], phase[i])
			dev := cmplx.Abs(cur - pred)
			if rectified && mag[i] <= refMag[i] {
				continue
			}
			sum += dev
		}
		return sum / float64(len(mag))

	case FunctionPhaseDev, FunctionWeightedPhaseDev:
		weighted := d.opts.Function == FunctionWeightedPhaseDev
		sum := 0.0
		for i := range mag {
			dev := math.Abs(princarg(phase[i] - 2*d.prevPhase[i] + d.prevPrevPhase[i]))
			if weighted {
				dev *= mag[i]
			}
			sum += dev
		}
		return sum / float64(len(mag))

	case FunctionModKL:
		sum := 0.0
		for i := range mag {
			sum += math.Log(1 + mag[i]/(refMag[i]+epsilon))
		}
		return sum / float64(len(mag))

	case FunctionItakuraSaito:
		sum := 0.0
		for i := range mag {
			r := (mag[i]*mag[i] + epsilon) / (refMag[i]*refMag[i] + epsilon)
			sum += r - math.Log(r) - 1
		}
		return sum / float64(len(mag))

	case FunctionCosine:
		dot, normA, normB := 0.0, 0.0, 0.0
		for i := range mag {
			dot += mag[i] * refMag[i]
			normA += mag[i] * mag[i]
			normB += refMag[i] * refMag[i]
		}
		if normA == 0 || normB == 0 {
			return 0
		}
		return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))

	case FunctionNormPower:
		diff, total := 0.0, 0.0
		for i := range mag {
			p, q := mag[i]*mag[i], refMag[i]*refMag[i]
			if p > q {
				diff += p - q
			}
			total += p
		}
		if total == 0 {
			return 0
		}
		return diff / total

	default: // FunctionPowerSpectrum
		sum := 0.0
		for i := range mag {
			p, q := mag[i]*mag[i], refMag[i]*refMag[i]
			if p > q {
				sum += p - q
			}
		}
		return sum / float64(len(mag))
	}
}

// princarg maps p into (-pi, pi].
func princarg(p float64) float64 {
	for p > math.Pi {
		p -= 2 * math.Pi
	}
	for p <= -math.Pi {
		p += 2 * math.Pi
	}
	return p
}

// medianSubtract removes the running median background from mag in
// place, rectifying the result.
func medianSubtract(mag []float64, filterSize int) {
	half := filterSize / 2
	src := make([]float64, len(mag))
	copy(src, mag)
	buf := make([]float64, 0, filterSize)

	for i := range mag {
		lo, hi := i-half, i+half+1
		if lo < 0 {
			lo = 0
		}
		if hi > len(src) {
			hi = len(src)
		}
		buf = append(buf[:0], src[lo:hi]...)
		sort.Float64s(buf)
		med := buf[len(buf)/2]
		mag[i] = math.Max(0, mag[i]-med)
	}
}
