package spectral

import (
	"math"

	"github.com/hupe1980/sonago"
)

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// MelBandsOptions configure the filterbank.
type MelBandsOptions struct {
	// NumBands is the number of triangular filters; must be >= 2.
	NumBands int

	// LowHz and HighHz bound the filterbank frequency range.
	LowHz  float64
	HighHz float64

	// SampleRate of the analyzed signal.
	SampleRate float64

	// FFTSize of the spectra fed to Process.
	FFTSize int

	// Normalize scales each filter to unit area.
	Normalize bool

	// UsePower squares magnitudes before filtering.
	UsePower bool

	// LogOutput returns band energies in dB.
	LogOutput bool
}

// MelBands projects magnitude spectra onto a triangular mel-spaced
// filterbank.
type MelBands struct {
	opts    MelBandsOptions
	numBins int
	// filters is row-major: numBands rows of numBins weights.
	filters []float64
}

// NewMelBands creates a filterbank. Defaults: 40 bands, 20 Hz to
// sampleRate/2, 44100 Hz sample rate, FFT size 1024.
func NewMelBands(optFns ...func(*MelBandsOptions)) (*MelBands, error) {
	opts := MelBandsOptions{
		NumBands:   40,
		LowHz:      20,
		SampleRate: 44100,
		FFTSize:    1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HighHz == 0 {
		opts.HighHz = opts.SampleRate / 2
	}

	if opts.NumBands < 2 {
		return nil, sonago.NewInvalidConfig("numBands", "must be >= 2")
	}
	if opts.LowHz < 0 || opts.LowHz >= opts.HighHz {
		return nil, sonago.NewInvalidConfig("lowHz", "must be >= 0 and < highHz")
	}
	if opts.HighHz > opts.SampleRate/2 {
		return nil, sonago.NewInvalidConfig("highHz", "must be <= sampleRate/2")
	}
	if opts.SampleRate <= 0 {
		return nil, sonago.NewInvalidConfig("sampleRate", "must be > 0")
	}
	if opts.FFTSize < 2 {
		return nil, sonago.NewInvalidConfig("fftSize", "must be >= 2")
	}

	numBins := opts.FFTSize/2 + 1
	mb := &MelBands{
		opts:    opts,
		numBins: numBins,
		filters: make([]float64, opts.NumBands*numBins),
	}
	mb.buildFilters()
	return mb, nil
}

// NumBands returns the number of filters.
func (mb *MelBands) NumBands() int { return mb.opts.NumBands }

// NumBins returns the expected spectrum width.
func (mb *MelBands) NumBins() int { return mb.numBins }

func (mb *MelBands) buildFilters() {
	numBands := mb.opts.NumBands
	loMel := hzToMel(mb.opts.LowHz)
	hiMel := hzToMel(mb.opts.HighHz)

	// numBands+2 edge frequencies, evenly spaced on the mel scale.
	edges := make([]float64, numBands+2)
	for i := range edges {
		mel := loMel + (hiMel-loMel)*float64(i)/float64(numBands+1)
		edges[i] = melToHz(mel)
	}

	binHz := mb.opts.SampleRate / float64(mb.opts.FFTSize)
	for b := 0; b < numBands; b++ {
		lo, center, hi := edges[b], edges[b+1], edges[b+2]
		row := mb.filters[b*mb.numBins : (b+1)*mb.numBins]
		sum := 0.0
		for i := 0; i < mb.numBins; i++ {
			f := float64(i) * binHz
			switch {
			case f <= lo || f >= hi:
				row[i] = 0
			case f < center:
				row[i] = (f - lo) / (center - lo)
			default:
				row[i] = (hi - f) / (hi - center)
			}
			sum += row[i]
		}
		if mb.opts.Normalize && sum > 0 {
			inv := 1 / sum
			for i := range row {
				row[i] *= inv
			}
		}
	}
}

// Process projects one magnitude frame onto the filterbank.
func (mb *MelBands) Process(magnitudes []float64) ([]float64, error) {
	if len(magnitudes) != mb.numBins {
		return nil, &sonago.ErrDimensionMismatch{Expected: mb.numBins, Actual: len(magnitudes)}
	}

	out := make([]float64, mb.opts.NumBands)
	for b := 0; b < mb.opts.NumBands; b++ {
		row := mb.filters[b*mb.numBins : (b+1)*mb.numBins]
		sum := 0.0
		for i, m := range magnitudes {
			if mb.opts.UsePower {
				m *= m
			}
			sum += m * row[i]
		}
		if mb.opts.LogOutput {
			sum = 20 * math.Log10(math.Max(sum, 1e-10))
		}
		out[b] = sum
	}
	return out, nil
}

// ProcessAll projects every frame of a spectrum, returning row-major
// band energies.
func (mb *MelBands) ProcessAll(spec *ComplexSpectrum) ([]float64, error) {
	if spec.NumBins() != mb.numBins {
		return nil, &sonago.ErrDimensionMismatch{Expected: mb.numBins, Actual: spec.NumBins()}
	}

	mags := spec.Magnitudes()
	numFrames := spec.NumFrames()
	out := make([]float64, numFrames*mb.opts.NumBands)
	for f := 0; f < numFrames; f++ {
		bands, err := mb.Process(mags[f*mb.numBins : (f+1)*mb.numBins])
		if err != nil {
			return nil, err
		}
		copy(out[f*mb.opts.NumBands:(f+1)*mb.opts.NumBands], bands)
	}
	return out, nil
}
