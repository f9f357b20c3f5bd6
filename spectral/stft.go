// Package spectral provides short-time Fourier analysis and synthesis
// plus mel-band projection over magnitude spectra.
package spectral

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/hupe1980/sonago"
)

// ComplexSpectrum holds the frame-by-frame complex spectra of a
// signal. Frames are stored row-major with NumBins coefficients each.
type ComplexSpectrum struct {
	frames  []complex128
	numBins int
}

// NumFrames returns the number of analysis frames.
func (s *ComplexSpectrum) NumFrames() int {
	if s.numBins == 0 {
		return 0
	}
	return len(s.frames) / s.numBins
}

// NumBins returns the number of frequency bins per frame,
// fftSize/2 + 1.
func (s *ComplexSpectrum) NumBins() int { return s.numBins }

// Frame returns the coefficients of frame i. The slice aliases the
// spectrum's storage.
func (s *ComplexSpectrum) Frame(i int) []complex128 {
	return s.frames[i*s.numBins : (i+1)*s.numBins]
}

// Magnitudes returns the per-frame, per-bin magnitudes, row-major.
func (s *ComplexSpectrum) Magnitudes() []float64 {
	out := make([]float64, len(s.frames))
	for i, c := range s.frames {
		out[i] = cmplx.Abs(c)
	}
	return out
}

// Phases returns the per-frame, per-bin phases, row-major.
func (s *ComplexSpectrum) Phases() []float64 {
	out := make([]float64, len(s.frames))
	for i, c := range s.frames {
		out[i] = cmplx.Phase(c)
	}
	return out
}

// STFTOptions configure analysis and synthesis framing.
type STFTOptions struct {
	// WindowSize is the analysis window length in samples.
	WindowSize int

	// HopSize is the frame advance in samples.
	HopSize int

	// FFTSize is the transform length; must be >= WindowSize. Frames
	// are zero-padded up to it.
	FFTSize int

	// Window selects the analysis window shape.
	Window WindowType
}

// STFT converts between time-domain signals and complex spectra.
type STFT struct {
	opts   STFTOptions
	window []float64
	fft    *fourier.FFT
}

// NewSTFT creates a processor. Defaults: windowSize 1024, hopSize 512,
// fftSize = windowSize, Hann window.
func NewSTFT(optFns ...func(*STFTOptions)) (*STFT, error) {
	opts := STFTOptions{
		WindowSize: 1024,
		HopSize:    512,
		Window:     WindowHann,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.FFTSize == 0 {
		opts.FFTSize = opts.WindowSize
	}

	if opts.WindowSize < 2 {
		return nil, sonago.NewInvalidConfig("windowSize", "must be >= 2")
	}
	if opts.HopSize < 1 {
		return nil, sonago.NewInvalidConfig("hopSize", "must be >= 1")
	}
	if opts.FFTSize < opts.WindowSize {
		return nil, sonago.NewInvalidConfig("fftSize", "must be >= windowSize")
	}

	window, err := MakeWindow(opts.Window, opts.WindowSize)
	if err != nil {
		return nil, err
	}

	return &STFT{
		opts:   opts,
		window: window,
		fft:    fourier.NewFFT(opts.FFTSize),
	}, nil
}

// NumBins returns the number of frequency bins per frame.
func (s *STFT) NumBins() int { return s.opts.FFTSize/2 + 1 }

// HopSize returns the frame advance in samples.
func (s *STFT) HopSize() int { return s.opts.HopSize }

// NumFrames returns how many analysis frames a signal of the given
// length produces.
func (s *STFT) NumFrames(signalLen int) int {
	if signalLen < s.opts.WindowSize {
		return 0
	}
	return 1 + (signalLen-s.opts.WindowSize)/s.opts.HopSize
}

// Process analyzes the signal into a complex spectrum.
func (s *STFT) Process(signal []float64) (*ComplexSpectrum, error) {
	numFrames := s.NumFrames(len(signal))
	if numFrames == 0 {
		return nil, sonago.NewInvalidConfig("signal", "shorter than one analysis window")
	}

	numBins := s.NumBins()
	spec := &ComplexSpectrum{
		frames:  make([]complex128, numFrames*numBins),
		numBins: numBins,
	}

	frame := make([]float64, s.opts.FFTSize)
	for f := 0; f < numFrames; f++ {
		start := f * s.opts.HopSize
		for i := 0; i < s.opts.WindowSize; i++ {
			frame[i] = signal[start+i] * s.window[i]
		}
		for i := s.opts.WindowSize; i < s.opts.FFTSize; i++ {
			frame[i] = 0
		}
		s.fft.Coefficients(spec.frames[f*numBins:(f+1)*numBins], frame)
	}
	return spec, nil
}

// Inverse resynthesizes a time-domain signal by overlap-add,
// compensating for the window envelope. The result has
// (numFrames-1)*hopSize + windowSize samples.
func (s *STFT) Inverse(spec *ComplexSpectrum) ([]float64, error) {
	if spec.numBins != s.NumBins() {
		return nil, &sonago.ErrDimensionMismatch{Expected: s.NumBins(), Actual: spec.numBins}
	}
	numFrames := spec.NumFrames()
	if numFrames == 0 {
		return nil, sonago.NewInvalidConfig("spectrum", "has no frames")
	}

	outLen := (numFrames-1)*s.opts.HopSize + s.opts.WindowSize
	out := make([]float64, outLen)
	norm := make([]float64, outLen)
	frame := make([]float64, s.opts.FFTSize)
	scale := 1 / float64(s.opts.FFTSize)

	for f := 0; f < numFrames; f++ {
		s.fft.Sequence(frame, spec.Frame(f))
		start := f * s.opts.HopSize
		for i := 0; i < s.opts.WindowSize; i++ {
			w := s.window[i]
			out[start+i] += frame[i] * scale * w
			norm[start+i] += w * w
		}
	}

	// Divide out the summed squared window; leave uncovered edges
	// untouched.
	for i := range out {
		if norm[i] > 1e-10 {
			out[i] /= norm[i]
		}
	}
	return out, nil
}

// BinFrequency returns the center frequency of bin i at the given
// sample rate.
func (s *STFT) BinFrequency(i int, sampleRate float64) float64 {
	return float64(i) * sampleRate / float64(s.opts.FFTSize)
}
