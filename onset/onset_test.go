package onset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func impulseFrame(size, at int) []float64 {
	out := make([]float64, size)
	out[at] = 1
	return out
}

func TestDetectorSilence(t *testing.T) {
	d, err := NewDetector(func(o *Options) {
		o.FilterSize = 5
	})
	require.NoError(t, err)

	silence := make([]float64, 1024)
	for i := 0; i < 4; i++ {
		val, err := d.ProcessFrame(silence)
		require.NoError(t, err)
		assert.Less(t, math.Abs(val), 1.0)
	}
}

func TestDetectorImpulse(t *testing.T) {
	d, err := NewDetector()
	require.NoError(t, err)

	// Seed history with silence, then feed an impulse away from the
	// window edge where the Hann weight is zero.
	silence := make([]float64, 1024)
	_, err = d.ProcessFrame(silence)
	require.NoError(t, err)
	_, err = d.ProcessFrame(silence)
	require.NoError(t, err)
	base, err := d.ProcessFrame(silence)
	require.NoError(t, err)

	val, err := d.ProcessFrame(impulseFrame(1024, 512))
	require.NoError(t, err)
	assert.Greater(t, val, base)
	assert.NotZero(t, val)
}

func TestDetectorAllFunctions(t *testing.T) {
	silence := make([]float64, 512)
	impulse := impulseFrame(512, 256)

	for fn := FunctionPowerSpectrum; fn <= FunctionNormPower; fn++ {
		d, err := NewDetector(func(o *Options) {
			o.WindowSize = 512
			o.Function = fn
		})
		require.NoError(t, err, fn.String())

		for i := 0; i < 3; i++ {
			_, err = d.ProcessFrame(silence)
			require.NoError(t, err, fn.String())
		}
		val, err := d.ProcessFrame(impulse)
		require.NoError(t, err, fn.String())
		assert.False(t, math.IsNaN(val), fn.String())
		assert.False(t, math.IsInf(val, 0), fn.String())
	}
}

func TestDetectorFrameDelta(t *testing.T) {
	d, err := NewDetector(func(o *Options) {
		o.WindowSize = 512
		o.FrameDelta = 256
	})
	require.NoError(t, err)

	// Needs windowSize+frameDelta samples.
	_, err = d.ProcessFrame(make([]float64, 512))
	require.Error(t, err)

	// Silence at the head, impulse in the offset window: the two
	// in-buffer spectra differ.
	input := make([]float64, 768)
	input[600] = 1
	val, err := d.ProcessFrame(input)
	require.NoError(t, err)
	assert.Greater(t, val, 0.0)
}

func TestDetectorMedianFilter(t *testing.T) {
	signal := make([]float64, 1024)
	for i := range signal {
		signal[i] = math.Sin(2*math.Pi*float64(i)/64) * 0.5
	}

	plain, err := NewDetector(func(o *Options) {
		o.Function = FunctionHighFrequency
	})
	require.NoError(t, err)

	filtered, err := NewDetector(func(o *Options) {
		o.Function = FunctionHighFrequency
		o.FilterSize = 21
	})
	require.NoError(t, err)

	p, err := plain.ProcessFrame(signal)
	require.NoError(t, err)
	f, err := filtered.ProcessFrame(signal)
	require.NoError(t, err)

	// Background subtraction removes energy.
	assert.Less(t, f, p)
}

func TestDetectorReset(t *testing.T) {
	d, err := NewDetector(func(o *Options) {
		o.WindowSize = 512
		o.Function = FunctionHighFrequency
	})
	require.NoError(t, err)

	impulse := impulseFrame(512, 256)
	first, err := d.ProcessFrame(impulse)
	require.NoError(t, err)
	assert.Greater(t, first, 0.0)

	d.Reset()
	again, err := d.ProcessFrame(impulse)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestDetectorValidation(t *testing.T) {
	_, err := NewDetector(func(o *Options) {
		o.WindowSize = 512
		o.FFTSize = 256
	})
	require.Error(t, err)

	_, err = NewDetector(func(o *Options) {
		o.Function = Function(42)
	})
	require.Error(t, err)

	d, err := NewDetector()
	require.NoError(t, err)
	_, err = d.ProcessFrame(make([]float64, 100))
	require.Error(t, err)
}

func TestSegmenterSilence(t *testing.T) {
	s, err := NewSegmenter(func(o *SegmenterOptions) {
		o.Threshold = 0.5
	})
	require.NoError(t, err)

	silence := make([]float64, 1024)
	for i := 0; i < 8; i++ {
		hit, err := s.ProcessFrame(silence)
		require.NoError(t, err)
		assert.False(t, hit)
	}
}

func TestSegmenterImpulseTriggers(t *testing.T) {
	s, err := NewSegmenter(func(o *SegmenterOptions) {
		o.WindowSize = 1024
		o.Threshold = 1e-6
	})
	require.NoError(t, err)

	silence := make([]float64, 1024)
	for i := 0; i < 3; i++ {
		_, err = s.ProcessFrame(silence)
		require.NoError(t, err)
	}

	hit, err := s.ProcessFrame(impulseFrame(1024, 512))
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestSegmenterDebounce(t *testing.T) {
	s, err := NewSegmenter(func(o *SegmenterOptions) {
		o.WindowSize = 512
		o.Threshold = 1e-9
		o.Debounce = 100
	})
	require.NoError(t, err)

	silence := make([]float64, 512)
	impulse := impulseFrame(512, 256)

	for i := 0; i < 3; i++ {
		_, err = s.ProcessFrame(silence)
		require.NoError(t, err)
	}

	first, err := s.ProcessFrame(impulse)
	require.NoError(t, err)
	assert.True(t, first)

	// A second onset inside the debounce window is suppressed.
	_, err = s.ProcessFrame(silence)
	require.NoError(t, err)
	second, err := s.ProcessFrame(impulse)
	require.NoError(t, err)
	assert.False(t, second)
}
