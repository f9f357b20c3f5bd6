// Package loudness measures momentary loudness and peak level of
// audio frames, following the ITU-R BS.1770 K-weighting model.
package loudness

import (
	"math"

	"github.com/hupe1980/sonago"
)

// silenceFloor is the lowest reported level in dB.
const silenceFloor = -144.0

// biquad is a direct-form-I second-order section.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	x1, x2 float64
	y1, y2 float64
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

func (f *biquad) reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}

// newShelf builds the stage-1 high-frequency shelf of the K-weighting
// curve for the given sample rate.
func newShelf(sampleRate float64) *biquad {
	// Analog prototype per BS.1770: +4 dB shelf near 1.68 kHz.
	const (
		db = 3.999843853973347
		f0 = 1681.974450955533
		q  = 0.7071752369554196
	)

	k := math.Tan(math.Pi * f0 / sampleRate)
	vh := math.Pow(10, db/20)
	vb := math.Pow(vh, 0.4996667741545416)

	a0 := 1 + k/q + k*k
	return &biquad{
		b0: (vh + vb*k/q + k*k) / a0,
		b1: 2 * (k*k - vh) / a0,
		b2: (vh - vb*k/q + k*k) / a0,
		a1: 2 * (k*k - 1) / a0,
		a2: (1 - k/q + k*k) / a0,
	}
}

// newHighpass builds the stage-2 RLB high-pass of the K-weighting
// curve for the given sample rate.
func newHighpass(sampleRate float64) *biquad {
	const (
		f0 = 38.13547087602444
		q  = 0.5003270373238773
	)

	k := math.Tan(math.Pi * f0 / sampleRate)
	a0 := 1 + k/q + k*k
	return &biquad{
		b0: 1,
		b1: -2,
		b2: 1,
		a1: 2 * (k*k - 1) / a0,
		a2: (1 - k/q + k*k) / a0,
	}
}

// Options configure a Meter.
type Options struct {
	// SampleRate of the analyzed signal.
	SampleRate float64

	// KWeighting applies the BS.1770 weighting filters before the
	// energy measurement.
	KWeighting bool

	// TruePeak refines the peak estimate by parabolic interpolation
	// around the largest sample.
	TruePeak bool
}

// Meter measures the loudness and peak of successive audio frames.
// Filter state carries across frames; Reset clears it.
type Meter struct {
	opts     Options
	shelf    *biquad
	highpass *biquad
	buf      []float64
}

// NewMeter creates a loudness meter. Defaults: 44100 Hz, K-weighting
// and true-peak interpolation enabled.
func NewMeter(optFns ...func(*Options)) (*Meter, error) {
	opts := Options{
		SampleRate: 44100,
		KWeighting: true,
		TruePeak:   true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.SampleRate <= 0 {
		return nil, sonago.NewInvalidConfig("sampleRate", "must be > 0")
	}

	m := &Meter{opts: opts}
	if opts.KWeighting {
		m.shelf = newShelf(opts.SampleRate)
		m.highpass = newHighpass(opts.SampleRate)
	}
	return m, nil
}

// Reset clears the weighting filter state.
func (m *Meter) Reset() {
	if m.shelf != nil {
		m.shelf.reset()
		m.highpass.reset()
	}
}

// Process measures one frame, returning its loudness and peak in dB.
// Both are floored at -144 dB.
func (m *Meter) Process(frame []float64) (loudness, peak float64, err error) {
	if len(frame) == 0 {
		return 0, 0, sonago.NewInvalidConfig("frame", "must not be empty")
	}

	peak = m.peak(frame)

	work := frame
	if m.opts.KWeighting {
		if cap(m.buf) < len(frame) {
			m.buf = make([]float64, len(frame))
		}
		work = m.buf[:len(frame)]
		for i, x := range frame {
			work[i] = m.highpass.process(m.shelf.process(x))
		}
	}

	meanSquare := 0.0
	for _, x := range work {
		meanSquare += x * x
	}
	meanSquare /= float64(len(work))

	loudness = silenceFloor
	if meanSquare > 0 {
		loudness = math.Max(silenceFloor, -0.691+10*math.Log10(meanSquare))
	}
	return loudness, peak, nil
}

// peak returns the frame's maximum absolute level in dB, optionally
// refined by fitting a parabola through the peak sample and its
// neighbours.
func (m *Meter) peak(frame []float64) float64 {
	maxIdx, maxAbs := 0, 0.0
	for i, x := range frame {
		if a := math.Abs(x); a > maxAbs {
			maxAbs = a
			maxIdx = i
		}
	}
	if maxAbs == 0 {
		return silenceFloor
	}

	level := maxAbs
	if m.opts.TruePeak && maxIdx > 0 && maxIdx < len(frame)-1 {
		alpha := math.Abs(frame[maxIdx-1])
		gamma := math.Abs(frame[maxIdx+1])
		denom := alpha - 2*maxAbs + gamma
		if denom < 0 {
			p := 0.5 * (alpha - gamma) / denom
			interp := maxAbs - 0.25*(alpha-gamma)*p
			if interp > level {
				level = interp
			}
		}
	}

	return math.Max(silenceFloor, 20*math.Log10(level))
}
