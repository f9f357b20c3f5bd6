package segment

import (
	"math"

	"github.com/hupe1980/sonago"
)

// EnvelopeOptions configure an Envelope segmenter.
type EnvelopeOptions struct {
	// OnThreshold is the relative envelope level in dB above which an
	// onset is declared.
	OnThreshold float64

	// OffThreshold closes the gate again; must be <= OnThreshold.
	OffThreshold float64

	// Floor is the noise floor in dB; input below it is clamped.
	Floor float64

	// FastRampUp, FastRampDown are the fast follower times in samples.
	FastRampUp   int
	FastRampDown int

	// SlowRampUp, SlowRampDown are the slow follower times in samples.
	SlowRampUp   int
	SlowRampDown int

	// HiPassFreq applies a one-pole high-pass before the follower when
	// positive, normalized to the sample rate (freq/sampleRate).
	HiPassFreq float64

	// Debounce is the minimum number of samples between onsets.
	Debounce int
}

// Envelope detects onsets in raw audio with a dual dB envelope
// follower: a fast follower tracks the signal, a slow one tracks the
// background, and the gate opens when their difference exceeds
// OnThreshold. Not safe for concurrent use.
type Envelope struct {
	opts EnvelopeOptions

	hipassCoeff float64
	hipassState float64

	fast float64
	slow float64

	gateOpen    bool
	sampleCount int
	lastOnset   int
	initialized bool
}

// NewEnvelope creates an envelope segmenter. Defaults: on +10 dB, off
// +5 dB relative, floor -60 dB, fast 10/100 samples, slow 100/1000
// samples.
func NewEnvelope(optFns ...func(*EnvelopeOptions)) (*Envelope, error) {
	opts := EnvelopeOptions{
		OnThreshold:  10,
		OffThreshold: 5,
		Floor:        -60,
		FastRampUp:   10,
		FastRampDown: 100,
		SlowRampUp:   100,
		SlowRampDown: 1000,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.OffThreshold > opts.OnThreshold {
		return nil, sonago.NewInvalidConfig("offThreshold", "must be <= onThreshold")
	}
	if opts.FastRampUp < 1 || opts.FastRampDown < 1 || opts.SlowRampUp < 1 || opts.SlowRampDown < 1 {
		return nil, sonago.NewInvalidConfig("ramp", "times must be >= 1 sample")
	}
	if opts.HiPassFreq < 0 || opts.HiPassFreq >= 0.5 {
		return nil, sonago.NewInvalidConfig("hiPassFreq", "must be in [0, 0.5)")
	}
	if opts.Debounce < 0 {
		return nil, sonago.NewInvalidConfig("debounce", "must be >= 0")
	}

	e := &Envelope{opts: opts, lastOnset: -1}
	if opts.HiPassFreq > 0 {
		e.hipassCoeff = math.Exp(-2 * math.Pi * opts.HiPassFreq)
	}
	return e, nil
}

// Reset clears follower and gate state.
func (e *Envelope) Reset() {
	e.hipassState = 0
	e.fast = 0
	e.slow = 0
	e.gateOpen = false
	e.sampleCount = 0
	e.lastOnset = -1
	e.initialized = false
}

// Process consumes one audio sample and reports whether it starts a
// new segment.
func (e *Envelope) Process(sample float64) bool {
	if e.opts.HiPassFreq > 0 {
		// One-pole high-pass: remove DC and rumble.
		y := e.hipassCoeff * (e.hipassState + sample)
		e.hipassState = y - sample
		sample = y
	}

	level := math.Max(e.opts.Floor, toDB(math.Abs(sample)))

	if !e.initialized {
		e.fast = level
		e.slow = level
		e.initialized = true
	}
	e.fast = ramp(e.fast, level, e.opts.FastRampUp, e.opts.FastRampDown)
	e.slow = ramp(e.slow, level, e.opts.SlowRampUp, e.opts.SlowRampDown)

	relative := e.fast - e.slow

	idx := e.sampleCount
	e.sampleCount++

	switch {
	case !e.gateOpen && relative > e.opts.OnThreshold && e.fast > e.opts.Floor:
		e.gateOpen = true
		if e.lastOnset < 0 || idx-e.lastOnset > e.opts.Debounce {
			e.lastOnset = idx
			return true
		}
	case e.gateOpen && relative < e.opts.OffThreshold:
		e.gateOpen = false
	}
	return false
}

// ProcessAll runs Process over a buffer, returning a 0/1 value per
// sample.
func (e *Envelope) ProcessAll(samples []float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		if e.Process(s) {
			out[i] = 1
		}
	}
	return out
}

// ramp slews env toward target with separate attack and release times.
func ramp(env, target float64, up, down int) float64 {
	if target > env {
		return env + (target-env)/float64(up)
	}
	return env + (target-env)/float64(down)
}

func toDB(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(x)
}
