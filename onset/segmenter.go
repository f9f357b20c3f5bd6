package onset

import (
	"github.com/hupe1980/sonago"
)

// SegmenterOptions configure a Segmenter on top of the detector
// options.
type SegmenterOptions struct {
	Options

	// Threshold is the detection value above which an onset triggers.
	Threshold float64

	// Debounce is the minimum number of frames between triggers.
	Debounce int
}

// Segmenter applies a threshold and debounce to a Detector, emitting a
// binary onset decision per frame.
type Segmenter struct {
	detector  *Detector
	threshold float64
	debounce  int

	prevValue   float64
	frameCount  int
	lastTrigger int
}

// NewSegmenter creates a segmenter. Defaults: detector defaults,
// threshold 0.5, no debounce.
func NewSegmenter(optFns ...func(*SegmenterOptions)) (*Segmenter, error) {
	opts := SegmenterOptions{
		Options:   Options{WindowSize: 1024},
		Threshold: 0.5,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Debounce < 0 {
		return nil, sonago.NewInvalidConfig("debounce", "must be >= 0")
	}

	detector, err := NewDetector(func(o *Options) {
		*o = opts.Options
	})
	if err != nil {
		return nil, err
	}

	return &Segmenter{
		detector:    detector,
		threshold:   opts.Threshold,
		debounce:    opts.Debounce,
		lastTrigger: -1,
	}, nil
}

// Reset clears the detector history and debounce state.
func (s *Segmenter) Reset() {
	s.detector.Reset()
	s.prevValue = 0
	s.frameCount = 0
	s.lastTrigger = -1
}

// ProcessFrame returns true when this frame crosses the threshold from
// below and the debounce interval has elapsed.
func (s *Segmenter) ProcessFrame(input []float64) (bool, error) {
	value, err := s.detector.ProcessFrame(input)
	if err != nil {
		return false, err
	}

	crossed := value > s.threshold && s.prevValue <= s.threshold
	debounced := s.lastTrigger < 0 || s.frameCount-s.lastTrigger > s.debounce

	frame := s.frameCount
	s.prevValue = value
	s.frameCount++

	if crossed && debounced {
		s.lastTrigger = frame
		return true, nil
	}
	return false, nil
}
