package bufstats

import (
	"fmt"

	"github.com/hupe1980/sonago"
	"github.com/hupe1980/sonago/internal/stat"
	"github.com/hupe1980/sonago/tensor"
)

// Options configures BufStats.
//
// NumFrames/NumChannels of -1 select everything from the corresponding
// start offset through the end of the source.
type Options struct {
	// StartFrame is the first frame of the analysed window.
	StartFrame int
	// NumFrames is the analysed frame span, or -1 for "to the end".
	NumFrames int
	// StartChannel is the first analysed channel.
	StartChannel int
	// NumChannels is the analysed channel count, or -1 for "to the end".
	NumChannels int
	// Select masks the canonical statistics kept in the output.
	Select Selection
	// NumDerivatives adds statistic blocks for the 1st/2nd finite
	// difference of the signal. Must be in [0, 2].
	NumDerivatives int
	// LowPercentile, MiddlePercentile and HighPercentile configure the
	// three percentile slots. Each in [0, 100], non-decreasing.
	LowPercentile    float64
	MiddlePercentile float64
	HighPercentile   float64
	// OutlierCutoff removes samples outside cutoff*IQR of the quartiles
	// before computing statistics. Negative disables trimming.
	OutlierCutoff float64
}

// DefaultOptions returns the default BufStats options: the full source,
// all statistics, no derivatives, percentiles 0/50/100, trimming off.
func DefaultOptions() Options {
	return Options{
		NumFrames:        -1,
		NumChannels:      -1,
		Select:           SelectAll(),
		MiddlePercentile: 50,
		HighPercentile:   100,
		OutlierCutoff:    -1,
	}
}

func validateOptions(o Options) error {
	if o.StartFrame < 0 {
		return sonago.NewInvalidConfig("StartFrame", "must be >= 0")
	}
	if o.NumFrames != -1 && o.NumFrames <= 0 {
		return sonago.NewInvalidConfig("NumFrames", "must be > 0 or -1")
	}
	if o.StartChannel < 0 {
		return sonago.NewInvalidConfig("StartChannel", "must be >= 0")
	}
	if o.NumChannels != -1 && o.NumChannels <= 0 {
		return sonago.NewInvalidConfig("NumChannels", "must be > 0 or -1")
	}
	if o.NumDerivatives < 0 || o.NumDerivatives > 2 {
		return sonago.NewInvalidConfig("NumDerivatives", "must be in [0, 2]")
	}
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"LowPercentile", o.LowPercentile},
		{"MiddlePercentile", o.MiddlePercentile},
		{"HighPercentile", o.HighPercentile},
	} {
		if p.value < 0 || p.value > 100 {
			return sonago.NewInvalidConfig(p.name, "must be in [0, 100]")
		}
	}
	if o.LowPercentile > o.MiddlePercentile {
		return sonago.NewInvalidConfig("LowPercentile", "must be <= MiddlePercentile")
	}
	if o.MiddlePercentile > o.HighPercentile {
		return sonago.NewInvalidConfig("MiddlePercentile", "must be <= HighPercentile")
	}
	return nil
}

// BufStats computes masked, windowed statistics over channel-major buffers.
// Not safe for concurrent use; safe to move between goroutines.
type BufStats struct {
	opts Options
}

// New creates a BufStats with the given option mutations applied to
// DefaultOptions. Invalid configurations are rejected here, not at
// process time.
func New(optFns ...func(o *Options)) (*BufStats, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	return &BufStats{opts: opts}, nil
}

// Options returns the current configuration.
func (b *BufStats) Options() Options { return b.opts }

// SetOptions mutates and re-validates the configuration. On error the
// previous configuration is kept.
func (b *BufStats) SetOptions(optFns ...func(o *Options)) error {
	opts := b.opts
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := validateOptions(opts); err != nil {
		return err
	}
	b.opts = opts
	return nil
}

// Process computes statistics over the configured window of a
// channel-major source buffer.
//
// weights, when non-nil, must match the selected frame span. If no
// weight is positive the result is an all-zero output of the correct
// shape; this is a defined result, not an error.
func (b *BufStats) Process(source []float64, numFrames, numChannels int, weights []float64) (*Output, error) {
	if err := tensor.ValidateChannelMajor(source, numFrames, numChannels); err != nil {
		return nil, err
	}

	o := b.opts
	if o.StartFrame >= numFrames {
		return nil, sonago.NewInvalidConfig("StartFrame", "out of range")
	}
	selFrames := o.NumFrames
	if selFrames == -1 {
		selFrames = numFrames - o.StartFrame
	}
	if o.StartFrame+selFrames > numFrames {
		return nil, sonago.NewInvalidConfig("NumFrames", "out of range")
	}
	if selFrames <= o.NumDerivatives {
		return nil, sonago.NewInvalidConfig("NumFrames", "selected frame span must exceed NumDerivatives")
	}

	if o.StartChannel >= numChannels {
		return nil, sonago.NewInvalidConfig("StartChannel", "out of range")
	}
	selChannels := o.NumChannels
	if selChannels == -1 {
		selChannels = numChannels - o.StartChannel
	}
	if o.StartChannel+selChannels > numChannels {
		return nil, sonago.NewInvalidConfig("NumChannels", "out of range")
	}

	selected := o.Select.Count()
	if selected == 0 {
		return nil, sonago.NewInvalidConfig("Select", "must enable at least one statistic")
	}
	valuesPerChannel := selected * (o.NumDerivatives + 1)

	if weights != nil && len(weights) != selFrames {
		return nil, &sonago.ErrDimensionMismatch{Expected: selFrames, Actual: len(weights)}
	}

	out := &Output{
		values:           make([]float64, selChannels*valuesPerChannel),
		numChannels:      selChannels,
		valuesPerChannel: valuesPerChannel,
	}
	if weights != nil && allNonPositive(weights) {
		return out, nil
	}

	window, err := tensor.ExtractWindow(source, numFrames, numChannels, tensor.Window{
		StartFrame:   o.StartFrame,
		NumFrames:    selFrames,
		StartChannel: o.StartChannel,
		NumChannels:  selChannels,
	})
	if err != nil {
		return nil, fmt.Errorf("extract window: %w", err)
	}

	p := stat.Percentiles{Low: o.LowPercentile, Mid: o.MiddlePercentile, High: o.HighPercentile}
	full := make([]float64, (o.NumDerivatives+1)*stat.NumStats)
	for ch := 0; ch < selChannels; ch++ {
		series := tensor.Channel(window, selFrames, ch)
		series, w := stat.TrimOutliers(series, weights, o.OutlierCutoff)
		stat.DescribeDerivatives(series, w, o.NumDerivatives, p, full)

		write := ch * valuesPerChannel
		for i, v := range full {
			if o.Select[i%stat.NumStats] {
				out.values[write] = v
				write++
			}
		}
	}
	return out, nil
}

func allNonPositive(weights []float64) bool {
	for _, w := range weights {
		if w > 0 {
			return false
		}
	}
	return true
}
