package bufstats

import (
	"github.com/hupe1980/sonago"
	"github.com/hupe1980/sonago/internal/stat"
	"github.com/hupe1980/sonago/tensor"
)

// MultiStatsOptions configures MultiStats.
type MultiStatsOptions struct {
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

// DefaultMultiStatsOptions returns the defaults: no derivatives,
// percentiles 0/50/100, trimming off.
func DefaultMultiStatsOptions() MultiStatsOptions {
	return MultiStatsOptions{
		MiddlePercentile: 50,
		HighPercentile:   100,
		OutlierCutoff:    -1,
	}
}

func validateMultiStatsOptions(o MultiStatsOptions) error {
	return validateOptions(Options{
		NumFrames:        -1,
		NumChannels:      -1,
		NumDerivatives:   o.NumDerivatives,
		LowPercentile:    o.LowPercentile,
		MiddlePercentile: o.MiddlePercentile,
		HighPercentile:   o.HighPercentile,
		OutlierCutoff:    o.OutlierCutoff,
	})
}

// MultiStats computes the full 7-statistic canonical layout per channel
// and derivative order, without selection masking or windowing.
// For each channel the output is [mean, std, skew, kurtosis, low, mid,
// high] for derivative 0, followed by derivative 1 and 2 when enabled.
type MultiStats struct {
	opts MultiStatsOptions
}

// NewMultiStats creates a MultiStats with the given option mutations
// applied to DefaultMultiStatsOptions.
func NewMultiStats(optFns ...func(o *MultiStatsOptions)) (*MultiStats, error) {
	opts := DefaultMultiStatsOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := validateMultiStatsOptions(opts); err != nil {
		return nil, err
	}
	return &MultiStats{opts: opts}, nil
}

// Options returns the current configuration.
func (m *MultiStats) Options() MultiStatsOptions { return m.opts }

// SetOptions mutates and re-validates the configuration.
func (m *MultiStats) SetOptions(optFns ...func(o *MultiStatsOptions)) error {
	opts := m.opts
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := validateMultiStatsOptions(opts); err != nil {
		return err
	}
	m.opts = opts
	return nil
}

// ValuesPerChannel returns the output width per channel.
func (m *MultiStats) ValuesPerChannel() int {
	return stat.NumStats * (m.opts.NumDerivatives + 1)
}

// Process computes statistics for channel-major input. weights, when
// non-nil, must have length numFrames; all-non-positive weights yield
// an all-zero output of the correct shape.
func (m *MultiStats) Process(input []float64, numFrames, numChannels int, weights []float64) (*Output, error) {
	if err := tensor.ValidateChannelMajor(input, numFrames, numChannels); err != nil {
		return nil, err
	}
	if numFrames <= m.opts.NumDerivatives {
		return nil, sonago.NewInvalidConfig("NumDerivatives", "numFrames must exceed NumDerivatives")
	}
	if weights != nil && len(weights) != numFrames {
		return nil, &sonago.ErrDimensionMismatch{Expected: numFrames, Actual: len(weights)}
	}

	valuesPerChannel := m.ValuesPerChannel()
	out := &Output{
		values:           make([]float64, numChannels*valuesPerChannel),
		numChannels:      numChannels,
		valuesPerChannel: valuesPerChannel,
	}
	if weights != nil && allNonPositive(weights) {
		return out, nil
	}

	o := m.opts
	p := stat.Percentiles{Low: o.LowPercentile, Mid: o.MiddlePercentile, High: o.HighPercentile}
	for ch := 0; ch < numChannels; ch++ {
		series := tensor.Channel(input, numFrames, ch)
		series, w := stat.TrimOutliers(series, weights, o.OutlierCutoff)
		stat.DescribeDerivatives(series, w, o.NumDerivatives, p, out.values[ch*valuesPerChannel:(ch+1)*valuesPerChannel])
	}
	return out, nil
}
