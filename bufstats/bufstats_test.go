package bufstats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessMeanOnly(t *testing.T) {
	bs, err := New(func(o *Options) {
		o.Select = Select(StatMean)
	})
	require.NoError(t, err)

	out, err := bs.Process([]float64{1, 2, 3, 4}, 4, 1, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, out.NumChannels())
	assert.Equal(t, 1, out.ValuesPerChannel())
	require.Len(t, out.Values(), 1)
	assert.InDelta(t, 2.5, out.Values()[0], 1e-12)
}

func TestProcessDerivativeMeans(t *testing.T) {
	bs, err := New(func(o *Options) {
		o.Select = Select(StatMean)
		o.NumDerivatives = 2
	})
	require.NoError(t, err)

	out, err := bs.Process([]float64{1, 2, 3, 4}, 4, 1, nil)
	require.NoError(t, err)

	values := out.Values()
	require.Len(t, values, 3)
	assert.InDelta(t, 2.5, values[0], 1e-12, "order-0 mean")
	assert.InDelta(t, 1.0, values[1], 1e-12, "order-1 mean")
	assert.InDelta(t, 0.0, values[2], 1e-12, "order-2 mean")
}

func TestProcessWeightedMean(t *testing.T) {
	bs, err := New(func(o *Options) {
		o.Select = Select(StatMean)
	})
	require.NoError(t, err)

	out, err := bs.Process([]float64{0, 10}, 2, 1, []float64{0.9, 0.1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out.Values()[0], 1e-9)
}

func TestProcessNonPositiveWeightsReturnZeros(t *testing.T) {
	bs, err := New(func(o *Options) {
		o.Select = Select(StatMean, StatStd)
		o.NumDerivatives = 1
	})
	require.NoError(t, err)

	out, err := bs.Process([]float64{1, 2, 3, 4}, 4, 1, []float64{0, -1, 0, -2})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, out.Values())
}

func TestProcessFrameAndChannelWindow(t *testing.T) {
	bs, err := New(func(o *Options) {
		o.Select = Select(StatMean)
		o.StartFrame = 1
		o.NumFrames = 2
		o.StartChannel = 1
		o.NumChannels = 1
	})
	require.NoError(t, err)

	// 2 channels x 4 frames, channel-major
	source := []float64{1, 2, 3, 4, 10, 20, 30, 40}
	out, err := bs.Process(source, 4, 2, nil)
	require.NoError(t, err)

	require.Equal(t, 1, out.NumChannels())
	assert.InDelta(t, 25.0, out.Values()[0], 1e-12, "mean of frames 1..2 of channel 1")
}

func TestProcessMultiChannelLayout(t *testing.T) {
	bs, err := New(func(o *Options) {
		o.Select = Select(StatMean, StatHigh)
	})
	require.NoError(t, err)

	source := []float64{1, 2, 3, 4, 10, 20, 30, 40}
	out, err := bs.Process(source, 4, 2, nil)
	require.NoError(t, err)

	require.Equal(t, 2, out.NumChannels())
	require.Equal(t, 2, out.ValuesPerChannel())

	ch0, ok := out.Channel(0)
	require.True(t, ok)
	assert.InDelta(t, 2.5, ch0[0], 1e-12)
	assert.InDelta(t, 4.0, ch0[1], 1e-12)

	ch1, ok := out.Channel(1)
	require.True(t, ok)
	assert.InDelta(t, 25.0, ch1[0], 1e-12)
	assert.InDelta(t, 40.0, ch1[1], 1e-12)

	_, ok = out.Channel(2)
	assert.False(t, ok, "out-of-range channel must fail")
}

func TestProcessValidation(t *testing.T) {
	tests := []struct {
		name    string
		optFns  []func(o *Options)
		source  []float64
		frames  int
		chans   int
		weights []float64
	}{
		{"ShapeMismatch", nil, []float64{1, 2, 3}, 4, 1, nil},
		{"ZeroFrames", nil, nil, 0, 1, nil},
		{"ZeroChannels", nil, nil, 4, 0, nil},
		{
			"StartFrameOutOfRange",
			[]func(o *Options){func(o *Options) { o.StartFrame = 4 }},
			[]float64{1, 2, 3, 4}, 4, 1, nil,
		},
		{
			"FrameSpanOutOfRange",
			[]func(o *Options){func(o *Options) { o.StartFrame = 2; o.NumFrames = 3 }},
			[]float64{1, 2, 3, 4}, 4, 1, nil,
		},
		{
			"SpanNotAboveDerivatives",
			[]func(o *Options){func(o *Options) { o.NumFrames = 2; o.NumDerivatives = 2 }},
			[]float64{1, 2, 3, 4}, 4, 1, nil,
		},
		{
			"StartChannelOutOfRange",
			[]func(o *Options){func(o *Options) { o.StartChannel = 1 }},
			[]float64{1, 2, 3, 4}, 4, 1, nil,
		},
		{"WeightsLengthMismatch", nil, []float64{1, 2, 3, 4}, 4, 1, []float64{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs, err := New(tt.optFns...)
			require.NoError(t, err)
			_, err = bs.Process(tt.source, tt.frames, tt.chans, tt.weights)
			assert.Error(t, err)
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		fn   func(o *Options)
	}{
		{"DerivativesTooHigh", func(o *Options) { o.NumDerivatives = 3 }},
		{"NegativeDerivatives", func(o *Options) { o.NumDerivatives = -1 }},
		{"LowPercentileOutOfRange", func(o *Options) { o.LowPercentile = -1 }},
		{"HighPercentileOutOfRange", func(o *Options) { o.HighPercentile = 101 }},
		{"UnorderedPercentiles", func(o *Options) { o.LowPercentile = 60; o.MiddlePercentile = 50 }},
		{"MiddleAboveHigh", func(o *Options) { o.MiddlePercentile = 90; o.HighPercentile = 80 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.fn)
			assert.Error(t, err)
		})
	}
}

func TestSetOptionsKeepsPreviousOnError(t *testing.T) {
	bs, err := New()
	require.NoError(t, err)

	err = bs.SetOptions(func(o *Options) { o.NumDerivatives = 7 })
	require.Error(t, err)
	assert.Equal(t, 0, bs.Options().NumDerivatives)

	require.NoError(t, bs.SetOptions(func(o *Options) { o.NumDerivatives = 1 }))
	assert.Equal(t, 1, bs.Options().NumDerivatives)
}

func TestProcessNoStatisticSelected(t *testing.T) {
	bs, err := New(func(o *Options) {
		o.Select = Selection{}
	})
	require.NoError(t, err)

	_, err = bs.Process([]float64{1, 2}, 2, 1, nil)
	assert.Error(t, err)
}

func TestProcessOutlierCutoff(t *testing.T) {
	bs, err := New(func(o *Options) {
		o.Select = Select(StatMean)
		o.OutlierCutoff = 1.5
	})
	require.NoError(t, err)

	out, err := bs.Process([]float64{1, 2, 3, 4, 5, 1000}, 6, 1, nil)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, out.Values()[0], 1e-12, "outlier must not influence the mean")
}
