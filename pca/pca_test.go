package pca

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sonago"
)

func TestPCAFitTransform(t *testing.T) {
	// Variance concentrated on the first axis: the leading component
	// aligns with it and explains 80% of the total variance.
	data := []float64{
		2, 0,
		-2, 0,
		0, 1,
		0, -1,
	}

	p, err := New()
	require.NoError(t, err)

	proj, explained, err := p.FitTransform(data, 4, 2, 1)
	require.NoError(t, err)
	require.Len(t, proj, 4)

	assert.InDelta(t, 0.8, explained, 1e-9)
	assert.InDelta(t, 2.0, math.Abs(proj[0]), 1e-9)
	assert.InDelta(t, 2.0, math.Abs(proj[1]), 1e-9)
	// (0, +/-1) is orthogonal to the leading component and projects to 0.
	assert.InDelta(t, 0.0, math.Abs(proj[2]), 1e-9)
	assert.InDelta(t, 0.0, math.Abs(proj[3]), 1e-9)
}

func TestPCARoundtrip(t *testing.T) {
	data := []float64{
		1, 2, 3,
		4, 5, 7,
		7, 8, 11,
		2, 1, 0,
		5, 4, 6,
		9, 7, 13,
		3, 6, 2,
		6, 9, 8,
	}

	t.Run("full rank", func(t *testing.T) {
		p, err := New()
		require.NoError(t, err)

		proj, explained, err := p.FitTransform(data, 8, 3, 3)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, explained, 1e-9)

		back, err := p.InverseTransform(proj, 8, 3)
		require.NoError(t, err)
		for i := range data {
			assert.InDelta(t, data[i], back[i], 1e-8)
		}
	})

	t.Run("full rank whitened", func(t *testing.T) {
		p, err := New(WithWhiten())
		require.NoError(t, err)

		proj, _, err := p.FitTransform(data, 8, 3, 3)
		require.NoError(t, err)

		back, err := p.InverseTransform(proj, 8, 3)
		require.NoError(t, err)
		for i := range data {
			assert.InDelta(t, data[i], back[i], 1e-8)
		}
	})

	t.Run("full rank standardized", func(t *testing.T) {
		p, err := New(WithStandardize())
		require.NoError(t, err)

		proj, _, err := p.FitTransform(data, 8, 3, 3)
		require.NoError(t, err)

		back, err := p.InverseTransform(proj, 8, 3)
		require.NoError(t, err)
		for i := range data {
			assert.InDelta(t, data[i], back[i], 1e-8)
		}
	})
}

func TestPCAWhitenedVariance(t *testing.T) {
	data := []float64{
		1, 2, 3,
		4, 5, 7,
		7, 8, 11,
		2, 1, 0,
		5, 4, 6,
		9, 7, 13,
		3, 6, 2,
		6, 9, 8,
	}

	p, err := New(WithWhiten())
	require.NoError(t, err)

	proj, _, err := p.FitTransform(data, 8, 3, 2)
	require.NoError(t, err)

	// Each whitened component carries unit sample variance.
	for k := 0; k < 2; k++ {
		sum, sumSq := 0.0, 0.0
		for row := 0; row < 8; row++ {
			v := proj[row*2+k]
			sum += v
			sumSq += v * v
		}
		variance := (sumSq - sum*sum/8) / 7
		assert.InDelta(t, 1.0, variance, 1e-9)
	}
}

func TestPCAWithRobustScale(t *testing.T) {
	// Two extreme rows should not dominate the fitted projection.
	data := []float64{
		1, 2, 3,
		2, 3, 4,
		3, 4, 5,
		4, 5, 6,
		5, 6, 7,
		6, 7, 8,
		1000, -999, 500,
		-500, 1000, -999,
	}

	p, err := New(WithRobustScale(25, 75))
	require.NoError(t, err)

	proj, explained, err := p.FitTransform(data, 8, 3, 2)
	require.NoError(t, err)
	require.Len(t, proj, 16)

	assert.GreaterOrEqual(t, explained, 0.0)
	assert.LessOrEqual(t, explained, 1.0)

	back, err := p.InverseTransform(proj, 8, 2)
	require.NoError(t, err)
	require.Len(t, back, 24)
	for _, v := range back {
		assert.False(t, math.IsNaN(v))
	}
}

func TestPCAExplainedVarianceRatio(t *testing.T) {
	data := []float64{
		2, 0,
		-2, 0,
		0, 1,
		0, -1,
	}

	p, err := New()
	require.NoError(t, err)
	require.NoError(t, p.Fit(data, 4, 2))

	ratios := p.ExplainedVarianceRatio()
	require.Len(t, ratios, 2)
	assert.InDelta(t, 0.8, ratios[0], 1e-9)
	assert.InDelta(t, 0.2, ratios[1], 1e-9)
	assert.GreaterOrEqual(t, ratios[0], ratios[1])
}

func TestPCAValidation(t *testing.T) {
	t.Run("not fitted", func(t *testing.T) {
		p, err := New()
		require.NoError(t, err)

		_, _, err = p.Transform([]float64{1, 2}, 1, 2, 1)
		assert.True(t, errors.Is(err, sonago.ErrNotFitted))

		_, err = p.InverseTransform([]float64{1, 2}, 1, 2)
		assert.True(t, errors.Is(err, sonago.ErrNotFitted))

		_, err = p.MarshalBinary()
		assert.True(t, errors.Is(err, sonago.ErrNotFitted))
	})

	t.Run("invalid option", func(t *testing.T) {
		_, err := New(WithRobustScale(90, 10))
		require.Error(t, err)

		var cfgErr *sonago.ErrInvalidConfig
		assert.True(t, errors.As(err, &cfgErr))
	})

	t.Run("target dims out of range", func(t *testing.T) {
		p, err := New()
		require.NoError(t, err)
		require.NoError(t, p.Fit([]float64{1, 2, 3, 4}, 2, 2))

		_, _, err = p.Transform([]float64{1, 2}, 1, 2, 0)
		require.Error(t, err)

		_, _, err = p.Transform([]float64{1, 2}, 1, 2, 3)
		require.Error(t, err)
	})

	t.Run("dimension drift", func(t *testing.T) {
		p, err := New()
		require.NoError(t, err)
		require.NoError(t, p.Fit([]float64{1, 2, 3, 4}, 2, 2))

		_, _, err = p.Transform([]float64{1, 2, 3}, 1, 3, 1)
		require.Error(t, err)

		var dimErr *sonago.ErrDimensionMismatch
		assert.True(t, errors.As(err, &dimErr))
	})

	t.Run("too few rows", func(t *testing.T) {
		p, err := New()
		require.NoError(t, err)
		require.Error(t, p.Fit([]float64{1, 2}, 1, 2))
	})
}

func TestPCAMarshalRoundtrip(t *testing.T) {
	data := []float64{
		1, 2, 3,
		4, 5, 7,
		7, 8, 11,
		2, 1, 0,
		5, 4, 6,
		9, 7, 13,
		3, 6, 2,
		6, 9, 8,
	}

	for _, tc := range []struct {
		name string
		opts []func(*Options)
	}{
		{name: "plain"},
		{name: "whitened", opts: []func(*Options){WithWhiten()}},
		{name: "standardized", opts: []func(*Options){WithStandardize()}},
		{name: "robust", opts: []func(*Options){WithRobustScale(25, 75)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p, err := New(tc.opts...)
			require.NoError(t, err)

			proj, explained, err := p.FitTransform(data, 8, 3, 2)
			require.NoError(t, err)

			b, err := p.MarshalBinary()
			require.NoError(t, err)

			restored := &PCA{}
			require.NoError(t, restored.UnmarshalBinary(b))
			assert.Equal(t, 3, restored.Dims())

			gotProj, gotExplained, err := restored.Transform(data, 8, 3, 2)
			require.NoError(t, err)
			assert.Equal(t, explained, gotExplained)
			assert.Equal(t, proj, gotProj)
		})
	}
}
