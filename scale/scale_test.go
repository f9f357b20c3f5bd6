package scale

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sonago"
)

func TestNormalize(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		n, err := NewNormalize(0, 1)
		require.NoError(t, err)

		data := []float64{1, 10, 3, 20, 5, 30}
		scaled, err := n.FitTransform(data, 3, 2)
		require.NoError(t, err)

		// Min maps to 0, max maps to 1 per feature.
		assert.InDelta(t, 0.0, scaled[0], 1e-12)
		assert.InDelta(t, 1.0, scaled[4], 1e-12)

		back, err := n.InverseTransform(scaled, 3, 2)
		require.NoError(t, err)
		for i := range data {
			assert.InDelta(t, data[i], back[i], 1e-9)
		}
	})

	t.Run("custom range", func(t *testing.T) {
		n, err := NewNormalize(-1, 1)
		require.NoError(t, err)

		scaled, err := n.FitTransform([]float64{0, 5, 10}, 3, 1)
		require.NoError(t, err)
		assert.InDelta(t, -1.0, scaled[0], 1e-12)
		assert.InDelta(t, 0.0, scaled[1], 1e-12)
		assert.InDelta(t, 1.0, scaled[2], 1e-12)
	})

	t.Run("constant feature", func(t *testing.T) {
		n, err := NewNormalize(0, 1)
		require.NoError(t, err)

		scaled, err := n.FitTransform([]float64{7, 7, 7}, 3, 1)
		require.NoError(t, err)
		for _, v := range scaled {
			assert.Equal(t, 0.0, v)
		}

		back, err := n.InverseTransform(scaled, 3, 1)
		require.NoError(t, err)
		for _, v := range back {
			assert.InDelta(t, 7.0, v, 1e-9)
		}
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := NewNormalize(1, 1)
		require.Error(t, err)

		var cfgErr *sonago.ErrInvalidConfig
		assert.True(t, errors.As(err, &cfgErr))
	})
}

func TestStandardize(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		s := NewStandardize()

		data := []float64{1, 10, 3, 20, 5, 30}
		scaled, err := s.FitTransform(data, 3, 2)
		require.NoError(t, err)

		// Each feature has zero mean after scaling.
		for c := 0; c < 2; c++ {
			sum := 0.0
			for row := 0; row < 3; row++ {
				sum += scaled[row*2+c]
			}
			assert.InDelta(t, 0.0, sum, 1e-9)
		}

		back, err := s.InverseTransform(scaled, 3, 2)
		require.NoError(t, err)
		for i := range data {
			assert.InDelta(t, data[i], back[i], 1e-9)
		}
	})

	t.Run("constant feature", func(t *testing.T) {
		s := NewStandardize()

		scaled, err := s.FitTransform([]float64{4, 4, 4}, 3, 1)
		require.NoError(t, err)
		for _, v := range scaled {
			assert.Equal(t, 0.0, v)
		}
	})
}

func TestRobustScale(t *testing.T) {
	t.Run("roundtrip with outliers", func(t *testing.T) {
		r, err := NewRobustScale(25, 75)
		require.NoError(t, err)

		data := []float64{1, 10, 3, 20, 5, 30, 1000, -999}
		scaled, err := r.FitTransform(data, 4, 2)
		require.NoError(t, err)

		back, err := r.InverseTransform(scaled, 4, 2)
		require.NoError(t, err)
		for i := range data {
			assert.InDelta(t, data[i], back[i], 1e-8)
		}
	})

	t.Run("outlier robustness", func(t *testing.T) {
		r, err := NewRobustScale(25, 75)
		require.NoError(t, err)

		// The outlier shifts min-max scaling massively, but the
		// median-centered values of the inliers stay moderate.
		data := []float64{1, 2, 3, 4, 1000}
		scaled, err := r.FitTransform(data, 5, 1)
		require.NoError(t, err)
		for _, v := range scaled[:4] {
			assert.Less(t, v, 2.0)
			assert.Greater(t, v, -2.0)
		}
	})

	t.Run("degenerate range", func(t *testing.T) {
		r, err := NewRobustScale(25, 75)
		require.NoError(t, err)

		data := []float64{5, 5, 5, 5}
		scaled, err := r.FitTransform(data, 4, 1)
		require.NoError(t, err)
		for _, v := range scaled {
			assert.Equal(t, 0.0, v)
		}

		back, err := r.InverseTransform(scaled, 4, 1)
		require.NoError(t, err)
		for _, v := range back {
			assert.InDelta(t, 5.0, v, 1e-9)
		}
	})

	t.Run("invalid percentiles", func(t *testing.T) {
		_, err := NewRobustScale(80, 20)
		require.Error(t, err)

		_, err = NewRobustScale(-1, 50)
		require.Error(t, err)

		_, err = NewRobustScale(50, 101)
		require.Error(t, err)
	})
}

func TestScalerNotFitted(t *testing.T) {
	n, err := NewNormalize(0, 1)
	require.NoError(t, err)
	r, err := NewRobustScale(25, 75)
	require.NoError(t, err)

	scalers := []Scaler{n, NewStandardize(), r}
	for _, s := range scalers {
		_, err := s.Transform([]float64{1, 2}, 1, 2)
		assert.True(t, errors.Is(err, sonago.ErrNotFitted))

		_, err = s.InverseTransform([]float64{1, 2}, 1, 2)
		assert.True(t, errors.Is(err, sonago.ErrNotFitted))
	}
}

func TestScalerDimensionMismatch(t *testing.T) {
	n, err := NewNormalize(0, 1)
	require.NoError(t, err)

	_, err = n.FitTransform([]float64{1, 10, 3, 20}, 2, 2)
	require.NoError(t, err)

	_, err = n.Transform([]float64{1, 2, 3}, 1, 3)
	require.Error(t, err)

	var dimErr *sonago.ErrDimensionMismatch
	assert.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Actual)
}

func TestScalerShapeMismatch(t *testing.T) {
	s := NewStandardize()

	err := s.Fit([]float64{1, 2, 3}, 2, 2)
	require.Error(t, err)

	var shapeErr *sonago.ErrShapeMismatch
	assert.True(t, errors.As(err, &shapeErr))
}

func TestScalerMarshalRoundtrip(t *testing.T) {
	data := []float64{1, 10, 3, 20, 5, 30}

	t.Run("normalize", func(t *testing.T) {
		n, err := NewNormalize(0, 1)
		require.NoError(t, err)
		scaled, err := n.FitTransform(data, 3, 2)
		require.NoError(t, err)

		b, err := n.MarshalBinary()
		require.NoError(t, err)

		restored := &Normalize{}
		require.NoError(t, restored.UnmarshalBinary(b))
		assert.True(t, restored.IsFitted())

		got, err := restored.Transform(data, 3, 2)
		require.NoError(t, err)
		assert.Equal(t, scaled, got)
	})

	t.Run("standardize", func(t *testing.T) {
		s := NewStandardize()
		scaled, err := s.FitTransform(data, 3, 2)
		require.NoError(t, err)

		b, err := s.MarshalBinary()
		require.NoError(t, err)

		restored := &Standardize{}
		require.NoError(t, restored.UnmarshalBinary(b))

		got, err := restored.Transform(data, 3, 2)
		require.NoError(t, err)
		assert.Equal(t, scaled, got)
	})

	t.Run("robustscale", func(t *testing.T) {
		r, err := NewRobustScale(25, 75)
		require.NoError(t, err)
		scaled, err := r.FitTransform(data, 3, 2)
		require.NoError(t, err)

		b, err := r.MarshalBinary()
		require.NoError(t, err)

		restored := &RobustScale{}
		require.NoError(t, restored.UnmarshalBinary(b))

		got, err := restored.Transform(data, 3, 2)
		require.NoError(t, err)
		assert.Equal(t, scaled, got)
	})

	t.Run("unfitted marshal", func(t *testing.T) {
		_, err := NewStandardize().MarshalBinary()
		assert.True(t, errors.Is(err, sonago.ErrNotFitted))
	})
}
