package cluster

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sonago"
)

// Two well-separated blobs in 2D.
var blobs = []float64{
	0.0, 0.1,
	0.1, 0.0,
	0.1, 0.1,
	0.0, 0.0,
	10.0, 10.1,
	10.1, 10.0,
	10.1, 10.1,
	10.0, 10.0,
}

func TestKMeansFit(t *testing.T) {
	km, err := NewKMeans(2, func(o *KMeansOptions) {
		o.Seed = 42
	})
	require.NoError(t, err)

	assignments, err := km.Fit(blobs, 8, 2)
	require.NoError(t, err)
	require.Len(t, assignments, 8)
	require.True(t, km.IsFitted())
	assert.Equal(t, 2, km.Dims())

	// All points of each blob fall into the same cluster, and the
	// blobs land in different clusters.
	for i := 1; i < 4; i++ {
		assert.Equal(t, assignments[0], assignments[i])
		assert.Equal(t, assignments[4], assignments[4+i])
	}
	assert.NotEqual(t, assignments[0], assignments[4])

	// Means sit near the blob centers.
	means := km.Means()
	require.Len(t, means, 4)
	lo, hi := means[0:2], means[2:4]
	if lo[0] > hi[0] {
		lo, hi = hi, lo
	}
	assert.InDelta(t, 0.05, lo[0], 0.01)
	assert.InDelta(t, 10.05, hi[0], 0.01)
}

func TestKMeansInitModes(t *testing.T) {
	for _, init := range []Init{InitRandomPartition, InitRandomPoint, InitRandomSampling} {
		km, err := NewKMeans(2, func(o *KMeansOptions) {
			o.Init = init
			o.Seed = 7
		})
		require.NoError(t, err)

		assignments, err := km.Fit(blobs, 8, 2)
		require.NoError(t, err)
		assert.NotEqual(t, assignments[0], assignments[4], "init %d", init)
	}
}

func TestKMeansDeterministic(t *testing.T) {
	run := func() []int {
		km, err := NewKMeans(2, func(o *KMeansOptions) {
			o.Seed = 99
		})
		require.NoError(t, err)
		assignments, err := km.Fit(blobs, 8, 2)
		require.NoError(t, err)
		return assignments
	}

	assert.Equal(t, run(), run())
}

func TestKMeansPredict(t *testing.T) {
	km, err := NewKMeans(2, func(o *KMeansOptions) {
		o.Seed = 42
	})
	require.NoError(t, err)

	assignments, err := km.Fit(blobs, 8, 2)
	require.NoError(t, err)

	pred, err := km.Predict([]float64{0.2, 0.2, 9.9, 9.9}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, assignments[0], pred[0])
	assert.Equal(t, assignments[4], pred[1])
}

func TestKMeansValidation(t *testing.T) {
	_, err := NewKMeans(0)
	assert.True(t, errors.Is(err, sonago.ErrInvalidK))

	km, err := NewKMeans(5)
	require.NoError(t, err)

	// Fewer rows than clusters.
	_, err = km.Fit([]float64{1, 2, 3, 4}, 2, 2)
	require.Error(t, err)

	// Predict before Fit.
	_, err = km.Predict([]float64{1, 2}, 1, 2)
	assert.True(t, errors.Is(err, sonago.ErrNotFitted))

	// Bad shape.
	_, err = km.Fit([]float64{1, 2, 3}, 2, 2)
	require.Error(t, err)
	var shapeErr *sonago.ErrShapeMismatch
	assert.True(t, errors.As(err, &shapeErr))
}

func TestSKMeansFit(t *testing.T) {
	// Directions matter, magnitudes do not: two angular groups.
	data := []float64{
		1, 0.05,
		2, 0.0,
		5, 0.2,
		0.05, 1,
		0.0, 2,
		0.2, 5,
	}

	sk, err := NewSKMeans(2, func(o *KMeansOptions) {
		o.Seed = 42
	})
	require.NoError(t, err)

	assignments, err := sk.Fit(data, 6, 2)
	require.NoError(t, err)
	require.Len(t, assignments, 6)

	for i := 1; i < 3; i++ {
		assert.Equal(t, assignments[0], assignments[i])
		assert.Equal(t, assignments[3], assignments[3+i])
	}
	assert.NotEqual(t, assignments[0], assignments[3])

	// Means are unit norm.
	means := sk.Means()
	for j := 0; j < 2; j++ {
		norm := math.Hypot(means[j*2], means[j*2+1])
		assert.InDelta(t, 1.0, norm, 1e-9)
	}
}

func TestSKMeansEncode(t *testing.T) {
	data := []float64{
		1, 0,
		0, 1,
	}

	sk, err := NewSKMeans(2, func(o *KMeansOptions) {
		o.Seed = 1
	})
	require.NoError(t, err)
	_, err = sk.Fit(data, 2, 2)
	require.NoError(t, err)

	enc, err := sk.Encode(data, 2, 2, 0.5)
	require.NoError(t, err)
	require.Len(t, enc, 4)

	// Activations are rectified and bounded by 1-alpha for unit input.
	for _, v := range enc {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 0.5+1e-9)
	}

	// Each row activates its own cluster.
	assert.InDelta(t, 0.5, enc[0]+enc[1], 1e-9)
	assert.InDelta(t, 0.5, enc[2]+enc[3], 1e-9)

	_, err = sk.Encode([]float64{1, 2, 3}, 1, 3, 0)
	require.Error(t, err)
}

func TestSKMeansValidation(t *testing.T) {
	_, err := NewSKMeans(-1)
	assert.True(t, errors.Is(err, sonago.ErrInvalidK))

	sk, err := NewSKMeans(2)
	require.NoError(t, err)
	_, err = sk.Encode([]float64{1, 2}, 1, 2, 0)
	assert.True(t, errors.Is(err, sonago.ErrNotFitted))
}
