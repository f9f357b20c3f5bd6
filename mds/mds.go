// Package mds implements classical multidimensional scaling: it embeds
// row-major data into a lower-dimensional space that preserves pairwise
// distances as well as possible.
package mds

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/sonago"
	"github.com/hupe1980/sonago/distance"
)

// Options configure the embedding.
type Options struct {
	// Metric is the pairwise distance used to build the dissimilarity
	// matrix.
	Metric distance.Metric
}

// Embed maps rows into targetDims coordinates via classical MDS:
// square the pairwise distances, double-center, and project onto the
// leading eigenvectors. targetDims must not exceed rows.
func Embed(data []float64, rows, cols, targetDims int, optFns ...func(*Options)) ([]float64, error) {
	if rows <= 0 || cols <= 0 || len(data) != rows*cols {
		return nil, &sonago.ErrShapeMismatch{Rows: rows, Cols: cols, Len: len(data)}
	}
	if targetDims < 1 || targetDims > rows {
		return nil, sonago.NewInvalidConfig("targetDims", "must be in [1, rows]")
	}

	opts := Options{Metric: distance.MetricEuclidean}
	for _, fn := range optFns {
		fn(&opts)
	}
	distFunc, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}

	// Squared dissimilarity matrix.
	d2 := mat.NewSymDense(rows, nil)
	for i := 0; i < rows; i++ {
		a := data[i*cols : (i+1)*cols]
		for j := i + 1; j < rows; j++ {
			d := distFunc(a, data[j*cols:(j+1)*cols])
			d2.SetSym(i, j, d*d)
		}
	}

	// Double centering: B = -1/2 * J * D2 * J with J = I - 1/n.
	rowMeans := make([]float64, rows)
	grand := 0.0
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < rows; j++ {
			sum += d2.At(i, j)
		}
		rowMeans[i] = sum / float64(rows)
		grand += sum
	}
	grand /= float64(rows * rows)

	b := mat.NewSymDense(rows, nil)
	for i := 0; i < rows; i++ {
		for j := i; j < rows; j++ {
			b.SetSym(i, j, -0.5*(d2.At(i, j)-rowMeans[i]-rowMeans[j]+grand))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(b, true); !ok {
		return nil, sonago.NewInvalidConfig("data", "eigendecomposition failed")
	}

	asc := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Coordinates from the leading eigenpairs, scaled by sqrt of the
	// eigenvalue. Negative eigenvalues (non-Euclidean metrics) clamp
	// to zero.
	out := make([]float64, rows*targetDims)
	for k := 0; k < targetDims; k++ {
		src := rows - 1 - k
		ev := asc[src]
		if ev < 0 {
			ev = 0
		}
		scale := math.Sqrt(ev)
		for i := 0; i < rows; i++ {
			out[i*targetDims+k] = vecs.At(i, src) * scale
		}
	}
	return out, nil
}
