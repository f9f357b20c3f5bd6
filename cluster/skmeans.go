package cluster

import (
	"math"

	"github.com/hupe1980/sonago"
	"github.com/hupe1980/sonago/distance"
)

// SKMeans is spherical k-means: rows and means live on the unit
// hypersphere and assignment maximizes cosine similarity.
type SKMeans struct {
	k       int
	maxIter int
	seed    int64

	means []float64
	dims  int
}

// NewSKMeans creates a spherical k-means instance.
func NewSKMeans(k int, optFns ...func(*KMeansOptions)) (*SKMeans, error) {
	if k < 1 {
		return nil, sonago.ErrInvalidK
	}

	opts := KMeansOptions{MaxIter: 100, Seed: -1}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxIter < 1 {
		return nil, sonago.NewInvalidConfig("maxIter", "must be >= 1")
	}

	return &SKMeans{k: k, maxIter: opts.MaxIter, seed: opts.Seed}, nil
}

// K returns the number of clusters.
func (sk *SKMeans) K() int { return sk.k }

// Dims returns the fitted dimensionality, or 0 before Fit.
func (sk *SKMeans) Dims() int { return sk.dims }

// IsFitted reports whether Fit has completed.
func (sk *SKMeans) IsFitted() bool { return sk.dims > 0 }

// Means returns the flattened k*dims unit-norm cluster means.
func (sk *SKMeans) Means() []float64 { return sk.means }

// Fit clusters the given rows and returns the per-row cluster
// assignments. Rows are normalized internally; the input is not
// modified.
func (sk *SKMeans) Fit(data []float64, rows, cols int) ([]int, error) {
	if rows <= 0 || cols <= 0 || len(data) != rows*cols {
		return nil, &sonago.ErrShapeMismatch{Rows: rows, Cols: cols, Len: len(data)}
	}
	if rows < sk.k {
		return nil, sonago.NewInvalidConfig("rows", "need at least k rows to fit")
	}

	normalized := make([]float64, len(data))
	copy(normalized, data)
	for i := 0; i < rows; i++ {
		distance.NormalizeL2InPlace(normalized[i*cols : (i+1)*cols])
	}

	km := &KMeans{k: sk.k, opts: KMeansOptions{
		MaxIter: sk.maxIter,
		Init:    InitRandomPoint,
		Seed:    sk.seed,
	}}

	rng := km.newRand()
	means := km.initialize(rng, normalized, rows, cols)
	for j := 0; j < sk.k; j++ {
		distance.NormalizeL2InPlace(means[j*cols : (j+1)*cols])
	}

	assignments := make([]int, rows)
	counts := make([]int, sk.k)
	sums := make([]float64, sk.k*cols)

	for iter := 0; iter < sk.maxIter; iter++ {
		changed := false

		for i := 0; i < rows; i++ {
			row := normalized[i*cols : (i+1)*cols]
			best := nearestCosine(row, means, cols)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		if iter > 0 && !changed {
			break
		}

		for i := range sums {
			sums[i] = 0
		}
		for i := range counts {
			counts[i] = 0
		}
		for i := 0; i < rows; i++ {
			c := assignments[i]
			counts[c]++
			row := normalized[i*cols : (i+1)*cols]
			for d := 0; d < cols; d++ {
				sums[c*cols+d] += row[d]
			}
		}

		for j := 0; j < sk.k; j++ {
			mean := means[j*cols : (j+1)*cols]
			if counts[j] > 0 {
				copy(mean, sums[j*cols:(j+1)*cols])
				if !distance.NormalizeL2InPlace(mean) {
					idx := rng.Intn(rows)
					copy(mean, normalized[idx*cols:(idx+1)*cols])
				}
			} else {
				idx := rng.Intn(rows)
				copy(mean, normalized[idx*cols:(idx+1)*cols])
			}
		}
	}

	sk.means = means
	sk.dims = cols
	return assignments, nil
}

// Encode maps each row to k rectified activations `max(0, dot - alpha)`
// against the fitted unit means.
func (sk *SKMeans) Encode(data []float64, rows, cols int, alpha float64) ([]float64, error) {
	if !sk.IsFitted() {
		return nil, sonago.ErrNotFitted
	}
	if rows <= 0 || cols <= 0 || len(data) != rows*cols {
		return nil, &sonago.ErrShapeMismatch{Rows: rows, Cols: cols, Len: len(data)}
	}
	if cols != sk.dims {
		return nil, &sonago.ErrDimensionMismatch{Expected: sk.dims, Actual: cols}
	}

	out := make([]float64, rows*sk.k)
	for i := 0; i < rows; i++ {
		row := data[i*cols : (i+1)*cols]
		for j := 0; j < sk.k; j++ {
			a := distance.Dot(row, sk.means[j*cols:(j+1)*cols]) - alpha
			if a > 0 {
				out[i*sk.k+j] = a
			}
		}
	}
	return out, nil
}

func nearestCosine(row, means []float64, cols int) int {
	k := len(means) / cols
	best, bestDot := 0, -math.MaxFloat64
	for j := 0; j < k; j++ {
		d := distance.Dot(row, means[j*cols:(j+1)*cols])
		if d > bestDot {
			bestDot = d
			best = j
		}
	}
	return best
}
