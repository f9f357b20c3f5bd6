package cluster

import (
	"math"
	"math/rand"
	"time"

	"github.com/hupe1980/sonago"
	"github.com/hupe1980/sonago/distance"
)

// Init selects the centroid initialization strategy.
type Init int

const (
	// InitRandomPartition assigns every point to a random cluster and
	// uses the partition means as initial centroids.
	InitRandomPartition Init = iota

	// InitRandomPoint picks k distinct data points as initial centroids.
	InitRandomPoint

	// InitRandomSampling averages a random sample of points per cluster.
	InitRandomSampling
)

// KMeansOptions configure a KMeans instance.
type KMeansOptions struct {
	// MaxIter bounds the number of Lloyd iterations.
	MaxIter int

	// Init selects the centroid initialization strategy.
	Init Init

	// Seed makes the clustering deterministic when non-negative.
	// A negative seed draws from the wall clock.
	Seed int64

	// Metric is the assignment distance.
	Metric distance.Metric
}

// KMeans clusters row-major data into k partitions with Lloyd's
// algorithm.
type KMeans struct {
	k    int
	opts KMeansOptions

	means []float64
	dims  int
}

// NewKMeans creates a k-means instance. k must be positive.
func NewKMeans(k int, optFns ...func(*KMeansOptions)) (*KMeans, error) {
	if k < 1 {
		return nil, sonago.ErrInvalidK
	}

	opts := KMeansOptions{
		MaxIter: 100,
		Init:    InitRandomPartition,
		Seed:    -1,
		Metric:  distance.MetricSquaredEuclidean,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxIter < 1 {
		return nil, sonago.NewInvalidConfig("maxIter", "must be >= 1")
	}

	return &KMeans{k: k, opts: opts}, nil
}

// K returns the number of clusters.
func (km *KMeans) K() int { return km.k }

// Dims returns the fitted dimensionality, or 0 before Fit.
func (km *KMeans) Dims() int { return km.dims }

// IsFitted reports whether Fit has completed.
func (km *KMeans) IsFitted() bool { return km.dims > 0 }

// Means returns the flattened k*dims cluster means.
func (km *KMeans) Means() []float64 { return km.means }

// Fit clusters the given rows and returns the per-row cluster
// assignments. Requires rows >= k.
func (km *KMeans) Fit(data []float64, rows, cols int) ([]int, error) {
	if rows <= 0 || cols <= 0 || len(data) != rows*cols {
		return nil, &sonago.ErrShapeMismatch{Rows: rows, Cols: cols, Len: len(data)}
	}
	if rows < km.k {
		return nil, sonago.NewInvalidConfig("rows", "need at least k rows to fit")
	}

	distFunc, err := distance.Provider(km.opts.Metric)
	if err != nil {
		return nil, err
	}

	rng := km.newRand()
	means := km.initialize(rng, data, rows, cols)
	assignments := make([]int, rows)
	counts := make([]int, km.k)
	sums := make([]float64, km.k*cols)

	for iter := 0; iter < km.opts.MaxIter; iter++ {
		changed := false

		for i := 0; i < rows; i++ {
			row := data[i*cols : (i+1)*cols]
			best := nearest(row, means, cols, distFunc)
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
			row := data[i*cols : (i+1)*cols]
			for d := 0; d < cols; d++ {
				sums[c*cols+d] += row[d]
			}
		}

		for j := 0; j < km.k; j++ {
			if counts[j] > 0 {
				inv := 1 / float64(counts[j])
				for d := 0; d < cols; d++ {
					means[j*cols+d] = sums[j*cols+d] * inv
				}
			} else {
				// Reseed an empty cluster with a random point.
				idx := rng.Intn(rows)
				copy(means[j*cols:(j+1)*cols], data[idx*cols:(idx+1)*cols])
			}
		}
	}

	km.means = means
	km.dims = cols
	return assignments, nil
}

// Predict returns the nearest cluster index for each row.
func (km *KMeans) Predict(data []float64, rows, cols int) ([]int, error) {
	if !km.IsFitted() {
		return nil, sonago.ErrNotFitted
	}
	if rows <= 0 || cols <= 0 || len(data) != rows*cols {
		return nil, &sonago.ErrShapeMismatch{Rows: rows, Cols: cols, Len: len(data)}
	}
	if cols != km.dims {
		return nil, &sonago.ErrDimensionMismatch{Expected: km.dims, Actual: cols}
	}

	distFunc, err := distance.Provider(km.opts.Metric)
	if err != nil {
		return nil, err
	}

	out := make([]int, rows)
	for i := 0; i < rows; i++ {
		out[i] = nearest(data[i*cols:(i+1)*cols], km.means, cols, distFunc)
	}
	return out, nil
}

func (km *KMeans) newRand() *rand.Rand {
	seed := km.opts.Seed
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func (km *KMeans) initialize(rng *rand.Rand, data []float64, rows, cols int) []float64 {
	means := make([]float64, km.k*cols)

	switch km.opts.Init {
	case InitRandomPoint:
		perm := rng.Perm(rows)
		for j := 0; j < km.k; j++ {
			copy(means[j*cols:(j+1)*cols], data[perm[j]*cols:(perm[j]+1)*cols])
		}

	case InitRandomSampling:
		// Average a handful of random rows per cluster.
		sample := rows / km.k
		if sample < 1 {
			sample = 1
		}
		for j := 0; j < km.k; j++ {
			for s := 0; s < sample; s++ {
				idx := rng.Intn(rows)
				for d := 0; d < cols; d++ {
					means[j*cols+d] += data[idx*cols+d]
				}
			}
			inv := 1 / float64(sample)
			for d := 0; d < cols; d++ {
				means[j*cols+d] *= inv
			}
		}

	default: // InitRandomPartition
		counts := make([]int, km.k)
		for i := 0; i < rows; i++ {
			c := rng.Intn(km.k)
			counts[c]++
			for d := 0; d < cols; d++ {
				means[c*cols+d] += data[i*cols+d]
			}
		}
		for j := 0; j < km.k; j++ {
			if counts[j] == 0 {
				idx := rng.Intn(rows)
				copy(means[j*cols:(j+1)*cols], data[idx*cols:(idx+1)*cols])
				continue
			}
			inv := 1 / float64(counts[j])
			for d := 0; d < cols; d++ {
				means[j*cols+d] *= inv
			}
		}
	}

	return means
}

func nearest(row, means []float64, cols int, distFunc distance.Func) int {
	k := len(means) / cols
	best, bestDist := 0, math.MaxFloat64
	for j := 0; j < k; j++ {
		d := distFunc(row, means[j*cols:(j+1)*cols])
		if d < bestDist {
			bestDist = d
			best = j
		}
	}
	return best
}
