// Package distance provides the distance metrics used for comparing
// feature vectors across the query, clustering and tree packages.
package distance

import (
	"fmt"
	"math"
)

// Metric identifies a distance measure between two vectors.
type Metric int

const (
	MetricManhattan Metric = iota
	MetricEuclidean
	MetricSquaredEuclidean
	MetricMax
	MetricMin
	MetricKullbackLeibler
	MetricCosine
	MetricJensenShannon
)

func (m Metric) String() string {
	switch m {
	case MetricManhattan:
		return "Manhattan"
	case MetricEuclidean:
		return "Euclidean"
	case MetricSquaredEuclidean:
		return "SquaredEuclidean"
	case MetricMax:
		return "Max"
	case MetricMin:
		return "Min"
	case MetricKullbackLeibler:
		return "KullbackLeibler"
	case MetricCosine:
		return "Cosine"
	case MetricJensenShannon:
		return "JensenShannon"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Func is a function type for distance calculation.
// Implementations assume both vectors have the same length.
type Func func(a, b []float64) float64

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricManhattan:
		return Manhattan, nil
	case MetricEuclidean:
		return Euclidean, nil
	case MetricSquaredEuclidean:
		return SquaredEuclidean, nil
	case MetricMax:
		return Max, nil
	case MetricMin:
		return Min, nil
	case MetricKullbackLeibler:
		return KullbackLeibler, nil
	case MetricCosine:
		return Cosine, nil
	case MetricJensenShannon:
		return JensenShannon, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}

// Manhattan returns the L1 distance between a and b.
func Manhattan(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

// SquaredEuclidean returns the squared L2 distance between a and b.
func SquaredEuclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Euclidean returns the L2 distance between a and b.
func Euclidean(a, b []float64) float64 {
	return math.Sqrt(SquaredEuclidean(a, b))
}

// Max returns the L-infinity distance, the largest absolute
// coordinate difference.
func Max(a, b []float64) float64 {
	best := 0.0
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > best {
			best = d
		}
	}
	return best
}

// Min returns the smallest absolute coordinate difference.
func Min(a, b []float64) float64 {
	best := math.Inf(1)
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d < best {
			best = d
		}
	}
	if math.IsInf(best, 1) {
		return 0
	}
	return best
}

// KullbackLeibler returns the KL divergence of a from b, treating both
// as unnormalized distributions. Coordinates where either side is
// non-positive contribute nothing.
func KullbackLeibler(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		if a[i] > 0 && b[i] > 0 {
			sum += a[i] * math.Log(a[i]/b[i])
		}
	}
	return sum
}

// Cosine returns the cosine distance `1 - cos(a, b)`. Zero vectors are
// at distance 1 from everything.
func Cosine(a, b []float64) float64 {
	dot, normA, normB := 0.0, 0.0, 0.0
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// JensenShannon returns the Jensen-Shannon divergence between a and b,
// the symmetrized and smoothed variant of KL divergence.
func JensenShannon(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		m := (a[i] + b[i]) / 2
		if a[i] > 0 && m > 0 {
			sum += a[i] * math.Log(a[i]/m) / 2
		}
		if b[i] > 0 && m > 0 {
			sum += b[i] * math.Log(b[i]/m) / 2
		}
	}
	return sum
}

// Dot returns the dot product of a and b.
func Dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float64) bool {
	if len(v) == 0 {
		return false
	}
	norm2 := Dot(v, v)
	if norm2 == 0 {
		return false
	}
	inv := 1 / math.Sqrt(norm2)
	for i := range v {
		v[i] *= inv
	}
	return true
}
