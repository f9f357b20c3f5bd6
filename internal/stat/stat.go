// Package stat implements the per-channel statistic kernel behind
// bufstats: weighted population moments, percentiles, finite-difference
// derivative blocks, and IQR-based outlier trimming.
package stat

import (
	"math"
	"slices"

	gstat "gonum.org/v1/gonum/stat"
)

// NumStats is the size of the canonical statistic block:
// mean, std, skew, kurtosis, low, mid, high percentile, in that order.
// The order is fixed and shared with selection masks; it is never reordered.
const NumStats = 7

// Percentiles is the configured percentile triple, each in [0, 100].
type Percentiles struct {
	Low  float64
	Mid  float64
	High float64
}

// Describe computes the canonical statistic block for one series.
// weights, when non-nil, must have the same length as series; moments
// are weighted population moments and percentiles use the
// cumulative-weight rule. A non-positive effective weight sum yields an
// all-zero block.
func Describe(series, weights []float64, p Percentiles) [NumStats]float64 {
	var out [NumStats]float64
	if len(series) == 0 {
		return out
	}

	sumW := float64(len(series))
	if weights != nil {
		sumW = 0
		for _, w := range weights {
			if w > 0 {
				sumW += w
			}
		}
		if sumW <= 0 {
			return out
		}
	}

	// Negative weights would poison the moment sums; clamp them to zero
	// so the kernel only ever sees the effective (positive) mass.
	w := weights
	if weights != nil {
		w = make([]float64, len(weights))
		for i, v := range weights {
			if v > 0 {
				w[i] = v
			}
		}
	}

	mean := gstat.Mean(series, w)
	m2 := gstat.Moment(2, series, w)
	std := math.Sqrt(m2)

	out[0] = mean
	out[1] = std
	if std > 0 {
		out[2] = gstat.Moment(3, series, w) / (m2 * std)
		out[3] = gstat.Moment(4, series, w) / (m2 * m2)
	}

	sorted := slices.Clone(series)
	var sortedW []float64
	if w != nil {
		sortedW = slices.Clone(w)
		gstat.SortWeighted(sorted, sortedW)
		out[4] = gstat.Quantile(p.Low/100, gstat.Empirical, sorted, sortedW)
		out[5] = gstat.Quantile(p.Mid/100, gstat.Empirical, sorted, sortedW)
		out[6] = gstat.Quantile(p.High/100, gstat.Empirical, sorted, sortedW)
	} else {
		slices.Sort(sorted)
		out[4] = gstat.Quantile(p.Low/100, gstat.LinInterp, sorted, nil)
		out[5] = gstat.Quantile(p.Mid/100, gstat.LinInterp, sorted, nil)
		out[6] = gstat.Quantile(p.High/100, gstat.LinInterp, sorted, nil)
	}
	return out
}

// Diff returns the first finite difference of series (length n-1).
func Diff(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	out := make([]float64, len(series)-1)
	for i := range out {
		out[i] = series[i+1] - series[i]
	}
	return out
}

// DescribeDerivatives writes (numDerivs+1)*NumStats values into out:
// the canonical block of the raw series, then of each successive
// finite difference. Weights are truncated from the end to match each
// derivative's length. out must have the exact required length.
func DescribeDerivatives(series, weights []float64, numDerivs int, p Percentiles, out []float64) {
	if len(out) != (numDerivs+1)*NumStats {
		panic("stat: derivative output buffer has wrong length")
	}
	cur := series
	for d := 0; d <= numDerivs; d++ {
		w := weights
		if w != nil && len(w) > len(cur) {
			w = w[:len(cur)]
		}
		block := Describe(cur, w, p)
		copy(out[d*NumStats:(d+1)*NumStats], block[:])
		if d < numDerivs {
			cur = Diff(cur)
		}
	}
}

// TrimOutliers returns copies of series (and weights, when non-nil)
// with samples outside [q1 - cutoff*iqr, q3 + cutoff*iqr] removed,
// where q1/q3 are the unweighted quartiles. cutoff < 0 disables
// trimming and returns the inputs unchanged.
func TrimOutliers(series, weights []float64, cutoff float64) ([]float64, []float64) {
	if cutoff < 0 || len(series) == 0 {
		return series, weights
	}

	sorted := slices.Clone(series)
	slices.Sort(sorted)
	q1 := gstat.Quantile(0.25, gstat.LinInterp, sorted, nil)
	q3 := gstat.Quantile(0.75, gstat.LinInterp, sorted, nil)
	iqr := q3 - q1
	lo := q1 - cutoff*iqr
	hi := q3 + cutoff*iqr

	outS := make([]float64, 0, len(series))
	var outW []float64
	if weights != nil {
		outW = make([]float64, 0, len(weights))
	}
	for i, v := range series {
		if v < lo || v > hi {
			continue
		}
		outS = append(outS, v)
		if weights != nil {
			outW = append(outW, weights[i])
		}
	}
	if len(outS) == 0 {
		// Trimming away everything is degenerate; fall back to the raw series.
		return series, weights
	}
	return outS, outW
}
