// Package segment provides streaming segmenters that emit a binary
// slice-point decision per input frame or sample: a checkerboard-kernel
// novelty segmenter for feature streams and an amplitude envelope
// segmenter for raw audio.
package segment

import (
	"math"
	"sort"

	"github.com/hupe1980/sonago"
)

// NoveltyOptions configure a Novelty segmenter.
type NoveltyOptions struct {
	// KernelSize is the checkerboard kernel width in frames; odd, >= 3.
	KernelSize int

	// Dims is the feature vector length fed to Process.
	Dims int

	// FilterSize is the median filter length applied to the novelty
	// curve; odd, >= 1.
	FilterSize int

	// Threshold is the novelty value above which a slice point is
	// declared.
	Threshold float64

	// MinSliceLength is the minimum number of frames between slice
	// points.
	MinSliceLength int
}

// Novelty detects section boundaries in a feature stream by sliding a
// checkerboard kernel along the self-similarity of recent frames. Not
// safe for concurrent use.
type Novelty struct {
	opts NoveltyOptions

	// history holds the last KernelSize feature frames, oldest first.
	history [][]float64

	novelty    []float64
	frameCount int
	lastSlice  int
}

// NewNovelty creates a novelty segmenter.
func NewNovelty(optFns ...func(*NoveltyOptions)) (*Novelty, error) {
	opts := NoveltyOptions{
		KernelSize:     3,
		Dims:           1,
		FilterSize:     1,
		Threshold:      0.5,
		MinSliceLength: 2,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.KernelSize < 3 || opts.KernelSize%2 == 0 {
		return nil, sonago.NewInvalidConfig("kernelSize", "must be odd and >= 3")
	}
	if opts.Dims < 1 {
		return nil, sonago.NewInvalidConfig("dims", "must be >= 1")
	}
	if opts.FilterSize < 1 || opts.FilterSize%2 == 0 {
		return nil, sonago.NewInvalidConfig("filterSize", "must be odd and >= 1")
	}
	if opts.MinSliceLength < 0 {
		return nil, sonago.NewInvalidConfig("minSliceLength", "must be >= 0")
	}

	return &Novelty{opts: opts, lastSlice: -1}, nil
}

// Dims returns the expected feature vector length.
func (n *Novelty) Dims() int { return n.opts.Dims }

// Reset clears the frame history and slice state.
func (n *Novelty) Reset() {
	n.history = nil
	n.novelty = nil
	n.frameCount = 0
	n.lastSlice = -1
}

// Process consumes one feature frame and reports whether it is a slice
// point.
func (n *Novelty) Process(frame []float64) (bool, error) {
	if len(frame) != n.opts.Dims {
		return false, &sonago.ErrDimensionMismatch{Expected: n.opts.Dims, Actual: len(frame)}
	}

	f := make([]float64, len(frame))
	copy(f, frame)
	n.history = append(n.history, f)
	if len(n.history) > n.opts.KernelSize {
		n.history = n.history[1:]
	}

	value := 0.0
	if len(n.history) == n.opts.KernelSize {
		value = n.kernelNovelty()
	}

	n.novelty = append(n.novelty, value)
	if len(n.novelty) > n.opts.FilterSize {
		n.novelty = n.novelty[1:]
	}
	filtered := median(n.novelty)

	frameIdx := n.frameCount
	n.frameCount++

	if filtered > n.opts.Threshold &&
		(n.lastSlice < 0 || frameIdx-n.lastSlice >= n.opts.MinSliceLength) {
		n.lastSlice = frameIdx
		return true, nil
	}
	return false, nil
}

// kernelNovelty correlates the self-similarity of the frame history
// with a checkerboard kernel centered on the middle frame.
func (n *Novelty) kernelNovelty() float64 {
	k := n.opts.KernelSize
	half := k / 2

	sum, norm := 0.0, 0.0
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			if i == half || j == half {
				continue
			}
			sign := 1.0
			if (i < half) != (j < half) {
				sign = -1
			}
			sum += sign * similarity(n.history[i], n.history[j])
			norm++
		}
	}
	if norm == 0 {
		return 0
	}

	// Homogeneous history cancels out; a boundary at the center frame
	// leaves high within-half and low cross-half similarity.
	value := sum / norm
	if value < 0 {
		return 0
	}
	return value
}

// similarity is the cosine similarity of two feature frames, with zero
// vectors treated as identical to each other.
func similarity(a, b []float64) float64 {
	dot, normA, normB := 0.0, 0.0, 0.0
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 && normB == 0 {
		return 1
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	buf := make([]float64, len(values))
	copy(buf, values)
	sort.Float64s(buf)
	return buf[len(buf)/2]
}
