package bufstats

import (
	"fmt"
	"math"

	"github.com/hupe1980/sonago"
)

// RunningStats maintains incremental mean and sample standard deviation
// over the last historySize input vectors of fixed inputSize.
//
// Process returns slices into internal buffers; they are valid only
// until the next call on the same instance (single-writer buffer reuse,
// not a data race: instances are never shared).
type RunningStats struct {
	historySize int
	inputSize   int

	ring  []float64 // historySize * inputSize, oldest overwritten in place
	head  int
	count int

	sum   []float64
	sumSq []float64

	meanBuf   []float64
	stddevBuf []float64
}

// NewRunningStats creates a running statistics processor.
// historySize must be >= 2 and inputSize > 0.
func NewRunningStats(historySize, inputSize int) (*RunningStats, error) {
	if historySize < 2 {
		return nil, sonago.NewInvalidConfig("historySize", "must be >= 2")
	}
	if inputSize <= 0 {
		return nil, sonago.NewInvalidConfig("inputSize", "must be > 0")
	}
	return &RunningStats{
		historySize: historySize,
		inputSize:   inputSize,
		ring:        make([]float64, historySize*inputSize),
		sum:         make([]float64, inputSize),
		sumSq:       make([]float64, inputSize),
		meanBuf:     make([]float64, inputSize),
		stddevBuf:   make([]float64, inputSize),
	}, nil
}

// Process consumes one input vector and returns (mean, sampleStdDev)
// over the current history window. Non-finite input values are cleaned
// to zero before entering the history.
//
// The returned slices borrow internal buffers and are invalidated by
// the next mutating call.
//
// Panics if len(input) != inputSize; the frame size is part of the
// construction contract.
func (r *RunningStats) Process(input []float64) (mean, stddev []float64) {
	if len(input) != r.inputSize {
		panic(fmt.Sprintf("bufstats: input length (%d) must equal inputSize (%d)", len(input), r.inputSize))
	}

	slot := r.ring[r.head*r.inputSize : (r.head+1)*r.inputSize]
	evict := r.count == r.historySize
	for i, v := range input {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		if evict {
			old := slot[i]
			r.sum[i] -= old
			r.sumSq[i] -= old * old
		}
		slot[i] = v
		r.sum[i] += v
		r.sumSq[i] += v * v
	}
	r.head = (r.head + 1) % r.historySize
	if !evict {
		r.count++
	}

	n := float64(r.count)
	for i := range r.meanBuf {
		r.meanBuf[i] = r.sum[i] / n
		if r.count < 2 {
			r.stddevBuf[i] = 0
			continue
		}
		variance := (r.sumSq[i] - r.sum[i]*r.sum[i]/n) / (n - 1)
		if variance < 0 {
			variance = 0
		}
		r.stddevBuf[i] = math.Sqrt(variance)
	}
	return r.meanBuf, r.stddevBuf
}

// Clear resets the history window.
func (r *RunningStats) Clear() {
	r.head = 0
	r.count = 0
	clear(r.ring)
	clear(r.sum)
	clear(r.sumSq)
}

// HistorySize returns the window length in vectors.
func (r *RunningStats) HistorySize() int { return r.historySize }

// InputSize returns the expected input vector length.
func (r *RunningStats) InputSize() int { return r.inputSize }
