package scale

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/hupe1980/sonago"
)

// RobustScale scales each feature by `(x - median) / (high - low)`
// where high/low are the fitted percentile values. Less sensitive to
// outliers than min-max or z-score scaling.
type RobustScale struct {
	lowPercentile  float64
	highPercentile float64

	median []float64
	scale  []float64
	cols   int
}

// NewRobustScale creates a robust scaler over the given percentile pair.
// Requires 0 <= low <= high <= 100.
func NewRobustScale(lowPercentile, highPercentile float64) (*RobustScale, error) {
	if lowPercentile < 0 || lowPercentile > 100 {
		return nil, sonago.NewInvalidConfig("lowPercentile", "must be in [0, 100]")
	}
	if highPercentile < 0 || highPercentile > 100 {
		return nil, sonago.NewInvalidConfig("highPercentile", "must be in [0, 100]")
	}
	if lowPercentile > highPercentile {
		return nil, sonago.NewInvalidConfig("lowPercentile", "must be <= highPercentile")
	}
	return &RobustScale{lowPercentile: lowPercentile, highPercentile: highPercentile}, nil
}

// Fit learns the per-feature median and percentile range.
func (r *RobustScale) Fit(data []float64, rows, cols int) error {
	if err := validateFit(data, rows, cols); err != nil {
		return err
	}

	median := make([]float64, cols)
	scale := make([]float64, cols)
	buf := make([]float64, 0, rows)
	for c := 0; c < cols; c++ {
		median[c] = columnQuantile(buf, data, rows, cols, c, 50)
		lo := columnQuantile(buf, data, rows, cols, c, r.lowPercentile)
		hi := columnQuantile(buf, data, rows, cols, c, r.highPercentile)
		scale[c] = hi - lo
		if scale[c] == 0 {
			// Degenerate percentile range; keep the feature centered only.
			scale[c] = 1
		}
	}

	r.median = median
	r.scale = scale
	r.cols = cols
	return nil
}

// Transform maps data into the robust-scaled space.
func (r *RobustScale) Transform(data []float64, rows, cols int) ([]float64, error) {
	return r.process(data, rows, cols, false)
}

// InverseTransform maps robust-scaled data back to the original space.
func (r *RobustScale) InverseTransform(data []float64, rows, cols int) ([]float64, error) {
	return r.process(data, rows, cols, true)
}

// FitTransform fits on data and transforms it.
func (r *RobustScale) FitTransform(data []float64, rows, cols int) ([]float64, error) {
	if err := r.Fit(data, rows, cols); err != nil {
		return nil, err
	}
	return r.Transform(data, rows, cols)
}

// IsFitted reports whether Fit has completed.
func (r *RobustScale) IsFitted() bool { return r.cols > 0 }

func (r *RobustScale) process(data []float64, rows, cols int, inverse bool) ([]float64, error) {
	if err := validateProcess("robustscale", r.IsFitted(), r.cols, data, rows, cols); err != nil {
		return nil, err
	}

	out := make([]float64, len(data))
	for row := 0; row < rows; row++ {
		for c := 0; c < cols; c++ {
			i := row*cols + c
			if inverse {
				out[i] = data[i]*r.scale[c] + r.median[c]
			} else {
				out[i] = (data[i] - r.median[c]) / r.scale[c]
			}
		}
	}
	return out, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
// Format (little-endian): [low][high][cols:uint32][median...][scale...]
func (r *RobustScale) MarshalBinary() ([]byte, error) {
	if !r.IsFitted() {
		return nil, sonago.ErrNotFitted
	}
	b := make([]byte, 0, 20+16*r.cols)
	b = binary.LittleEndian.AppendUint64(b, math.Float64bits(r.lowPercentile))
	b = binary.LittleEndian.AppendUint64(b, math.Float64bits(r.highPercentile))
	b = binary.LittleEndian.AppendUint32(b, uint32(r.cols))
	for _, v := range r.median {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	for _, v := range r.scale {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *RobustScale) UnmarshalBinary(data []byte) error {
	if len(data) < 20 {
		return errors.New("invalid robustscale binary length")
	}
	low := math.Float64frombits(binary.LittleEndian.Uint64(data[0:8]))
	high := math.Float64frombits(binary.LittleEndian.Uint64(data[8:16]))
	cols := int(binary.LittleEndian.Uint32(data[16:20]))
	if cols <= 0 || len(data) != 20+16*cols {
		return errors.New("invalid robustscale binary length")
	}

	median := make([]float64, cols)
	scale := make([]float64, cols)
	off := 20
	for i := range median {
		median[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[off : off+8]))
		off += 8
	}
	for i := range scale {
		scale[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[off : off+8]))
		off += 8
	}

	r.lowPercentile = low
	r.highPercentile = high
	r.cols = cols
	r.median = median
	r.scale = scale
	return nil
}
