package scale

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/hupe1980/sonago"
)

// Normalize is a per-feature min-max scaler mapping each feature into
// [min, max] based on the fitted per-feature data range.
type Normalize struct {
	min float64
	max float64

	dataMin []float64
	dataMax []float64
	cols    int
}

// NewNormalize creates a min-max scaler targeting [min, max].
// min and max must differ.
func NewNormalize(min, max float64) (*Normalize, error) {
	if min == max {
		return nil, sonago.NewInvalidConfig("min/max", "must be different")
	}
	return &Normalize{min: min, max: max}, nil
}

// Fit learns the per-feature data range.
func (n *Normalize) Fit(data []float64, rows, cols int) error {
	if err := validateFit(data, rows, cols); err != nil {
		return err
	}

	dataMin := make([]float64, cols)
	dataMax := make([]float64, cols)
	for c := 0; c < cols; c++ {
		dataMin[c] = math.Inf(1)
		dataMax[c] = math.Inf(-1)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := data[r*cols+c]
			dataMin[c] = math.Min(dataMin[c], v)
			dataMax[c] = math.Max(dataMax[c], v)
		}
	}

	n.dataMin = dataMin
	n.dataMax = dataMax
	n.cols = cols
	return nil
}

// Transform maps data into the target range.
func (n *Normalize) Transform(data []float64, rows, cols int) ([]float64, error) {
	return n.process(data, rows, cols, false)
}

// InverseTransform maps scaled data back to the original range.
func (n *Normalize) InverseTransform(data []float64, rows, cols int) ([]float64, error) {
	return n.process(data, rows, cols, true)
}

// FitTransform fits on data and transforms it.
func (n *Normalize) FitTransform(data []float64, rows, cols int) ([]float64, error) {
	if err := n.Fit(data, rows, cols); err != nil {
		return nil, err
	}
	return n.Transform(data, rows, cols)
}

// IsFitted reports whether Fit has completed.
func (n *Normalize) IsFitted() bool { return n.cols > 0 }

func (n *Normalize) process(data []float64, rows, cols int, inverse bool) ([]float64, error) {
	if err := validateProcess("normalize", n.IsFitted(), n.cols, data, rows, cols); err != nil {
		return nil, err
	}

	out := make([]float64, len(data))
	span := n.max - n.min
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			dataSpan := n.dataMax[c] - n.dataMin[c]
			if inverse {
				// A constant feature inverts to its fitted value.
				if dataSpan == 0 {
					out[i] = n.dataMin[c]
					continue
				}
				out[i] = (data[i]-n.min)/span*dataSpan + n.dataMin[c]
			} else {
				if dataSpan == 0 {
					out[i] = n.min
					continue
				}
				out[i] = (data[i]-n.dataMin[c])/dataSpan*span + n.min
			}
		}
	}
	return out, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
// Format (little-endian): [min][max][cols:uint32][dataMin...][dataMax...]
func (n *Normalize) MarshalBinary() ([]byte, error) {
	if !n.IsFitted() {
		return nil, sonago.ErrNotFitted
	}
	b := make([]byte, 0, 20+16*n.cols)
	b = binary.LittleEndian.AppendUint64(b, math.Float64bits(n.min))
	b = binary.LittleEndian.AppendUint64(b, math.Float64bits(n.max))
	b = binary.LittleEndian.AppendUint32(b, uint32(n.cols))
	for _, v := range n.dataMin {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	for _, v := range n.dataMax {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (n *Normalize) UnmarshalBinary(data []byte) error {
	if len(data) < 20 {
		return errors.New("invalid normalize binary length")
	}
	min := math.Float64frombits(binary.LittleEndian.Uint64(data[0:8]))
	max := math.Float64frombits(binary.LittleEndian.Uint64(data[8:16]))
	cols := int(binary.LittleEndian.Uint32(data[16:20]))
	if cols <= 0 || len(data) != 20+16*cols {
		return errors.New("invalid normalize binary length")
	}

	dataMin := make([]float64, cols)
	dataMax := make([]float64, cols)
	off := 20
	for i := range dataMin {
		dataMin[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[off : off+8]))
		off += 8
	}
	for i := range dataMax {
		dataMax[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[off : off+8]))
		off += 8
	}

	n.min = min
	n.max = max
	n.cols = cols
	n.dataMin = dataMin
	n.dataMax = dataMax
	return nil
}
