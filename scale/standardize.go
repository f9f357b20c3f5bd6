package scale

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/hupe1980/sonago"
)

// Standardize is a per-feature z-score scaler using the fitted mean and
// population standard deviation.
type Standardize struct {
	mean []float64
	std  []float64
	cols int
}

// NewStandardize creates a z-score scaler.
func NewStandardize() *Standardize {
	return &Standardize{}
}

// Fit learns the per-feature mean and standard deviation.
func (s *Standardize) Fit(data []float64, rows, cols int) error {
	if err := validateFit(data, rows, cols); err != nil {
		return err
	}

	mean := make([]float64, cols)
	std := make([]float64, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			mean[c] += data[r*cols+c]
		}
	}
	for c := range mean {
		mean[c] /= float64(rows)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			d := data[r*cols+c] - mean[c]
			std[c] += d * d
		}
	}
	for c := range std {
		std[c] = math.Sqrt(std[c] / float64(rows))
		if std[c] == 0 {
			// A constant feature maps to zero and inverts exactly.
			std[c] = 1
		}
	}

	s.mean = mean
	s.std = std
	s.cols = cols
	return nil
}

// Transform maps data to z-scores.
func (s *Standardize) Transform(data []float64, rows, cols int) ([]float64, error) {
	return s.process(data, rows, cols, false)
}

// InverseTransform maps z-scores back to the original space.
func (s *Standardize) InverseTransform(data []float64, rows, cols int) ([]float64, error) {
	return s.process(data, rows, cols, true)
}

// FitTransform fits on data and transforms it.
func (s *Standardize) FitTransform(data []float64, rows, cols int) ([]float64, error) {
	if err := s.Fit(data, rows, cols); err != nil {
		return nil, err
	}
	return s.Transform(data, rows, cols)
}

// IsFitted reports whether Fit has completed.
func (s *Standardize) IsFitted() bool { return s.cols > 0 }

func (s *Standardize) process(data []float64, rows, cols int, inverse bool) ([]float64, error) {
	if err := validateProcess("standardize", s.IsFitted(), s.cols, data, rows, cols); err != nil {
		return nil, err
	}

	out := make([]float64, len(data))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if inverse {
				out[i] = data[i]*s.std[c] + s.mean[c]
			} else {
				out[i] = (data[i] - s.mean[c]) / s.std[c]
			}
		}
	}
	return out, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
// Format (little-endian): [cols:uint32][mean...][std...]
func (s *Standardize) MarshalBinary() ([]byte, error) {
	if !s.IsFitted() {
		return nil, sonago.ErrNotFitted
	}
	b := make([]byte, 0, 4+16*s.cols)
	b = binary.LittleEndian.AppendUint32(b, uint32(s.cols))
	for _, v := range s.mean {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	for _, v := range s.std {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Standardize) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return errors.New("invalid standardize binary length")
	}
	cols := int(binary.LittleEndian.Uint32(data[0:4]))
	if cols <= 0 || len(data) != 4+16*cols {
		return errors.New("invalid standardize binary length")
	}

	mean := make([]float64, cols)
	std := make([]float64, cols)
	off := 4
	for i := range mean {
		mean[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[off : off+8]))
		off += 8
	}
	for i := range std {
		std[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[off : off+8]))
		off += 8
	}

	s.cols = cols
	s.mean = mean
	s.std = std
	return nil
}
