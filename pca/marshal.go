package pca

import (
	"encoding/binary"
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/sonago"
	"github.com/hupe1980/sonago/scale"
)

// MarshalBinary implements encoding.BinaryMarshaler. The encoding
// captures the fitted projection together with its preprocessing
// scaler, so a restored instance transforms identically.
func (p *PCA) MarshalBinary() ([]byte, error) {
	if !p.IsFitted() {
		return nil, sonago.ErrNotFitted
	}

	var scalerBytes []byte
	if p.scaler != nil {
		m, ok := p.scaler.(interface{ MarshalBinary() ([]byte, error) })
		if !ok {
			return nil, errors.New("pca: preprocessing scaler is not serializable")
		}
		b, err := m.MarshalBinary()
		if err != nil {
			return nil, err
		}
		scalerBytes = b
	}

	cols := p.cols
	b := make([]byte, 0, 14+len(scalerBytes)+8*cols*(cols+2))
	flags := byte(0)
	if p.whiten {
		flags = 1
	}
	b = append(b, flags, p.scalerKind)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(scalerBytes)))
	b = append(b, scalerBytes...)
	b = binary.LittleEndian.AppendUint32(b, uint32(cols))
	for _, v := range p.mean {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	for _, v := range p.eigenvalues {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	for r := 0; r < cols; r++ {
		for c := 0; c < cols; c++ {
			b = binary.LittleEndian.AppendUint64(b, math.Float64bits(p.components.At(r, c)))
		}
	}
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *PCA) UnmarshalBinary(data []byte) error {
	if len(data) < 10 {
		return errors.New("invalid pca binary length")
	}
	flags, kind := data[0], data[1]
	scalerLen := int(binary.LittleEndian.Uint32(data[2:6]))
	off := 6
	if len(data) < off+scalerLen+4 {
		return errors.New("invalid pca binary length")
	}

	var scaler scale.Scaler
	switch kind {
	case preprocessNone:
		if scalerLen != 0 {
			return errors.New("invalid pca binary: unexpected scaler payload")
		}
	case preprocessNormalize:
		s := &scale.Normalize{}
		if err := s.UnmarshalBinary(data[off : off+scalerLen]); err != nil {
			return err
		}
		scaler = s
	case preprocessStandardize:
		s := &scale.Standardize{}
		if err := s.UnmarshalBinary(data[off : off+scalerLen]); err != nil {
			return err
		}
		scaler = s
	case preprocessRobustScale:
		s := &scale.RobustScale{}
		if err := s.UnmarshalBinary(data[off : off+scalerLen]); err != nil {
			return err
		}
		scaler = s
	default:
		return errors.New("invalid pca binary: unknown scaler kind")
	}
	off += scalerLen

	cols := int(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4
	if cols <= 0 || len(data) != off+8*cols*(cols+2) {
		return errors.New("invalid pca binary length")
	}

	readFloats := func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[off : off+8]))
			off += 8
		}
		return out
	}

	mean := readFloats(cols)
	eigenvalues := readFloats(cols)
	components := mat.NewDense(cols, cols, readFloats(cols*cols))

	p.whiten = flags&1 != 0
	p.scalerKind = kind
	p.scaler = scaler
	p.mean = mean
	p.eigenvalues = eigenvalues
	p.components = components
	p.cols = cols
	return nil
}
