package spectral

import (
	"fmt"
	"math"
)

// WindowType selects the analysis window applied to each frame.
type WindowType int

const (
	WindowHann WindowType = iota
	WindowHamming
	WindowBlackman
	WindowRectangular
)

func (w WindowType) String() string {
	switch w {
	case WindowHann:
		return "Hann"
	case WindowHamming:
		return "Hamming"
	case WindowBlackman:
		return "Blackman"
	case WindowRectangular:
		return "Rectangular"
	default:
		return fmt.Sprintf("Unknown(%d)", w)
	}
}

// MakeWindow returns the window coefficients for the given type and
// size.
func MakeWindow(w WindowType, size int) ([]float64, error) {
	if size < 1 {
		return nil, fmt.Errorf("invalid window size %d", size)
	}

	out := make([]float64, size)
	n := float64(size)
	switch w {
	case WindowHann:
		for i := range out {
			out[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/n)
		}
	case WindowHamming:
		for i := range out {
			out[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/n)
		}
	case WindowBlackman:
		for i := range out {
			x := 2 * math.Pi * float64(i) / n
			out[i] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
		}
	case WindowRectangular:
		for i := range out {
			out[i] = 1
		}
	default:
		return nil, fmt.Errorf("unsupported window type: %v", w)
	}
	return out, nil
}
