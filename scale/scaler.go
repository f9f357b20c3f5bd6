// Package scale provides fit/transform/inverse-transform feature
// scalers over row-major point matrices: min-max normalization,
// z-score standardization, and percentile-based robust scaling.
//
// All scalers share the same lifecycle: created unfit, fitted on a
// matrix that pins the feature dimensionality, then applied any number
// of times. Transforming with a different column count, or before
// fitting, is an error, never silent broadcasting.
package scale

import (
	"fmt"
	"slices"

	gstat "gonum.org/v1/gonum/stat"

	"github.com/hupe1980/sonago"
	"github.com/hupe1980/sonago/tensor"
)

// Scaler is the common capability set of the feature scalers.
type Scaler interface {
	// Fit learns per-feature parameters from a row-major matrix.
	Fit(data []float64, rows, cols int) error
	// Transform maps data into the scaled space.
	Transform(data []float64, rows, cols int) ([]float64, error)
	// InverseTransform maps scaled data back to the original space.
	InverseTransform(data []float64, rows, cols int) ([]float64, error)
	// FitTransform is Fit followed by Transform on the same data.
	FitTransform(data []float64, rows, cols int) ([]float64, error)
	// IsFitted reports whether Fit has completed.
	IsFitted() bool
}

func validateFit(data []float64, rows, cols int) error {
	return tensor.ValidateRowMajor(data, rows, cols)
}

func validateProcess(name string, fitted bool, fittedCols int, data []float64, rows, cols int) error {
	if !fitted {
		return fmt.Errorf("%s: %w", name, sonago.ErrNotFitted)
	}
	if err := tensor.ValidateRowMajor(data, rows, cols); err != nil {
		return err
	}
	if cols != fittedCols {
		return &sonago.ErrDimensionMismatch{Expected: fittedCols, Actual: cols}
	}
	return nil
}

// column copies feature col of a row-major matrix into dst.
func column(dst, data []float64, rows, cols, col int) []float64 {
	dst = dst[:0]
	for r := 0; r < rows; r++ {
		dst = append(dst, data[r*cols+col])
	}
	return dst
}

// columnQuantile returns the pct-th percentile of one feature column.
func columnQuantile(buf, data []float64, rows, cols, col int, pct float64) float64 {
	c := column(buf, data, rows, cols, col)
	slices.Sort(c)
	return gstat.Quantile(pct/100, gstat.LinInterp, c, nil)
}
