// Package pca implements principal component analysis with optional
// preprocessing and whitening.
//
// Fit learns an orthogonal projection from row-major training data.
// Transform projects new rows onto the leading components and reports
// the fraction of total variance those components retain.
// InverseTransform reconstructs rows from component space, undoing
// whitening, centering and preprocessing, so that a full-rank
// transform followed by an inverse transform recovers the input.
package pca

import (
	"math"

	"gonum.org/v1/gonum/mat"
	gonumstat "gonum.org/v1/gonum/stat"

	"github.com/hupe1980/sonago"
	"github.com/hupe1980/sonago/scale"
)

// PCA projects row-major data onto its principal components.
// Instances are not safe for concurrent mutation; Fit must complete
// before Transform or InverseTransform are called.
type PCA struct {
	whiten     bool
	scalerKind byte
	scaler     scale.Scaler

	mean        []float64
	eigenvalues []float64
	// components holds the eigenvectors as columns, sorted by
	// descending eigenvalue. Shape cols x cols.
	components *mat.Dense
	cols       int
}

// New creates a PCA with the given options. An invalid preprocessing
// option surfaces as an error here rather than at Fit time.
func New(optFns ...func(*Options)) (*PCA, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.scalerErr != nil {
		return nil, opts.scalerErr
	}
	return &PCA{
		whiten:     opts.Whiten,
		scalerKind: opts.scalerKind,
		scaler:     opts.scaler,
	}, nil
}

// Fit learns the projection from row-major training data.
func (p *PCA) Fit(data []float64, rows, cols int) error {
	if err := validateInput(data, rows, cols); err != nil {
		return err
	}
	if rows < 2 {
		return sonago.NewInvalidConfig("rows", "need at least 2 rows to fit")
	}

	work := data
	if p.scaler != nil {
		scaled, err := p.scaler.FitTransform(data, rows, cols)
		if err != nil {
			return err
		}
		work = scaled
	}

	mean := make([]float64, cols)
	for row := 0; row < rows; row++ {
		for c := 0; c < cols; c++ {
			mean[c] += work[row*cols+c]
		}
	}
	for c := range mean {
		mean[c] /= float64(rows)
	}

	centered := mat.NewDense(rows, cols, nil)
	for row := 0; row < rows; row++ {
		for c := 0; c < cols; c++ {
			centered.Set(row, c, work[row*cols+c]-mean[c])
		}
	}

	cov := mat.NewSymDense(cols, nil)
	gonumstat.CovarianceMatrix(cov, centered, nil)

	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return sonago.NewInvalidConfig("data", "eigendecomposition failed")
	}

	// gonum returns eigenvalues in ascending order; reverse both the
	// values and the corresponding eigenvector columns.
	asc := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	eigenvalues := make([]float64, cols)
	components := mat.NewDense(cols, cols, nil)
	for i := 0; i < cols; i++ {
		src := cols - 1 - i
		ev := asc[src]
		if ev < 0 {
			// Numerical noise on rank-deficient covariances.
			ev = 0
		}
		eigenvalues[i] = ev
		for r := 0; r < cols; r++ {
			components.Set(r, i, vecs.At(r, src))
		}
	}

	p.mean = mean
	p.eigenvalues = eigenvalues
	p.components = components
	p.cols = cols
	return nil
}

// FitTransform fits on data and projects it onto targetDims components.
func (p *PCA) FitTransform(data []float64, rows, cols, targetDims int) ([]float64, float64, error) {
	if err := p.Fit(data, rows, cols); err != nil {
		return nil, 0, err
	}
	return p.Transform(data, rows, cols, targetDims)
}

// Transform projects row-major data onto the leading targetDims
// components. It returns the projected rows and the fraction of total
// variance retained by those components.
func (p *PCA) Transform(data []float64, rows, cols, targetDims int) ([]float64, float64, error) {
	if !p.IsFitted() {
		return nil, 0, sonago.ErrNotFitted
	}
	if err := validateInput(data, rows, cols); err != nil {
		return nil, 0, err
	}
	if cols != p.cols {
		return nil, 0, &sonago.ErrDimensionMismatch{Expected: p.cols, Actual: cols}
	}
	if targetDims < 1 || targetDims > p.cols {
		return nil, 0, sonago.NewInvalidConfig("targetDims", "must be in [1, fitted dims]")
	}

	work := data
	if p.scaler != nil {
		scaled, err := p.scaler.Transform(data, rows, cols)
		if err != nil {
			return nil, 0, err
		}
		work = scaled
	}

	out := make([]float64, rows*targetDims)
	for row := 0; row < rows; row++ {
		for k := 0; k < targetDims; k++ {
			sum := 0.0
			for c := 0; c < cols; c++ {
				sum += (work[row*cols+c] - p.mean[c]) * p.components.At(c, k)
			}
			if p.whiten {
				sum /= whitenScale(p.eigenvalues[k])
			}
			out[row*targetDims+k] = sum
		}
	}

	return out, p.explainedVariance(targetDims), nil
}

// InverseTransform reconstructs row-major data from component space.
// Projections narrower than the fitted dimensionality are zero-padded,
// so the reconstruction is exact only for full-rank projections.
func (p *PCA) InverseTransform(data []float64, rows, dims int) ([]float64, error) {
	if !p.IsFitted() {
		return nil, sonago.ErrNotFitted
	}
	if err := validateInput(data, rows, dims); err != nil {
		return nil, err
	}
	if dims > p.cols {
		return nil, &sonago.ErrDimensionMismatch{Expected: p.cols, Actual: dims}
	}

	out := make([]float64, rows*p.cols)
	for row := 0; row < rows; row++ {
		for c := 0; c < p.cols; c++ {
			sum := 0.0
			for k := 0; k < dims; k++ {
				y := data[row*dims+k]
				if p.whiten {
					y *= whitenScale(p.eigenvalues[k])
				}
				sum += p.components.At(c, k) * y
			}
			out[row*p.cols+c] = sum + p.mean[c]
		}
	}

	if p.scaler != nil {
		return p.scaler.InverseTransform(out, rows, p.cols)
	}
	return out, nil
}

// Dims returns the fitted input dimensionality, or 0 before Fit.
func (p *PCA) Dims() int { return p.cols }

// Whiten reports whether projected components are variance-normalized.
func (p *PCA) Whiten() bool { return p.whiten }

// IsFitted reports whether Fit has completed.
func (p *PCA) IsFitted() bool { return p.cols > 0 }

// ExplainedVarianceRatio returns the per-component fraction of total
// variance, sorted descending.
func (p *PCA) ExplainedVarianceRatio() []float64 {
	if !p.IsFitted() {
		return nil
	}
	total := 0.0
	for _, ev := range p.eigenvalues {
		total += ev
	}
	ratios := make([]float64, p.cols)
	if total == 0 {
		return ratios
	}
	for i, ev := range p.eigenvalues {
		ratios[i] = ev / total
	}
	return ratios
}

func (p *PCA) explainedVariance(targetDims int) float64 {
	total, kept := 0.0, 0.0
	for i, ev := range p.eigenvalues {
		total += ev
		if i < targetDims {
			kept += ev
		}
	}
	if total == 0 {
		return 0
	}
	return kept / total
}

func whitenScale(eigenvalue float64) float64 {
	s := math.Sqrt(eigenvalue)
	if s == 0 {
		return 1
	}
	return s
}

func validateInput(data []float64, rows, cols int) error {
	if rows <= 0 || cols <= 0 || len(data) != rows*cols {
		return &sonago.ErrShapeMismatch{Rows: rows, Cols: cols, Len: len(data)}
	}
	return nil
}
