package pca

import (
	"github.com/hupe1980/sonago/scale"
)

const (
	preprocessNone byte = iota
	preprocessNormalize
	preprocessStandardize
	preprocessRobustScale
)

// Options configure a PCA instance.
type Options struct {
	// Whiten divides each projected component by the square root of its
	// eigenvalue so that the output has unit variance per component.
	Whiten bool

	scalerKind byte
	scaler     scale.Scaler
	scalerErr  error
}

// WithWhiten enables whitening of the projected components.
func WithWhiten() func(*Options) {
	return func(o *Options) {
		o.Whiten = true
	}
}

// WithNormalize applies min-max scaling to the given range before the
// projection is fitted.
func WithNormalize(min, max float64) func(*Options) {
	return func(o *Options) {
		s, err := scale.NewNormalize(min, max)
		o.scalerKind, o.scaler, o.scalerErr = preprocessNormalize, s, err
	}
}

// WithStandardize applies z-score scaling before the projection is fitted.
func WithStandardize() func(*Options) {
	return func(o *Options) {
		o.scalerKind, o.scaler, o.scalerErr = preprocessStandardize, scale.NewStandardize(), nil
	}
}

// WithRobustScale applies percentile-based scaling before the projection
// is fitted.
func WithRobustScale(lowPercentile, highPercentile float64) func(*Options) {
	return func(o *Options) {
		s, err := scale.NewRobustScale(lowPercentile, highPercentile)
		o.scalerKind, o.scaler, o.scalerErr = preprocessRobustScale, s, err
	}
}
