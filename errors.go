package sonago

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFitted is returned when Transform/InverseTransform is called
	// before Fit. A model never falls back to identity behavior.
	ErrNotFitted = errors.New("model is not fitted")

	// ErrInvalidK is returned when a neighbor or cluster count is not positive.
	ErrInvalidK = errors.New("k must be positive")
)

// ErrShapeMismatch indicates a buffer whose length disagrees with its
// declared shape. Shapes are never auto-truncated or padded.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrShapeMismatch struct {
	Rows  int
	Cols  int
	Len   int
	cause error
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("shape mismatch: %d x %d requires length %d, got %d", e.Rows, e.Cols, e.Rows*e.Cols, e.Len)
}

func (e *ErrShapeMismatch) Unwrap() error { return e.cause }

// ErrDimensionMismatch indicates a feature count different from the one
// an instance was fitted or constructed with.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidConfig indicates an out-of-range or inconsistent
// configuration value, rejected at construction or reconfiguration time.
type ErrInvalidConfig struct {
	Param  string
	Reason string
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Param, e.Reason)
}

// NewInvalidConfig builds an ErrInvalidConfig for the given parameter.
func NewInvalidConfig(param, reason string) error {
	return &ErrInvalidConfig{Param: param, Reason: reason}
}
