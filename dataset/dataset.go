// Package dataset provides an in-memory, string-identified collection
// of fixed-dimensionality feature rows, with composable row queries and
// compressed snapshot persistence.
package dataset

import (
	"errors"
	"fmt"

	"github.com/hupe1980/sonago"
)

var (
	// ErrPointExists is returned when Add is called with an ID already
	// present in the dataset.
	ErrPointExists = errors.New("point already exists")

	// ErrPointNotFound is returned when a lookup ID is absent.
	ErrPointNotFound = errors.New("point not found")
)

// DataSet is a row-major matrix keyed by string IDs. Insertion order is
// preserved; Remove compacts rows. Not safe for concurrent use.
type DataSet struct {
	cols  int
	ids   []string
	index map[string]int
	data  []float64
}

// New creates an empty dataset whose rows carry cols features.
func New(cols int) (*DataSet, error) {
	if cols < 1 {
		return nil, sonago.NewInvalidConfig("cols", "must be >= 1")
	}
	return &DataSet{
		cols:  cols,
		index: make(map[string]int),
	}, nil
}

// Cols returns the per-row feature count.
func (ds *DataSet) Cols() int { return ds.cols }

// Len returns the number of stored rows.
func (ds *DataSet) Len() int { return len(ds.ids) }

// IDs returns the row IDs in insertion order. The slice is shared;
// callers must not modify it.
func (ds *DataSet) IDs() []string { return ds.ids }

// Data returns the flattened row-major matrix. The slice is shared;
// callers must not modify it.
func (ds *DataSet) Data() []float64 { return ds.data }

// Add inserts a new row under id. The point slice is copied.
func (ds *DataSet) Add(id string, point []float64) error {
	if len(point) != ds.cols {
		return &sonago.ErrDimensionMismatch{Expected: ds.cols, Actual: len(point)}
	}
	if _, ok := ds.index[id]; ok {
		return fmt.Errorf("%w: %q", ErrPointExists, id)
	}

	ds.index[id] = len(ds.ids)
	ds.ids = append(ds.ids, id)
	ds.data = append(ds.data, point...)
	return nil
}

// Update replaces the row stored under id.
func (ds *DataSet) Update(id string, point []float64) error {
	if len(point) != ds.cols {
		return &sonago.ErrDimensionMismatch{Expected: ds.cols, Actual: len(point)}
	}
	i, ok := ds.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrPointNotFound, id)
	}
	copy(ds.data[i*ds.cols:(i+1)*ds.cols], point)
	return nil
}

// Get returns a copy of the row stored under id.
func (ds *DataSet) Get(id string) ([]float64, error) {
	i, ok := ds.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPointNotFound, id)
	}
	out := make([]float64, ds.cols)
	copy(out, ds.data[i*ds.cols:(i+1)*ds.cols])
	return out, nil
}

// Contains reports whether id is present.
func (ds *DataSet) Contains(id string) bool {
	_, ok := ds.index[id]
	return ok
}

// Row returns the i-th row by insertion order. The slice aliases the
// dataset's storage.
func (ds *DataSet) Row(i int) []float64 {
	return ds.data[i*ds.cols : (i+1)*ds.cols]
}

// ID returns the ID of the i-th row.
func (ds *DataSet) ID(i int) string { return ds.ids[i] }

// Remove deletes the row stored under id, compacting storage.
func (ds *DataSet) Remove(id string) error {
	i, ok := ds.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrPointNotFound, id)
	}

	last := len(ds.ids) - 1
	copy(ds.data[i*ds.cols:], ds.data[(i+1)*ds.cols:])
	copy(ds.ids[i:], ds.ids[i+1:])
	ds.ids = ds.ids[:last]
	ds.data = ds.data[:last*ds.cols]

	delete(ds.index, id)
	for j := i; j < last; j++ {
		ds.index[ds.ids[j]] = j
	}
	return nil
}

// Clear removes all rows, keeping the dimensionality.
func (ds *DataSet) Clear() {
	ds.ids = ds.ids[:0]
	ds.data = ds.data[:0]
	ds.index = make(map[string]int)
}
