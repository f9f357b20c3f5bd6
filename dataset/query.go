package dataset

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/sonago"
)

// Op is a comparison operator applied to a single feature column.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (op Op) matches(value, target float64) bool {
	switch op {
	case OpEq:
		return value == target
	case OpNe:
		return value != target
	case OpLt:
		return value < target
	case OpLe:
		return value <= target
	case OpGt:
		return value > target
	case OpGe:
		return value >= target
	default:
		return false
	}
}

// Condition filters rows on one column. Conditions combine left to
// right: an And condition intersects with the rows selected so far, an
// Or condition unions.
type Condition struct {
	Column int
	Op     Op
	Value  float64
	Or     bool
}

// Query selects and projects rows of a DataSet.
type Query struct {
	columns    []int
	conditions []Condition
	limit      int
	offset     int
}

// NewQuery creates an empty query. With no columns added, all columns
// are projected; with no conditions, all rows match.
func NewQuery() *Query {
	return &Query{}
}

// AddColumn appends a column to the projection.
func (q *Query) AddColumn(col int) *Query {
	q.columns = append(q.columns, col)
	return q
}

// AddRange appends count consecutive columns starting at first.
func (q *Query) AddRange(first, count int) *Query {
	for c := first; c < first+count; c++ {
		q.columns = append(q.columns, c)
	}
	return q
}

// Filter appends an And condition.
func (q *Query) Filter(column int, op Op, value float64) *Query {
	q.conditions = append(q.conditions, Condition{Column: column, Op: op, Value: value})
	return q
}

// Or appends an Or condition.
func (q *Query) Or(column int, op Op, value float64) *Query {
	q.conditions = append(q.conditions, Condition{Column: column, Op: op, Value: value, Or: true})
	return q
}

// Limit bounds the number of returned rows; 0 is unbounded.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Offset skips the first n matching rows.
func (q *Query) Offset(n int) *Query {
	q.offset = n
	return q
}

// Result holds the projected rows of a query.
type Result struct {
	// Data is the row-major projected matrix.
	Data []float64

	// Cols is the projected column count.
	Cols int

	// IDs holds the matching row IDs in dataset order.
	IDs []string

	// SourceIndices holds the matching row positions in the source
	// dataset, aligned with IDs.
	SourceIndices []int
}

// Rows returns the number of matched rows.
func (r *Result) Rows() int { return len(r.IDs) }

// Run evaluates the query against ds.
func (q *Query) Run(ds *DataSet) (*Result, error) {
	cols := q.columns
	if len(cols) == 0 {
		cols = make([]int, ds.Cols())
		for c := range cols {
			cols[c] = c
		}
	}
	for _, c := range cols {
		if c < 0 || c >= ds.Cols() {
			return nil, sonago.NewInvalidConfig("column", "projection out of range")
		}
	}
	for _, cond := range q.conditions {
		if cond.Column < 0 || cond.Column >= ds.Cols() {
			return nil, sonago.NewInvalidConfig("column", "condition out of range")
		}
	}
	if q.limit < 0 {
		return nil, sonago.NewInvalidConfig("limit", "must be >= 0")
	}
	if q.offset < 0 {
		return nil, sonago.NewInvalidConfig("offset", "must be >= 0")
	}

	mask := q.rowMask(ds)

	out := &Result{Cols: len(cols)}
	skipped := 0
	it := mask.Iterator()
	for it.HasNext() {
		i := int(it.Next())
		if skipped < q.offset {
			skipped++
			continue
		}
		if q.limit > 0 && len(out.IDs) >= q.limit {
			break
		}

		row := ds.Row(i)
		for _, c := range cols {
			out.Data = append(out.Data, row[c])
		}
		out.IDs = append(out.IDs, ds.ID(i))
		out.SourceIndices = append(out.SourceIndices, i)
	}
	return out, nil
}

// rowMask evaluates the condition list into a bitmap of matching row
// positions. Roaring iterates in ascending order, which keeps results
// in dataset order.
func (q *Query) rowMask(ds *DataSet) *roaring.Bitmap {
	n := uint64(ds.Len())
	if len(q.conditions) == 0 {
		mask := roaring.New()
		mask.AddRange(0, n)
		return mask
	}

	mask := q.conditionMask(ds, q.conditions[0])
	for _, cond := range q.conditions[1:] {
		m := q.conditionMask(ds, cond)
		if cond.Or {
			mask.Or(m)
		} else {
			mask.And(m)
		}
	}
	return mask
}

func (q *Query) conditionMask(ds *DataSet, cond Condition) *roaring.Bitmap {
	mask := roaring.New()
	for i := 0; i < ds.Len(); i++ {
		if cond.Op.matches(ds.Row(i)[cond.Column], cond.Value) {
			mask.Add(uint32(i))
		}
	}
	return mask
}
