// Package kdtree implements a k-d tree for exact nearest-neighbour
// lookup over string-identified points of fixed dimensionality.
package kdtree

import (
	"container/heap"

	"github.com/hupe1980/sonago"
	"github.com/hupe1980/sonago/distance"
)

// Neighbour is a single k-NN result.
type Neighbour struct {
	ID       string
	Distance float64
}

type node struct {
	id    string
	point []float64
	axis  int

	left  *node
	right *node
}

// Tree is a k-d tree over points of fixed dimensionality. It is not
// safe for concurrent use.
type Tree struct {
	dims int
	root *node
	size int
}

// New creates an empty tree for points with the given dimensionality.
func New(dims int) (*Tree, error) {
	if dims < 1 {
		return nil, sonago.NewInvalidConfig("dims", "must be >= 1")
	}
	return &Tree{dims: dims}, nil
}

// Dims returns the tree's point dimensionality.
func (t *Tree) Dims() int { return t.dims }

// Len returns the number of stored points.
func (t *Tree) Len() int { return t.size }

// Add inserts a point. The point slice is copied.
func (t *Tree) Add(id string, point []float64) error {
	if len(point) != t.dims {
		return &sonago.ErrDimensionMismatch{Expected: t.dims, Actual: len(point)}
	}

	p := make([]float64, t.dims)
	copy(p, point)

	if t.root == nil {
		t.root = &node{id: id, point: p}
		t.size++
		return nil
	}

	cur := t.root
	for {
		next := &cur.left
		if p[cur.axis] >= cur.point[cur.axis] {
			next = &cur.right
		}
		if *next == nil {
			*next = &node{id: id, point: p, axis: (cur.axis + 1) % t.dims}
			t.size++
			return nil
		}
		cur = *next
	}
}

// resultHeap is a max-heap on distance, so the worst candidate is
// always on top and cheap to evict.
type resultHeap []Neighbour

func (h resultHeap) Len() int            { return len(h) }
func (h resultHeap) Less(i, j int) bool  { return h[i].Distance > h[j].Distance }
func (h resultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x any) { *h = append(*h, x.(Neighbour)) }
func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// KNearest returns up to k stored points closest to query by Euclidean
// distance, ascending. A positive radius restricts results to that
// distance; radius 0 is unbounded.
func (t *Tree) KNearest(query []float64, k int, radius float64) ([]Neighbour, error) {
	if k < 1 {
		return nil, sonago.ErrInvalidK
	}
	if len(query) != t.dims {
		return nil, &sonago.ErrDimensionMismatch{Expected: t.dims, Actual: len(query)}
	}
	if radius < 0 {
		return nil, sonago.NewInvalidConfig("radius", "must be >= 0")
	}

	results := make(resultHeap, 0, k)
	t.search(t.root, query, k, radius, &results)

	// Heap pops worst-first; reverse into ascending order.
	out := make([]Neighbour, len(results))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&results).(Neighbour)
	}
	return out, nil
}

func (t *Tree) search(n *node, query []float64, k int, radius float64, results *resultHeap) {
	if n == nil {
		return
	}

	d := distance.Euclidean(query, n.point)
	if radius == 0 || d <= radius {
		if results.Len() < k {
			heap.Push(results, Neighbour{ID: n.id, Distance: d})
		} else if d < (*results)[0].Distance {
			(*results)[0] = Neighbour{ID: n.id, Distance: d}
			heap.Fix(results, 0)
		}
	}

	diff := query[n.axis] - n.point[n.axis]
	near, far := n.left, n.right
	if diff >= 0 {
		near, far = n.right, n.left
	}

	t.search(near, query, k, radius, results)

	// Only cross the splitting plane when a better or in-radius match
	// could exist on the other side.
	planeDist := diff
	if planeDist < 0 {
		planeDist = -planeDist
	}
	if radius != 0 && planeDist > radius {
		return
	}
	if results.Len() < k || planeDist < (*results)[0].Distance {
		t.search(far, query, k, radius, results)
	}
}
