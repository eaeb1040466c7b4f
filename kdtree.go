package nearest

import "math"

// KDTree is an exact nearest-point index that recursively partitions space
// with axis-aligned hyperplanes, cycling the splitting axis with depth.
//
// Points are stored in a flat row-major arena and nodes in a parallel slice:
// nodes[i] is the node holding point i, so a point's id is also its node's
// address. Children are arena indices with -1 for an absent child, and there
// are no parent links; every traversal is top-down.
//
// At depth depth the splitting axis is depth mod d. Points in a node's left
// subtree have a coordinate on that axis not greater than the node's point,
// strictly smaller for inserted points; points in the right subtree have a
// coordinate greater than or equal to it.
type KDTree struct {
	data    []int64  // flat row-major point data (n * dims)
	nodes   []kdNode // nodes[i] holds point i
	dims    int
	root    int32
	logger  *Logger
	metrics *Metrics
}

type kdNode struct {
	left, right int32
}

// NewKDTree returns an empty tree of the given dimension.
func NewKDTree(dims int, opts ...Option) (*KDTree, error) {
	if err := checkDimension(dims); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	return &KDTree{
		dims:    dims,
		root:    -1,
		logger:  o.logger.WithIndex(kindKDTree),
		metrics: o.metrics,
	}, nil
}

// BuildKDTree builds a balanced tree over points. Each level places the
// lower median on the current axis at the node, found with a selection
// partition rather than a full sort, for O(n log n) expected total work and
// a height of about log2(n).
//
// points is copied and never modified. Every point must have length dims.
func BuildKDTree(points []Point, dims int, opts ...Option) (*KDTree, error) {
	if err := checkPoints(points, dims); err != nil {
		return nil, err
	}
	t, err := NewKDTree(dims, opts...)
	if err != nil {
		return nil, err
	}

	n := len(points)
	t.data = make([]int64, 0, n*dims)
	for _, p := range points {
		t.data = append(t.data, p...)
	}
	t.nodes = make([]kdNode, n)

	// idx is the permutation the selection partitions in place.
	idx := make([]int32, n)
	for i := range idx {
		idx[i] = int32(i)
	}
	t.root = t.build(idx, 0)

	t.metrics.observeInsert(kindKDTree, n)
	t.logger.LogBuild(n, dims, "height", t.Height())
	return t, nil
}

// build links the subtree for the points in idx and returns its root.
// Ranges halve at every level, so recursion depth is logarithmic.
func (t *KDTree) build(idx []int32, depth int) int32 {
	if len(idx) == 0 {
		return -1
	}
	axis := depth % t.dims
	mid := (len(idx) - 1) / 2
	t.selectNth(idx, mid, axis)

	id := idx[mid]
	t.nodes[id] = kdNode{
		left:  t.build(idx[:mid], depth+1),
		right: t.build(idx[mid+1:], depth+1),
	}
	return id
}

// selectNth reorders idx so that idx[k] holds the point of rank k on axis,
// everything before it is <= and everything after it is >= on that axis.
func (t *KDTree) selectNth(idx []int32, k, axis int) {
	lo, hi := 0, len(idx)-1
	for lo < hi {
		pivot := t.medianOfThree(idx, lo, hi, axis)
		lt, gt := t.partition3(idx[lo:hi+1], pivot, axis)
		switch {
		case k < lo+lt:
			hi = lo + lt - 1
		case k > lo+gt:
			lo = lo + gt + 1
		default:
			return
		}
	}
}

// medianOfThree returns the median coordinate of the first, middle, and last
// points of idx[lo:hi+1]. The pivot always exists in the range, so every
// partition step makes progress.
func (t *KDTree) medianOfThree(idx []int32, lo, hi, axis int) int64 {
	a := t.coord(idx[lo], axis)
	b := t.coord(idx[lo+(hi-lo)/2], axis)
	c := t.coord(idx[hi], axis)
	if a > b {
		a, b = b, a
	}
	if b > c {
		b = c
	}
	return max(a, b)
}

// partition3 does a three-way partition of idx around pivot and returns the
// bounds of the equal run: idx[:lt] < pivot, idx[lt:gt+1] == pivot and
// idx[gt+1:] > pivot. Grouping equal keys keeps duplicate-heavy axes linear.
func (t *KDTree) partition3(idx []int32, pivot int64, axis int) (lt, gt int) {
	i := 0
	gt = len(idx) - 1
	for i <= gt {
		v := t.coord(idx[i], axis)
		switch {
		case v < pivot:
			idx[lt], idx[i] = idx[i], idx[lt]
			lt++
			i++
		case v > pivot:
			idx[i], idx[gt] = idx[gt], idx[i]
			gt--
		default:
			i++
		}
	}
	return lt, gt
}

// Insert adds p as a new leaf. It descends left when p is strictly smaller
// on the current axis and right otherwise.
//
// The tree is not rebalanced. Sorted or otherwise skewed insertion orders
// grow a deep, list-like tree and queries degrade toward a linear scan; the
// iterative descent and query keep such trees from exhausting the stack.
func (t *KDTree) Insert(p Point) error {
	if err := checkPoint(p, t.dims); err != nil {
		t.logger.LogInsert(-1, err)
		return err
	}
	if len(t.nodes) >= maxPoints {
		t.logger.LogInsert(-1, ErrIndexFull)
		return ErrIndexFull
	}

	id := int32(len(t.nodes))
	t.data = append(t.data, p...)
	t.nodes = append(t.nodes, kdNode{left: -1, right: -1})

	if t.root < 0 {
		t.root = id
	} else {
		cur, depth := t.root, 0
		for {
			axis := depth % t.dims
			node := &t.nodes[cur]
			if p[axis] < t.coord(cur, axis) {
				if node.left < 0 {
					node.left = id
					break
				}
				cur = node.left
			} else {
				if node.right < 0 {
					node.right = id
					break
				}
				cur = node.right
			}
			depth++
		}
	}

	t.metrics.observeInsert(kindKDTree, 1)
	t.logger.LogInsert(int(id), nil)
	return nil
}

// kdFrame is one pending step of the nearest-point traversal. A node is
// pushed twice: once to be visited and once, after its near subtree has been
// searched, to decide whether the far subtree can still hold a closer point.
type kdFrame struct {
	node  int32
	depth int32
	far   bool
}

// NearestTo returns the indexed point closest to target.
//
// The search is branch and bound: it visits the child on target's side of
// each splitting plane first and only enters the other child when the
// squared distance from target to the plane is smaller than the best squared
// distance found so far. An explicit stack replaces recursion but visits
// nodes in the same order. When several points are equally close, the one
// reached first in that order wins.
//
// ok is false when the tree is empty.
func (t *KDTree) NearestTo(target Point) (Neighbor, bool, error) {
	if err := checkPoint(target, t.dims); err != nil {
		t.logger.LogQuery(false, 0, err)
		return notFound(0), false, err
	}

	best := int32(-1)
	bestSq := math.Inf(1)
	examined := 0

	stack := make([]kdFrame, 0, 64)
	if t.root >= 0 {
		stack = append(stack, kdFrame{node: t.root})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		axis := int(f.depth) % t.dims
		node := t.nodes[f.node]
		split := t.coord(f.node, axis)
		near, far := node.right, node.left
		if target[axis] < split {
			near, far = node.left, node.right
		}

		if f.far {
			diff := float64(target[axis]) - float64(split)
			if far >= 0 && diff*diff < bestSq {
				stack = append(stack, kdFrame{node: far, depth: f.depth + 1})
			}
			continue
		}

		examined++
		if d := euclideanSumOfSquares(target, t.row(f.node)); d < bestSq {
			bestSq = d
			best = f.node
		}
		stack = append(stack, kdFrame{node: f.node, depth: f.depth, far: true})
		if near >= 0 {
			stack = append(stack, kdFrame{node: near, depth: f.depth + 1})
		}
	}

	t.metrics.observeQuery(kindKDTree, best >= 0, examined)
	t.logger.LogQuery(best >= 0, examined, nil)
	if best < 0 {
		return notFound(examined), false, nil
	}
	return Neighbor{
		ID:              int(best),
		Point:           Point(t.row(best)).Clone(),
		DistanceSquared: bestSq,
		Examined:        examined,
	}, true, nil
}

// Len returns the number of points in the tree.
func (t *KDTree) Len() int { return len(t.nodes) }

// Dimension returns the point dimension of the tree.
func (t *KDTree) Dimension() int { return t.dims }

// Point returns a copy of the point with the given id.
// It panics if id is out of range.
func (t *KDTree) Point(id int) Point { return Point(t.row(int32(id))).Clone() }

// Height returns the number of nodes on the longest root-to-leaf path,
// 0 for an empty tree.
func (t *KDTree) Height() int {
	if t.root < 0 {
		return 0
	}
	type entry struct {
		node  int32
		depth int
	}
	height := 0
	stack := []entry{{t.root, 1}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		height = max(height, e.depth)
		if l := t.nodes[e.node].left; l >= 0 {
			stack = append(stack, entry{l, e.depth + 1})
		}
		if r := t.nodes[e.node].right; r >= 0 {
			stack = append(stack, entry{r, e.depth + 1})
		}
	}
	return height
}

func (t *KDTree) row(id int32) []int64 {
	off := int(id) * t.dims
	return t.data[off : off+t.dims]
}

func (t *KDTree) coord(id int32, axis int) int64 {
	return t.data[int(id)*t.dims+axis]
}
