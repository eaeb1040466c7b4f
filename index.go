package nearest

import "math"

// Index is the contract shared by the exact and approximate indexes.
type Index interface {
	// Insert adds p to the index.
	Insert(p Point) error

	// NearestTo returns the closest indexed point the index finds for target.
	// ok is false only when nothing could be examined, which is not an error.
	NearestTo(target Point) (nb Neighbor, ok bool, err error)

	// Len returns the number of points held by the index.
	Len() int

	// Dimension returns the fixed point dimension of the index.
	Dimension() int
}

var (
	_ Index = (*KDTree)(nil)
	_ Index = (*LSHIndex)(nil)
)

// Neighbor is the result of a nearest-point query.
type Neighbor struct {
	// ID is the point's insertion order within its index, or -1 when no
	// point was found.
	ID int

	// Point is a copy of the indexed point.
	Point Point

	// DistanceSquared is the squared Euclidean distance to the target,
	// +Inf when no point was found.
	DistanceSquared float64

	// Examined is the number of indexed points whose distance to the target
	// was computed while answering the query.
	Examined int
}

// Found reports whether the query produced a point.
func (n Neighbor) Found() bool { return n.ID >= 0 }

// Distance returns the Euclidean distance to the target.
func (n Neighbor) Distance() float64 { return math.Sqrt(n.DistanceSquared) }

func notFound(examined int) Neighbor {
	return Neighbor{ID: -1, DistanceSquared: math.Inf(1), Examined: examined}
}
