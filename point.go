package nearest

import (
	"math"
	"slices"
)

// Point is an ordered sequence of integer coordinates. Its dimension is not
// stored on the point; every index fixes one dimension at construction and
// rejects points of any other length.
type Point []int64

// Equal reports whether p and q have identical coordinates.
func (p Point) Equal(q Point) bool { return slices.Equal(p, q) }

// Clone returns a copy of p that shares no memory with it.
func (p Point) Clone() Point { return slices.Clone(p) }

// maxPoints bounds the number of points an index can hold. Arena slots are
// addressed by int32.
const maxPoints = math.MaxInt32

func checkDimension(dims int) error {
	if dims <= 0 {
		return &InvalidDimensionError{Dimension: dims}
	}
	return nil
}

func checkPoint(p Point, dims int) error {
	if len(p) != dims {
		return &DimensionMismatchError{Expected: dims, Actual: len(p), Position: -1}
	}
	return nil
}

// checkPoints validates a whole dataset up front so that construction either
// fails before allocating anything or succeeds for every point.
func checkPoints(points []Point, dims int) error {
	if err := checkDimension(dims); err != nil {
		return err
	}
	if len(points) > maxPoints {
		return ErrIndexFull
	}
	for i, p := range points {
		if len(p) != dims {
			return &DimensionMismatchError{Expected: dims, Actual: len(p), Position: i}
		}
	}
	return nil
}
