package nearest

import "math"

// SquaredDistance returns the squared Euclidean distance between a and b.
// Both indexes compare squared distances internally and skip the sqrt.
//
// Coordinate differences are taken in float64, so coordinates whose
// magnitude exceeds 2^53 lose precision.
func SquaredDistance(a, b Point) float64 {
	return euclideanSumOfSquares(a, b)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Sqrt(euclideanSumOfSquares(a, b))
}

func euclideanSumOfSquares(a, b []int64) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// toFloat64 writes p into dst as float64 coordinates and returns dst.
func toFloat64(dst []float64, p Point) []float64 {
	for i, v := range p {
		dst[i] = float64(v)
	}
	return dst
}
