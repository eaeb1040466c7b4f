// Package dataset generates synthetic point sets and stores them as flat
// little-endian int64 arrays, optionally zstd-compressed.
//
// A dataset file holds its points back to back, each as dims consecutive
// 8-byte little-endian coordinates, with no header. The dimension is not
// recorded and must be supplied when reading.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/TrevorS/nearest"
)

// DefaultSeed is the seed the generators use when none is given.
const DefaultSeed = 42

// Default coordinate range of generated datasets.
const (
	DefaultLo = 0
	DefaultHi = 1000
)

// ErrInvalidRange is returned when a coordinate range is empty.
var ErrInvalidRange = errors.New("dataset: invalid coordinate range")

// NewSource returns a PCG source for seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

func checkShape(n, dims int, lo, hi int64) error {
	if n < 0 {
		return fmt.Errorf("dataset: count must be >= 0, got %d", n)
	}
	if dims <= 0 {
		return &nearest.InvalidDimensionError{Dimension: dims}
	}
	if lo > hi {
		return fmt.Errorf("%w: lo %d > hi %d", ErrInvalidRange, lo, hi)
	}
	return nil
}

// uniformInt returns an integer drawn uniformly from [lo, hi].
func uniformInt(rng *rand.Rand, lo, hi int64) int64 {
	span := uint64(hi) - uint64(lo) + 1
	if span == 0 {
		// [MinInt64, MaxInt64]
		return int64(rng.Uint64())
	}
	return lo + int64(rng.Uint64N(span))
}

// Uniform returns n points whose coordinates are drawn independently and
// uniformly from [lo, hi].
func Uniform(n, dims int, lo, hi int64, src rand.Source) ([]nearest.Point, error) {
	if err := checkShape(n, dims, lo, hi); err != nil {
		return nil, err
	}
	rng := rand.New(src)
	points := make([]nearest.Point, n)
	for i := range points {
		p := make(nearest.Point, dims)
		for j := range p {
			p[j] = uniformInt(rng, lo, hi)
		}
		points[i] = p
	}
	return points, nil
}

// Clustered returns n points spread around clusters centers drawn uniformly
// from [lo, hi]. Each point picks a center at random and adds an independent
// normal offset with standard deviation spread to every coordinate, rounded
// to the nearest integer and clamped to [lo, hi].
func Clustered(n, dims, clusters int, spread float64, lo, hi int64, src rand.Source) ([]nearest.Point, error) {
	if err := checkShape(n, dims, lo, hi); err != nil {
		return nil, err
	}
	if clusters <= 0 {
		return nil, fmt.Errorf("dataset: clusters must be > 0, got %d", clusters)
	}
	if spread < 0 || math.IsNaN(spread) || math.IsInf(spread, 0) {
		return nil, fmt.Errorf("dataset: spread must be a finite value >= 0, got %v", spread)
	}

	rng := rand.New(src)
	centers := make([]nearest.Point, clusters)
	for c := range centers {
		centers[c] = make(nearest.Point, dims)
		for j := range centers[c] {
			centers[c][j] = uniformInt(rng, lo, hi)
		}
	}

	offset := distuv.Normal{Mu: 0, Sigma: spread, Src: src}
	points := make([]nearest.Point, n)
	for i := range points {
		center := centers[rng.IntN(clusters)]
		p := make(nearest.Point, dims)
		for j := range p {
			p[j] = clamp(float64(center[j])+math.Round(offset.Rand()), lo, hi)
		}
		points[i] = p
	}
	return points, nil
}

func clamp(v float64, lo, hi int64) int64 {
	switch {
	case v >= float64(hi):
		return hi
	case v <= float64(lo):
		return lo
	}
	return int64(v)
}
