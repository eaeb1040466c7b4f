package nearest

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// hashTable is one of the L independent tables of an LSHIndex.
//
// Its k projection vectors, offsets, and coefficients are drawn once and
// never change, so the bucket of a point is a pure function of the table and
// the point's coordinates. Buckets head singly-linked chains kept in an entry
// arena: heads[b] is the newest entry of bucket b and entries[e].next the
// next older one, with -1 ending a chain.
type hashTable struct {
	dims     int
	k        int
	w        float64
	combiner Combiner
	proj     []float64 // k rows of dims, row-major
	offsets  []float64 // k, in [0, w)
	coeffs   []uint64  // k, in [1, universalPrime); CombineUniversal only
	heads    []int32
	entries  []chainEntry
}

type chainEntry struct {
	id   uint32
	next int32
}

func newHashTable(dims int, p LSHParams, src rand.Source) *hashTable {
	t := &hashTable{
		dims:     dims,
		k:        p.HashesPerTable,
		w:        p.BinWidth,
		combiner: p.Combiner,
		proj:     make([]float64, p.HashesPerTable*dims),
		offsets:  make([]float64, p.HashesPerTable),
		heads:    make([]int32, p.Buckets),
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	uniform := distuv.Uniform{Min: 0, Max: p.BinWidth, Src: src}
	for j := 0; j < t.k; j++ {
		for i := 0; i < dims; i++ {
			t.proj[j*dims+i] = normal.Rand()
		}
		t.offsets[j] = uniform.Rand()
	}
	if t.combiner == CombineUniversal {
		rng := rand.New(src)
		t.coeffs = make([]uint64, t.k)
		for j := range t.coeffs {
			t.coeffs[j] = 1 + rng.Uint64N(universalPrime-1)
		}
	}

	for i := range t.heads {
		t.heads[i] = -1
	}
	return t
}

// hashes writes the k scalar hashes floor((a_j . p + b_j) / w) of the point
// pf into dst and returns dst.
func (t *hashTable) hashes(dst []int64, pf []float64) []int64 {
	for j := 0; j < t.k; j++ {
		dot := floats.Dot(t.proj[j*t.dims:(j+1)*t.dims], pf)
		dst[j] = quantize(dot, t.offsets[j], t.w)
	}
	return dst
}

// bucket returns the bucket of the point pf, using scratch (length k) for
// the scalar hashes. The result is always in [0, len(t.heads)).
func (t *hashTable) bucket(pf []float64, scratch []int64) int {
	h := t.hashes(scratch, pf)
	var g uint64
	switch t.combiner {
	case CombineFNV:
		g = combineFNV(h)
	default:
		g = combineUniversal(h, t.coeffs)
	}
	return int(g % uint64(len(t.heads)))
}

// prepend makes id the newest entry of bucket b.
func (t *hashTable) prepend(b int, id uint32) {
	t.entries = append(t.entries, chainEntry{id: id, next: t.heads[b]})
	t.heads[b] = int32(len(t.entries) - 1)
}
