package nearest

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/RoaringBitmap/roaring/v2"
)

// LSHIndex is an approximate nearest-point index built from L independent
// hash tables. Each table quantizes k random projections of a point and
// combines them into one bucket id; points that are close in space tend to
// share buckets.
//
// A query probes the target's bucket in every table and returns the closest
// point among the candidates it examines. The true nearest point is missed
// when it shares none of those buckets or the candidate budget runs out
// before it is reached.
//
// The index owns a copy of every point in a flat arena; chain entries refer
// to points by id. Exact duplicates are stored once: a duplicate hashes to
// the same bucket in every table, so one chain scan finds it and the
// insertion is dropped.
type LSHIndex struct {
	dims    int
	params  LSHParams
	tables  []*hashTable
	data    []int64 // flat row-major point data (n * dims)
	n       int
	logger  *Logger
	metrics *Metrics
}

// lshScratch holds per-call buffers so bucket ids can be computed without
// allocating per table.
type lshScratch struct {
	pf      []float64
	hashes  []int64
	buckets []int
}

// NewLSHIndex returns an empty LSH index. Parameters not set in cfg are
// derived from dims and cfg.ExpectedSize.
func NewLSHIndex(dims int, cfg LSHConfig, opts ...Option) (*LSHIndex, error) {
	if err := checkDimension(dims); err != nil {
		return nil, err
	}
	return newLSHIndex(dims, 0, cfg, newOptions(opts))
}

// BuildLSH indexes points. Parameters not set in cfg are derived from dims
// and cfg.ExpectedSize, or len(points) when ExpectedSize is 0. Every point is
// validated before any table is allocated.
func BuildLSH(points []Point, dims int, cfg LSHConfig, opts ...Option) (*LSHIndex, error) {
	if err := checkPoints(points, dims); err != nil {
		return nil, err
	}
	x, err := newLSHIndex(dims, len(points), cfg, newOptions(opts))
	if err != nil {
		return nil, err
	}

	x.data = make([]int64, 0, len(points)*dims)
	s := x.newScratch()
	for _, p := range points {
		if _, err := x.insert(p, s); err != nil {
			return nil, err
		}
	}

	x.logger.LogBuild(x.n, dims,
		"duplicates", len(points)-x.n,
		"tables", x.params.Tables,
		"hashes_per_table", x.params.HashesPerTable,
		"buckets", x.params.Buckets,
		"bin_width", x.params.BinWidth,
		"combiner", string(x.params.Combiner),
	)
	return x, nil
}

func newLSHIndex(dims, n int, cfg LSHConfig, o options) (*LSHIndex, error) {
	params, err := cfg.resolve(dims, n)
	if err != nil {
		return nil, err
	}

	src := o.src
	switch {
	case src != nil:
	case cfg.Seed != nil:
		src = newSeededSource(*cfg.Seed)
	default:
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	x := &LSHIndex{
		dims:    dims,
		params:  params,
		tables:  make([]*hashTable, params.Tables),
		logger:  o.logger.WithIndex(kindLSH),
		metrics: o.metrics,
	}
	for i := range x.tables {
		x.tables[i] = newHashTable(dims, params, src)
	}
	return x, nil
}

func (x *LSHIndex) newScratch() *lshScratch {
	return &lshScratch{
		pf:      make([]float64, x.dims),
		hashes:  make([]int64, x.params.HashesPerTable),
		buckets: make([]int, len(x.tables)),
	}
}

// Insert adds p to every table. Inserting a point equal to one already in
// the index is a no-op.
func (x *LSHIndex) Insert(p Point) error {
	if err := checkPoint(p, x.dims); err != nil {
		x.logger.LogInsert(-1, err)
		return err
	}
	_, err := x.insert(p, x.newScratch())
	return err
}

// insert stores p and reports whether it was new.
func (x *LSHIndex) insert(p Point, s *lshScratch) (bool, error) {
	toFloat64(s.pf, p)
	for i, t := range x.tables {
		s.buckets[i] = t.bucket(s.pf, s.hashes)
	}

	if existing := x.findInChain(x.tables[0], s.buckets[0], p); existing >= 0 {
		x.metrics.observeDuplicate(kindLSH)
		x.logger.LogDuplicate(existing)
		return false, nil
	}
	if x.n >= maxPoints {
		x.logger.LogInsert(-1, ErrIndexFull)
		return false, ErrIndexFull
	}

	id := uint32(x.n)
	x.data = append(x.data, p...)
	x.n++
	for i, t := range x.tables {
		t.prepend(s.buckets[i], id)
	}

	x.metrics.observeInsert(kindLSH, 1)
	x.logger.LogInsert(int(id), nil)
	return true, nil
}

// findInChain returns the id of a point equal to p in bucket b of t, or -1.
func (x *LSHIndex) findInChain(t *hashTable, b int, p Point) int {
	for e := t.heads[b]; e >= 0; e = t.entries[e].next {
		id := t.entries[e].id
		if p.Equal(x.row(id)) {
			return int(id)
		}
	}
	return -1
}

// NearestTo returns the closest point among the candidates examined within
// the index's default candidate budget (LSHParams.CandidateBudget).
func (x *LSHIndex) NearestTo(target Point) (Neighbor, bool, error) {
	return x.NearestWithin(target, x.params.CandidateBudget)
}

// NearestWithin returns the closest point among at most budget distinct
// candidates. Tables are probed in order and each bucket chain is scanned
// newest first; a point already examined through an earlier table is
// skipped and not charged again.
//
// The candidates examined with a budget are a prefix of those examined with
// any larger budget, so raising the budget never yields a farther point.
// Pass math.MaxInt to examine every colliding point.
//
// ok is false when every probed bucket is empty.
func (x *LSHIndex) NearestWithin(target Point, budget int) (Neighbor, bool, error) {
	if budget <= 0 {
		err := fmt.Errorf("%w, got %d", ErrInvalidBudget, budget)
		x.logger.LogQuery(false, 0, err)
		return notFound(0), false, err
	}
	if err := checkPoint(target, x.dims); err != nil {
		x.logger.LogQuery(false, 0, err)
		return notFound(0), false, err
	}

	s := x.newScratch()
	toFloat64(s.pf, target)
	visited := roaring.New()

	best := -1
	bestSq := math.Inf(1)
	examined := 0

probe:
	for _, t := range x.tables {
		b := t.bucket(s.pf, s.hashes)
		for e := t.heads[b]; e >= 0; e = t.entries[e].next {
			id := t.entries[e].id
			if visited.Contains(id) {
				continue
			}
			if examined >= budget {
				break probe
			}
			visited.Add(id)
			examined++
			if d := euclideanSumOfSquares(target, x.row(id)); d < bestSq {
				bestSq = d
				best = int(id)
			}
		}
	}

	x.metrics.observeQuery(kindLSH, best >= 0, examined)
	x.logger.LogQuery(best >= 0, examined, nil)
	if best < 0 {
		return notFound(examined), false, nil
	}
	return Neighbor{
		ID:              best,
		Point:           Point(x.row(uint32(best))).Clone(),
		DistanceSquared: bestSq,
		Examined:        examined,
	}, true, nil
}

// LSHStats describes how points are spread over the buckets of an index.
type LSHStats struct {
	Points          int
	Tables          int
	Entries         int // chain entries over all tables
	OccupiedBuckets int // non-empty buckets over all tables
	LongestChain    int
}

// Stats walks every table and reports bucket occupancy.
func (x *LSHIndex) Stats() LSHStats {
	st := LSHStats{Points: x.n, Tables: len(x.tables)}
	for _, t := range x.tables {
		st.Entries += len(t.entries)
		for _, head := range t.heads {
			if head < 0 {
				continue
			}
			st.OccupiedBuckets++
			length := 0
			for e := head; e >= 0; e = t.entries[e].next {
				length++
			}
			st.LongestChain = max(st.LongestChain, length)
		}
	}
	return st
}

// Len returns the number of distinct points in the index.
func (x *LSHIndex) Len() int { return x.n }

// Dimension returns the point dimension of the index.
func (x *LSHIndex) Dimension() int { return x.dims }

// Params returns the resolved parameters of the index.
func (x *LSHIndex) Params() LSHParams { return x.params }

// Point returns a copy of the point with the given id.
// It panics if id is out of range.
func (x *LSHIndex) Point(id int) Point { return Point(x.row(uint32(id))).Clone() }

// bucketOf returns the bucket p falls into in the given table.
func (x *LSHIndex) bucketOf(table int, p Point) int {
	s := x.newScratch()
	return x.tables[table].bucket(toFloat64(s.pf, p), s.hashes)
}

func (x *LSHIndex) row(id uint32) []int64 {
	off := int(id) * x.dims
	return x.data[off : off+x.dims]
}
