// Package nearest implements two in-memory nearest-point indexes over
// fixed-dimension integer point sets: an exact k-d tree and an approximate
// multi-table locality-sensitive hashing (LSH) index.
//
// Both answer the same query, "which indexed point is closest to this
// target", with different guarantees. The k-d tree always returns the true
// nearest point but its query cost drifts toward a linear scan as the
// dimension grows. The LSH index probes a bounded number of hash buckets
// and may miss the true nearest point in exchange for sub-linear expected
// query cost.
//
// Basic usage:
//
//	tree, err := nearest.BuildKDTree(points, 2)
//	nb, ok, err := tree.NearestTo(nearest.Point{1, 1})
//	// ok is false only when the tree is empty
//
//	idx, err := nearest.BuildLSH(points, 2, nearest.DefaultLSHConfig(), nearest.WithSeed(42))
//	nb, ok, err = idx.NearestTo(nearest.Point{1, 1})
//	// nb is the best point among the candidates examined
//
// # LSH parameters
//
// Unless overridden in [LSHConfig], the LSH parameters are derived from the
// dimension d and the expected dataset size N:
//
//	buckets per table    min(max(2, N/20), MaxBuckets)
//	hashes per table k   max(3, ceil(log2(max(2,d)) + log10(max(10,N)) - 2))
//	tables L             min(max(5, ceil(4*sqrt(k))), MaxTables)
//	bin width w          4
//	candidate budget     10*L
//
// Wider bins and more tables raise recall; more hashes per table raise
// selectivity. See [DeriveLSHParams].
//
// # Concurrency
//
// Neither index locks. Build and Insert must be called from a single
// goroutine. Once an index is no longer mutated, any number of goroutines
// may query it concurrently; [NearestBatch] does exactly that.
package nearest
