package nearest

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// NearestBatch answers NearestTo for every target using multiple goroutines.
// Targets are split into contiguous ranges, one per worker, and each worker
// writes only its own range of the result, so no synchronization is needed
// for the writes. workers <= 1 runs sequentially.
//
// idx must not be mutated while the batch runs. Targets with no result get
// a Neighbor whose Found method reports false. A worker stops at its first
// error; the first error of the batch is returned with the failing target's
// position.
func NearestBatch(idx Index, targets []Point, workers int) ([]Neighbor, error) {
	n := len(targets)
	results := make([]Neighbor, n)

	query := func(start, end int) error {
		for i := start; i < end; i++ {
			nb, _, err := idx.NearestTo(targets[i])
			if err != nil {
				return fmt.Errorf("nearest: target %d: %w", i, err)
			}
			results[i] = nb
		}
		return nil
	}

	if workers <= 1 || n <= 1 {
		if err := query(0, n); err != nil {
			return nil, err
		}
		return results, nil
	}

	var g errgroup.Group
	rowsPerWorker := (n + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := min(start+rowsPerWorker, n)
		if start >= n {
			break
		}
		g.Go(func() error { return query(start, end) })
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
