package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/TrevorS/nearest"
	"github.com/TrevorS/nearest/dataset"
)

type benchOptions struct {
	data    string
	dims    int
	queries int
	config  string
	seed    uint64
	budget  int
	workers int
	metrics bool
}

func newBenchCmd(logger func() *nearest.Logger) *cobra.Command {
	var o benchOptions

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare the exact and LSH indexes on a dataset",
		Long: `Build a k-d tree and an LSH index over a dataset file, answer random
queries drawn from the dataset's coordinate range with both, and report build
time, query latency, points examined per query, and LSH recall against the
exact answers.

LSH parameters come from --config (YAML, see LSHConfig) and are otherwise
derived from the dataset size and dimension.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seedSet := cmd.Flags().Changed("seed")
			return runBench(cmd.OutOrStdout(), o, seedSet, logger())
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.data, "data", "", "dataset file written by generate")
	f.IntVar(&o.dims, "dims", 0, "point dimension of the dataset")
	f.IntVar(&o.queries, "queries", 1000, "number of random queries")
	f.StringVar(&o.config, "config", "", "YAML LSH config file")
	f.Uint64Var(&o.seed, "seed", dataset.DefaultSeed, "seed for queries and LSH tables (overrides the config seed when set)")
	f.IntVar(&o.budget, "budget", 0, "LSH candidate budget per query (0 uses the index default)")
	f.IntVar(&o.workers, "workers", 1, "goroutines for the batch throughput run (1 skips it)")
	f.BoolVar(&o.metrics, "metrics", false, "print Prometheus metrics after the run")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("dims")
	return cmd
}

// queryRun is the outcome of answering every query with one index.
type queryRun struct {
	name     string
	build    time.Duration
	results  []nearest.Neighbor
	latency  []float64 // microseconds
	examined []float64
}

func runBench(w io.Writer, o benchOptions, seedSet bool, logger *nearest.Logger) error {
	if o.queries <= 0 {
		return fmt.Errorf("bench: queries must be > 0, got %d", o.queries)
	}
	if o.budget < 0 {
		return fmt.Errorf("bench: budget must be >= 0, got %d", o.budget)
	}

	points, err := dataset.ReadFile(o.data, o.dims)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return errors.New("bench: dataset is empty")
	}

	cfg := nearest.DefaultLSHConfig()
	if o.config != "" {
		if cfg, err = nearest.LoadLSHConfigFile(o.config); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	opts := []nearest.Option{
		nearest.WithLogger(logger),
		nearest.WithMetrics(nearest.NewMetrics(reg)),
	}

	start := time.Now()
	tree, err := nearest.BuildKDTree(points, o.dims, opts...)
	if err != nil {
		return err
	}
	treeBuild := time.Since(start)

	lshOpts := opts
	if seedSet || cfg.Seed == nil {
		lshOpts = append(lshOpts, nearest.WithSeed(o.seed))
	}
	start = time.Now()
	lsh, err := nearest.BuildLSH(points, o.dims, cfg, lshOpts...)
	if err != nil {
		return err
	}
	lshBuild := time.Since(start)

	lo, hi := bounds(points)
	queries, err := dataset.Uniform(o.queries, o.dims, lo, hi, dataset.NewSource(o.seed+1))
	if err != nil {
		return err
	}

	exact, err := timeQueries("kdtree", treeBuild, queries, tree.NearestTo)
	if err != nil {
		return err
	}
	lshQuery := lsh.NearestTo
	if o.budget > 0 {
		lshQuery = func(target nearest.Point) (nearest.Neighbor, bool, error) {
			return lsh.NearestWithin(target, o.budget)
		}
	}
	approx, err := timeQueries("lsh", lshBuild, queries, lshQuery)
	if err != nil {
		return err
	}

	p := lsh.Params()
	fmt.Fprintf(w, "dataset: %d points, d=%d (%d distinct)\n", len(points), o.dims, lsh.Len())
	fmt.Fprintf(w, "lsh: tables=%d hashes_per_table=%d buckets=%d bin_width=%g combiner=%s budget=%d\n",
		p.Tables, p.HashesPerTable, p.Buckets, p.BinWidth, p.Combiner, budgetOrDefault(o.budget, p))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "index\tbuild\tmean_us\tp50_us\tp99_us\tmean_examined\trecall")
	for _, run := range []queryRun{exact, approx} {
		mean, p50, p99 := summarize(run.latency)
		fmt.Fprintf(tw, "%s\t%v\t%.1f\t%.1f\t%.1f\t%.1f\t%.3f\n",
			run.name, run.build.Round(time.Microsecond), mean, p50, p99,
			stat.Mean(run.examined, nil), recall(run.results, exact.results))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if o.workers > 1 {
		for _, idx := range []struct {
			name string
			idx  nearest.Index
		}{{"kdtree", tree}, {"lsh", lsh}} {
			start := time.Now()
			if _, err := nearest.NearestBatch(idx.idx, queries, o.workers); err != nil {
				return err
			}
			elapsed := time.Since(start)
			fmt.Fprintf(w, "batch %s: %d queries on %d workers in %v (%.0f queries/s)\n",
				idx.name, len(queries), o.workers, elapsed.Round(time.Microsecond),
				float64(len(queries))/elapsed.Seconds())
		}
	}

	if o.metrics {
		return writeMetrics(w, reg)
	}
	return nil
}

func budgetOrDefault(budget int, p nearest.LSHParams) int {
	if budget > 0 {
		return budget
	}
	return p.CandidateBudget
}

func timeQueries(name string, build time.Duration, queries []nearest.Point,
	query func(nearest.Point) (nearest.Neighbor, bool, error)) (queryRun, error) {
	run := queryRun{
		name:     name,
		build:    build,
		results:  make([]nearest.Neighbor, len(queries)),
		latency:  make([]float64, len(queries)),
		examined: make([]float64, len(queries)),
	}
	for i, q := range queries {
		start := time.Now()
		nb, _, err := query(q)
		run.latency[i] = float64(time.Since(start).Nanoseconds()) / 1e3
		if err != nil {
			return queryRun{}, fmt.Errorf("bench: %s query %d: %w", name, i, err)
		}
		run.results[i] = nb
		run.examined[i] = float64(nb.Examined)
	}
	return run, nil
}

// summarize returns the mean, median, and 99th percentile of xs. It sorts xs.
func summarize(xs []float64) (mean, p50, p99 float64) {
	slices.Sort(xs)
	return stat.Mean(xs, nil),
		stat.Quantile(0.5, stat.Empirical, xs, nil),
		stat.Quantile(0.99, stat.Empirical, xs, nil)
}

// recall returns the fraction of results at the exact nearest distance.
func recall(got, want []nearest.Neighbor) float64 {
	if len(want) == 0 {
		return 0
	}
	hits := 0
	for i := range want {
		if got[i].Found() && got[i].DistanceSquared == want[i].DistanceSquared {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}

// bounds returns the smallest and largest coordinate over all points.
func bounds(points []nearest.Point) (lo, hi int64) {
	lo, hi = math.MaxInt64, math.MinInt64
	for _, p := range points {
		for _, c := range p {
			lo = min(lo, c)
			hi = max(hi, c)
		}
	}
	return lo, hi
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("bench: gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("bench: write metrics: %w", err)
		}
	}
	return nil
}
