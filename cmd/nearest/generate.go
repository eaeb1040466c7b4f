package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TrevorS/nearest"
	"github.com/TrevorS/nearest/dataset"
)

type generateOptions struct {
	dims     int
	count    int
	out      string
	clusters int
	spread   float64
	lo       int64
	hi       int64
	seed     uint64
}

func newGenerateCmd() *cobra.Command {
	var o generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a random dataset file",
		Long: `Write count random points of dimension dims to a flat little-endian int64
file. Coordinates are uniform in [lo, hi] unless --clusters is set. A .zst
suffix on --out compresses the file with zstd.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, o)
		},
	}

	f := cmd.Flags()
	f.IntVar(&o.dims, "dims", 2, "point dimension")
	f.IntVar(&o.count, "count", 1000, "number of points")
	f.StringVarP(&o.out, "out", "o", "", "output file (default d<dims>_<count>.bin)")
	f.IntVar(&o.clusters, "clusters", 0, "number of clusters (0 for uniform points)")
	f.Float64Var(&o.spread, "spread", 10, "standard deviation of points around their cluster center")
	f.Int64Var(&o.lo, "lo", dataset.DefaultLo, "lowest coordinate")
	f.Int64Var(&o.hi, "hi", dataset.DefaultHi, "highest coordinate")
	f.Uint64Var(&o.seed, "seed", dataset.DefaultSeed, "random seed")
	return cmd
}

func runGenerate(cmd *cobra.Command, o generateOptions) error {
	if o.out == "" {
		o.out = fmt.Sprintf("d%d_%d.bin", o.dims, o.count)
	}

	src := dataset.NewSource(o.seed)
	var (
		points []nearest.Point
		err    error
	)
	if o.clusters > 0 {
		points, err = dataset.Clustered(o.count, o.dims, o.clusters, o.spread, o.lo, o.hi, src)
	} else {
		points, err = dataset.Uniform(o.count, o.dims, o.lo, o.hi, src)
	}
	if err != nil {
		return err
	}

	if err := dataset.WriteFile(o.out, points); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d points (d=%d) to %s\n", len(points), o.dims, o.out)
	return nil
}
