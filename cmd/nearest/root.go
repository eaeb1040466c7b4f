package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/TrevorS/nearest"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "nearest",
		Short: "Nearest-point index tooling",
		Long: `nearest builds exact (k-d tree) and approximate (LSH) nearest-point
indexes over integer points.

Examples:
  nearest generate --dims 10 --count 10000 --out d10medium.bin
  nearest bench --data d10medium.bin --dims 10 --queries 1000`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log index activity to stderr")

	logger := func() *nearest.Logger {
		if !verbose {
			return nearest.NoopLogger()
		}
		return nearest.NewTextLogger(slog.LevelInfo)
	}

	root.AddCommand(newGenerateCmd(), newBenchCmd(logger))
	return root
}
