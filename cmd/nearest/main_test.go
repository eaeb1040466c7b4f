package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrevorS/nearest"
	"github.com/TrevorS/nearest/dataset"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Definition(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "nearest", root.Use)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "generate")
	assert.Contains(t, names, "bench")
	require.NotNil(t, root.PersistentFlags().Lookup("verbose"))
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "d3.bin.zst")

	stdout, err := execute(t, "generate", "--dims", "3", "--count", "250", "--out", out, "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote 250 points (d=3)")

	points, err := dataset.ReadFile(out, 3)
	require.NoError(t, err)
	assert.Len(t, points, 250)

	want, err := dataset.Uniform(250, 3, dataset.DefaultLo, dataset.DefaultHi, dataset.NewSource(7))
	require.NoError(t, err)
	assert.Equal(t, want, points)
}

func TestGenerate_Clustered(t *testing.T) {
	out := filepath.Join(t.TempDir(), "clusters.bin")
	_, err := execute(t, "generate", "--dims", "2", "--count", "100", "--clusters", "3", "--spread", "2", "--out", out)
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, int64(100*2*8), info.Size())
}

func TestGenerate_InvalidDims(t *testing.T) {
	_, err := execute(t, "generate", "--dims", "0", "--out", filepath.Join(t.TempDir(), "x.bin"))
	assert.ErrorIs(t, err, nearest.ErrInvalidDimension)
}

func TestBench(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "d4.bin")
	_, err := execute(t, "generate", "--dims", "4", "--count", "2000", "--out", data)
	require.NoError(t, err)

	cfg := filepath.Join(dir, "lsh.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("tables: 8\nbin_width: 300\n"), 0o600))

	stdout, err := execute(t, "bench", "--data", data, "--dims", "4", "--queries", "50",
		"--config", cfg, "--workers", "4", "--metrics")
	require.NoError(t, err)

	assert.Contains(t, stdout, "dataset: 2000 points, d=4")
	assert.Contains(t, stdout, "lsh: tables=8")
	assert.Contains(t, stdout, "budget=80")
	assert.Contains(t, stdout, "batch kdtree: 50 queries on 4 workers")
	assert.Contains(t, stdout, `nearest_queries_total{index="kdtree",outcome="found"}`)

	// The exact index always reports full recall.
	for _, line := range strings.Split(stdout, "\n") {
		if strings.HasPrefix(line, "kdtree ") {
			assert.True(t, strings.HasSuffix(strings.TrimSpace(line), "1.000"), line)
		}
	}
}

func TestBench_Errors(t *testing.T) {
	_, err := execute(t, "bench", "--dims", "2")
	assert.Error(t, err, "--data is required")

	_, err = execute(t, "bench", "--data", filepath.Join(t.TempDir(), "missing.bin"), "--dims", "2")
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = execute(t, "bench", "--data", empty, "--dims", "2")
	assert.ErrorContains(t, err, "dataset is empty")
}

func TestRecallAndBounds(t *testing.T) {
	lo, hi := bounds([]nearest.Point{{3, -1}, {7, 2}})
	assert.Equal(t, int64(-1), lo)
	assert.Equal(t, int64(7), hi)

	want := []nearest.Neighbor{{ID: 0, DistanceSquared: 4}, {ID: 1, DistanceSquared: 1}}
	got := []nearest.Neighbor{{ID: 0, DistanceSquared: 4}, {ID: -1, DistanceSquared: 9}}
	assert.InDelta(t, 0.5, recall(got, want), 1e-12)
}
