package nearest

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveLSHParams(t *testing.T) {
	tests := []struct {
		name string
		dims int
		n    int
		want LSHParams
	}{
		{"empty", 1, 0, LSHParams{Buckets: 2, HashesPerTable: 3, Tables: 7, BinWidth: 4, Combiner: CombineUniversal, CandidateBudget: 70}},
		{"small", 2, 1000, LSHParams{Buckets: 50, HashesPerTable: 3, Tables: 7, BinWidth: 4, Combiner: CombineUniversal, CandidateBudget: 70}},
		{"medium", 10, 10_000, LSHParams{Buckets: 500, HashesPerTable: 6, Tables: 10, BinWidth: 4, Combiner: CombineUniversal, CandidateBudget: 100}},
		{"big", 100, 1_000_000, LSHParams{Buckets: 50_000, HashesPerTable: 11, Tables: 14, BinWidth: 4, Combiner: CombineUniversal, CandidateBudget: 140}},
		{"bucket cap", 3, 123_456_789, LSHParams{Buckets: MaxBuckets, HashesPerTable: 8, Tables: 12, BinWidth: 4, Combiner: CombineUniversal, CandidateBudget: 120}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveLSHParams(tc.dims, tc.n))
		})
	}
}

func TestDeriveLSHParams_Monotone(t *testing.T) {
	prev := DeriveLSHParams(2, 10)
	for _, n := range []int{100, 1000, 10_000, 100_000, 1_000_000} {
		p := DeriveLSHParams(2, n)
		assert.GreaterOrEqual(t, p.HashesPerTable, prev.HashesPerTable)
		assert.GreaterOrEqual(t, p.Tables, prev.Tables)
		assert.LessOrEqual(t, p.Tables, MaxTables)
		prev = p
	}
}

func TestLSHConfig_Resolve(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		cfg := LSHConfig{Buckets: 10, HashesPerTable: 2, Tables: 3, BinWidth: 7.5, Combiner: CombineFNV}
		p, err := cfg.resolve(4, 1000)
		require.NoError(t, err)
		assert.Equal(t, LSHParams{Buckets: 10, HashesPerTable: 2, Tables: 3, BinWidth: 7.5, Combiner: CombineFNV, CandidateBudget: 30}, p)
	})

	t.Run("explicit budget wins", func(t *testing.T) {
		cfg := LSHConfig{Tables: 3, CandidateBudget: 5}
		p, err := cfg.resolve(4, 1000)
		require.NoError(t, err)
		assert.Equal(t, 5, p.CandidateBudget)
	})

	t.Run("expected size", func(t *testing.T) {
		cfg := LSHConfig{ExpectedSize: 10_000}
		p, err := cfg.resolve(10, 3)
		require.NoError(t, err)
		assert.Equal(t, DeriveLSHParams(10, 10_000), p)
	})
}

func TestLSHConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   LSHConfig
		field string
	}{
		{"negative expected size", LSHConfig{ExpectedSize: -1}, "ExpectedSize"},
		{"negative buckets", LSHConfig{Buckets: -1}, "Buckets"},
		{"too many buckets", LSHConfig{Buckets: MaxBuckets + 1}, "Buckets"},
		{"negative hashes", LSHConfig{HashesPerTable: -2}, "HashesPerTable"},
		{"negative tables", LSHConfig{Tables: -1}, "Tables"},
		{"negative bin width", LSHConfig{BinWidth: -0.5}, "BinWidth"},
		{"NaN bin width", LSHConfig{BinWidth: math.NaN()}, "BinWidth"},
		{"infinite bin width", LSHConfig{BinWidth: math.Inf(1)}, "BinWidth"},
		{"unknown combiner", LSHConfig{Combiner: "md5"}, "Combiner"},
		{"negative budget", LSHConfig{CandidateBudget: -1}, "CandidateBudget"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.cfg.resolve(2, 100)
			require.ErrorIs(t, err, ErrInvalidConfig)
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.field, ce.Field)
			assert.True(t, strings.HasPrefix(err.Error(), "nearest: "+tc.field))
		})
	}

	cfg := DefaultLSHConfig()
	assert.NoError(t, cfg.validate())
}

func TestLoadLSHConfig(t *testing.T) {
	cfg, err := LoadLSHConfig(strings.NewReader(`
expected_size: 5000
buckets: 1024
hashes_per_table: 5
tables: 12
bin_width: 250
combiner: fnv
candidate_budget: 400
seed: 42
`))
	require.NoError(t, err)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, uint64(42), *cfg.Seed)
	cfg.Seed = nil
	assert.Equal(t, LSHConfig{
		ExpectedSize:    5000,
		Buckets:         1024,
		HashesPerTable:  5,
		Tables:          12,
		BinWidth:        250,
		Combiner:        CombineFNV,
		CandidateBudget: 400,
	}, cfg)
}

func TestLoadLSHConfig_Empty(t *testing.T) {
	cfg, err := LoadLSHConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, LSHConfig{}, cfg)
}

func TestLoadLSHConfig_Errors(t *testing.T) {
	_, err := LoadLSHConfig(strings.NewReader("tabels: 3\n"))
	assert.ErrorContains(t, err, "decode LSH config")

	_, err = LoadLSHConfig(strings.NewReader("tables: [1, 2]\n"))
	assert.Error(t, err)

	_, err = LoadLSHConfig(strings.NewReader("bin_width: -4\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadLSHConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lsh.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tables: 9\ncombiner: universal\n"), 0o600))

	cfg, err := LoadLSHConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Tables)
	assert.Equal(t, CombineUniversal, cfg.Combiner)

	_, err = LoadLSHConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "open LSH config")
}
