package nearest

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Combiner selects how the k scalar hashes of a table are folded into one
// bucket id. An index uses a single combiner for all of its tables.
type Combiner string

const (
	// CombineUniversal maps each scalar hash into [0, P) for the prime
	// P = 2^61-1 and sums the products with per-function random coefficients
	// modulo P. Distinct hash vectors collide with low probability.
	CombineUniversal Combiner = "universal"

	// CombineFNV folds the little-endian bytes of each scalar hash, in order,
	// through FNV-1a 64.
	CombineFNV Combiner = "fnv"
)

// Limits and defaults of the LSH parameter derivation.
const (
	// MaxBuckets caps the bucket array of each table.
	MaxBuckets = 2_000_000

	// MaxTables caps the derived number of tables.
	MaxTables = 50

	// DefaultBinWidth is the derived bin width w.
	DefaultBinWidth = 4.0

	minBuckets         = 2
	pointsPerBucket    = 20
	minHashesPerTable  = 3
	minTables          = 5
	candidatesPerTable = 10
)

// LSHConfig controls the LSH index. Zero-valued fields are derived from the
// dimension and expected dataset size (see DeriveLSHParams); non-zero fields
// override the derivation. Negative values are rejected rather than clamped.
type LSHConfig struct {
	// ExpectedSize is the dataset size N used by the derivation. 0 means the
	// number of points passed to BuildLSH (and 0 for NewLSHIndex).
	ExpectedSize int `yaml:"expected_size"`

	// Buckets is the bucket array size of every table. Must be <= MaxBuckets.
	Buckets int `yaml:"buckets"`

	// HashesPerTable is k, the number of projections combined per table.
	// More hashes per table make buckets more selective.
	HashesPerTable int `yaml:"hashes_per_table"`

	// Tables is L, the number of independent tables. More tables raise
	// recall and query cost.
	Tables int `yaml:"tables"`

	// BinWidth is w, the quantization width of each projection. Wider bins
	// put more points in each bucket: better recall, worse selectivity.
	BinWidth float64 `yaml:"bin_width"`

	// Combiner selects the bucket id combination. Default: CombineUniversal.
	Combiner Combiner `yaml:"combiner"`

	// CandidateBudget is the default number of distinct points a query
	// examines before it stops. Default: 10 * Tables.
	CandidateBudget int `yaml:"candidate_budget"`

	// Seed makes the index reproducible when set. WithRandSource and
	// WithSeed take precedence over it.
	Seed *uint64 `yaml:"seed"`
}

// LSHParams are the resolved parameters an LSH index runs with.
type LSHParams struct {
	Buckets         int
	HashesPerTable  int
	Tables          int
	BinWidth        float64
	Combiner        Combiner
	CandidateBudget int
}

// DefaultLSHConfig returns a config that derives every parameter.
func DefaultLSHConfig() LSHConfig {
	return LSHConfig{
		Combiner: CombineUniversal,
	}
}

// DeriveLSHParams returns the default parameters for dimension dims and
// expected dataset size n:
//
//	Buckets         = min(max(2, n/20), MaxBuckets)
//	HashesPerTable  = max(3, ceil(log2(max(2, dims)) + log10(max(10, n)) - 2))
//	Tables          = min(max(5, ceil(4 * sqrt(HashesPerTable))), MaxTables)
//	BinWidth        = 4
//	CandidateBudget = 10 * Tables
//
// The bucket count and table count are clamped; every clamp is listed above.
func DeriveLSHParams(dims, n int) LSHParams {
	buckets := min(max(minBuckets, n/pointsPerBucket), MaxBuckets)

	logd := math.Log2(float64(max(2, dims)))
	logn := math.Log10(float64(max(10, n)))
	k := max(minHashesPerTable, int(math.Ceil(logd+logn-2)))

	tables := min(max(minTables, int(math.Ceil(4*math.Sqrt(float64(k))))), MaxTables)

	return LSHParams{
		Buckets:         buckets,
		HashesPerTable:  k,
		Tables:          tables,
		BinWidth:        DefaultBinWidth,
		Combiner:        CombineUniversal,
		CandidateBudget: candidatesPerTable * tables,
	}
}

// validate checks the explicitly set fields.
func (c *LSHConfig) validate() error {
	if c.ExpectedSize < 0 {
		return configErrorf("ExpectedSize", "must be >= 0, got %d", c.ExpectedSize)
	}
	if c.Buckets < 0 || c.Buckets > MaxBuckets {
		return configErrorf("Buckets", "must be in [1, %d] (0 derives it), got %d", MaxBuckets, c.Buckets)
	}
	if c.HashesPerTable < 0 {
		return configErrorf("HashesPerTable", "must be >= 1 (0 derives it), got %d", c.HashesPerTable)
	}
	if c.Tables < 0 {
		return configErrorf("Tables", "must be >= 1 (0 derives it), got %d", c.Tables)
	}
	if c.BinWidth < 0 || math.IsNaN(c.BinWidth) || math.IsInf(c.BinWidth, 0) {
		return configErrorf("BinWidth", "must be a finite value > 0 (0 derives it), got %v", c.BinWidth)
	}
	switch c.Combiner {
	case "", CombineUniversal, CombineFNV:
	default:
		return configErrorf("Combiner", "must be %q or %q, got %q", CombineUniversal, CombineFNV, c.Combiner)
	}
	if c.CandidateBudget < 0 {
		return configErrorf("CandidateBudget", "must be >= 1 (0 derives it), got %d", c.CandidateBudget)
	}
	return nil
}

// resolve derives the parameters for dims and n and applies the overrides.
func (c *LSHConfig) resolve(dims, n int) (LSHParams, error) {
	if err := c.validate(); err != nil {
		return LSHParams{}, err
	}
	if c.ExpectedSize > 0 {
		n = c.ExpectedSize
	}
	p := DeriveLSHParams(dims, n)
	if c.Buckets > 0 {
		p.Buckets = c.Buckets
	}
	if c.HashesPerTable > 0 {
		p.HashesPerTable = c.HashesPerTable
	}
	if c.Tables > 0 {
		p.Tables = c.Tables
		p.CandidateBudget = candidatesPerTable * p.Tables
	}
	if c.BinWidth > 0 {
		p.BinWidth = c.BinWidth
	}
	if c.Combiner != "" {
		p.Combiner = c.Combiner
	}
	if c.CandidateBudget > 0 {
		p.CandidateBudget = c.CandidateBudget
	}
	return p, nil
}

// LoadLSHConfig decodes a YAML LSH config. Unknown keys are rejected and an
// empty document yields the zero config.
//
//	tables: 20
//	bin_width: 250
//	combiner: fnv
//	seed: 42
func LoadLSHConfig(r io.Reader) (LSHConfig, error) {
	var cfg LSHConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return LSHConfig{}, fmt.Errorf("nearest: decode LSH config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return LSHConfig{}, err
	}
	return cfg, nil
}

// LoadLSHConfigFile reads an LSH config from a YAML file.
func LoadLSHConfigFile(path string) (LSHConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return LSHConfig{}, fmt.Errorf("nearest: open LSH config: %w", err)
	}
	defer f.Close()
	return LoadLSHConfig(f)
}
