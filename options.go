package nearest

import "math/rand/v2"

type options struct {
	logger  *Logger
	metrics *Metrics
	src     rand.Source
}

// Option configures index construction.
type Option func(*options)

// WithLogger sets the logger used by the index. A nil logger disables logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics registers index activity with m. A nil m disables metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithRandSource sets the random source the LSH index draws its projections,
// offsets, and coefficients from. It takes precedence over LSHConfig.Seed.
// The k-d tree is deterministic and ignores it.
//
// Without a source or seed, every LSH index is seeded from the runtime's
// random state and is not reproducible across runs.
func WithRandSource(src rand.Source) Option {
	return func(o *options) {
		o.src = src
	}
}

// WithSeed is shorthand for WithRandSource with a PCG source seeded by seed.
func WithSeed(seed uint64) Option {
	return WithRandSource(newSeededSource(seed))
}

func newSeededSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

func newOptions(opts []Option) options {
	o := options{logger: NoopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
