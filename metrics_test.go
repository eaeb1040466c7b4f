package nearest

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_KDTree(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	tree, err := BuildKDTree([]Point{{0, 0}, {1, 1}, {2, 2}}, 2, WithMetrics(m))
	require.NoError(t, err)
	require.NoError(t, tree.Insert(Point{3, 3}))

	assert.Equal(t, 4.0, testutil.ToFloat64(m.inserts.WithLabelValues(kindKDTree)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.points.WithLabelValues(kindKDTree)))

	_, _, err = tree.NearestTo(Point{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues(kindKDTree, "found")))

	empty, err := NewKDTree(2, WithMetrics(m))
	require.NoError(t, err)
	_, _, err = empty.NearestTo(Point{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues(kindKDTree, "empty")))

	n, err := testutil.GatherAndCount(reg, "nearest_query_examined_points")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "one histogram series per index kind")
}

func TestMetrics_LSHDuplicates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	points := []Point{{1, 2}, {1, 2}, {3, 4}, {1, 2}}
	idx, err := BuildLSH(points, 2, DefaultLSHConfig(), WithSeed(1), WithMetrics(m))
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.inserts.WithLabelValues(kindLSH)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.duplicates.WithLabelValues(kindLSH)))

	_, _, err = idx.NearestTo(Point{3, 4})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues(kindLSH, "found")))

	// A rejected query is not counted.
	_, _, err = idx.NearestWithin(Point{3, 4}, 0)
	require.Error(t, err)
	assert.Equal(t, 1, testutil.CollectAndCount(m.queries))
}

func TestMetrics_SharedRegistryRejectsSecondSet(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeInsert(kindKDTree, 3)
		m.observeDuplicate(kindLSH)
		m.observeQuery(kindLSH, true, 10)
	})

	tree, err := BuildKDTree([]Point{{1}}, 1, WithMetrics(nil))
	require.NoError(t, err)
	_, ok, err := tree.NearestTo(Point{2})
	require.NoError(t, err)
	assert.True(t, ok)
}
