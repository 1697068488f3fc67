package metrics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"xfilecontext/internal/cache"
	"xfilecontext/internal/config"
	"xfilecontext/internal/graph"
	"xfilecontext/internal/metrics"
	"xfilecontext/internal/model"
)

func fieldByKey(fields []zap.Field, key string) (zap.Field, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return zap.Field{}, false
}

func TestRecordInjectionTracksTokenDistribution(t *testing.T) {
	r := metrics.New()
	r.RecordInjection(100, time.Millisecond)
	r.RecordInjection(600, time.Millisecond)
	r.RecordInjection(300, time.Millisecond)

	fields := r.Snapshot(cache.Stats{}, graph.New(), config.Defaults())

	count, ok := fieldByKey(fields, "injection_token_count")
	require.True(t, ok)
	assert.Equal(t, int64(3), count.Integer)

	over, ok := fieldByKey(fields, "injection_over_reference_threshold_count")
	require.True(t, ok)
	assert.Equal(t, int64(1), over.Integer)

	median, ok := fieldByKey(fields, "injection_token_median")
	require.True(t, ok)
	assert.Equal(t, int64(300), median.Integer)
}

func TestRecordWarningTalliesByKind(t *testing.T) {
	r := metrics.New()
	r.RecordWarning("exec_eval")
	r.RecordWarning("exec_eval")
	r.RecordWarning("decorator")

	fields := r.Snapshot(cache.Stats{}, graph.New(), config.Defaults())

	counts, ok := fieldByKey(fields, "warning_counts_by_kind")
	require.True(t, ok)
	m, ok := counts.Interface.(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 2, m["exec_eval"])
	assert.Equal(t, 1, m["decorator"])
}

func TestSnapshotReflectsGraphAndCacheStats(t *testing.T) {
	r := metrics.New()
	g := graph.New()
	g.AddRelationship(model.Relationship{SourceFile: "a.py", TargetFile: "b.py", RelationshipType: model.Import})
	g.UpsertMetadata(model.FileMetadata{FilePath: "a.py"})
	g.UpsertMetadata(model.FileMetadata{FilePath: "b.py"})

	fields := r.Snapshot(cache.Stats{Hits: 5}, g, config.Defaults())

	hits, ok := fieldByKey(fields, "cache_hits")
	require.True(t, ok)
	assert.Equal(t, int64(5), hits.Integer)

	fileCount, ok := fieldByKey(fields, "graph_file_count")
	require.True(t, ok)
	assert.Equal(t, int64(2), fileCount.Integer)
}

func TestSnapshotWithNoInjectionsHasZeroDistribution(t *testing.T) {
	r := metrics.New()

	fields := r.Snapshot(cache.Stats{}, graph.New(), config.Defaults())

	min, ok := fieldByKey(fields, "injection_token_min")
	require.True(t, ok)
	assert.Equal(t, int64(0), min.Integer)
}
