package cache_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xfilecontext/internal/analyzer"
	"xfilecontext/internal/cache"
	"xfilecontext/internal/graph"
	"xfilecontext/internal/model"
	"xfilecontext/internal/watcher"
)

// fakeAnalyzer returns a fixed set of relationships/warnings/metadata for
// every file, regardless of content, so refresh's post-read pipeline can
// be exercised without a real parser.
type fakeAnalyzer struct {
	rels     []model.Relationship
	warnings []model.Warning
	meta     model.FileMetadata
	err      error
}

func (f fakeAnalyzer) Analyze(path string) ([]model.Relationship, []model.Warning, model.FileMetadata, error) {
	meta := f.meta
	meta.FilePath = path
	return f.rels, f.warnings, meta, f.err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestGetReadsFileOnFirstAccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	writeFile(t, path, "hello world")

	c := cache.New(1024, graph.New(), watcher.NewTimestamps(), nil)

	content, hit, err := c.Get(context.Background(), path, nil)
	require.NoError(t, err)
	assert.False(t, hit, "first read must refresh from disk, not report a hit")
	assert.Equal(t, "hello world", content)
}

func TestGetHitsCacheWithoutNewEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	writeFile(t, path, "hello")

	c := cache.New(1024, graph.New(), watcher.NewTimestamps(), nil)

	_, hit, err := c.Get(context.Background(), path, nil)
	require.NoError(t, err)
	assert.False(t, hit)
	_, hit, err = c.Get(context.Background(), path, nil)
	require.NoError(t, err)
	assert.True(t, hit, "second read of unchanged file must report a cache hit")

	assert.Equal(t, int64(1), c.GetStatistics().Hits)
}

func TestGetRefreshesOnNewEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	writeFile(t, path, "v1")

	ts := watcher.NewTimestamps()
	c := cache.New(1024, graph.New(), ts, nil)

	_, _, err := c.Get(context.Background(), path, nil)
	require.NoError(t, err)

	writeFile(t, path, "v2")
	ts.Touch(path, time.Now().Add(time.Second))

	content, hit, err := c.Get(context.Background(), path, nil)
	require.NoError(t, err)
	assert.False(t, hit, "a staleness-driven refresh must not report a cache hit")
	assert.Equal(t, "v2", content)
	assert.Equal(t, int64(2), c.GetStatistics().StalenessRefreshes)
}

func TestGetSlicesLineRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	writeFile(t, path, "one\ntwo\nthree\nfour\n")

	c := cache.New(1024, graph.New(), watcher.NewTimestamps(), nil)

	content, _, err := c.Get(context.Background(), path, &model.LineRange{Start: 2, End: 3})
	require.NoError(t, err)
	assert.Equal(t, "two\nthree", content)
}

func TestGetMissingFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.py")

	c := cache.New(1024, graph.New(), watcher.NewTimestamps(), nil)

	_, _, err := c.Get(context.Background(), path, nil)
	assert.Error(t, err)
}

func TestEvictToLimitDropsLeastRecentlyUsed(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.py")
	b := filepath.Join(dir, "b.py")
	writeFile(t, a, "aaaaaaaaaa") // 10 bytes
	writeFile(t, b, "bbbbbbbbbb") // 10 bytes

	c := cache.New(1, graph.New(), watcher.NewTimestamps(), nil) // 1KB limit, plenty
	_, _, err := c.Get(context.Background(), a, nil)
	require.NoError(t, err)
	_, _, err = c.Get(context.Background(), b, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.GetStatistics().Evictions)

	// A tighter cache forces eviction of the least-recently-used entry.
	tight := cache.New(0, graph.New(), watcher.NewTimestamps(), nil)
	_, _, err = tight.Get(context.Background(), a, nil)
	require.NoError(t, err)
	_, _, err = tight.Get(context.Background(), b, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, tight.GetStatistics().Evictions, int64(1))
}

func TestRefreshUpdatesGraphFromAnalyzer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	writeFile(t, path, "import b\n")

	g := graph.New()
	fa := fakeAnalyzer{rels: []model.Relationship{
		{SourceFile: path, TargetFile: "b.py", RelationshipType: model.Import},
	}}
	reg := analyzer.NewRegistry(fa)
	c := cache.New(1024, g, watcher.NewTimestamps(), reg)

	_, _, err := c.Get(context.Background(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"b.py"}, g.GetDependencies(path))
}

func TestDrainWarningsReturnsAndClearsPending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	writeFile(t, path, "eval(x)\n")

	fa := fakeAnalyzer{warnings: []model.Warning{{FilePath: path, WarningType: "exec_eval"}}}
	reg := analyzer.NewRegistry(fa)
	c := cache.New(1024, graph.New(), watcher.NewTimestamps(), reg)

	_, _, err := c.Get(context.Background(), path, nil)
	require.NoError(t, err)

	warnings := c.DrainWarnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "exec_eval", warnings[0].WarningType)

	assert.Empty(t, c.DrainWarnings())
}
