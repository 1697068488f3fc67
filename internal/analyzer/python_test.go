package analyzer_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xfilecontext/internal/analyzer"
	"xfilecontext/internal/config"
	"xfilecontext/internal/detector"
	"xfilecontext/internal/model"
	"xfilecontext/internal/resolver"
)

// fakeParseRecorder captures RecordParse calls without depending on
// internal/metrics (which would import this package transitively via
// internal/cache, a cycle analyzer.ParseRecorder exists to avoid).
type fakeParseRecorder struct {
	calls []time.Duration
}

func (f *fakeParseRecorder) RecordParse(d time.Duration) {
	f.calls = append(f.calls, d)
}

func newPython(t *testing.T, root string) *analyzer.Python {
	t.Helper()
	res := resolver.New(root)
	reg := detector.NewRegistry()
	return analyzer.NewPython(config.Defaults(), res, reg)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestAnalyzeProducesRelationshipsAndMetadata(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.py")
	writeFile(t, a, "import helper\n")
	writeFile(t, filepath.Join(root, "helper.py"), "")

	py := newPython(t, root)
	rels, warnings, meta, err := py.Analyze(a)

	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, model.Import, rels[0].RelationshipType)
	assert.Empty(t, warnings)
	assert.Equal(t, 1, meta.RelationshipCount)
	assert.False(t, meta.IsUnparseable)
	assert.False(t, meta.IsTestModule)
}

func TestAnalyzeFlagsTestModule(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "test_a.py")
	writeFile(t, path, "def test_thing():\n    pass\n")

	py := newPython(t, root)
	_, _, meta, err := py.Analyze(path)

	require.NoError(t, err)
	assert.True(t, meta.IsTestModule)
}

func TestAnalyzeSuppressesDynamicWarningsInTestModule(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "test_a.py")
	writeFile(t, path, "eval(x)\n")

	py := newPython(t, root)
	_, warnings, _, err := py.Analyze(path)

	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestAnalyzeEmitsDynamicWarningForSourceModule(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.py")
	writeFile(t, path, "eval(x)\n")

	py := newPython(t, root)
	_, warnings, meta, err := py.Analyze(path)

	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "exec_eval", warnings[0].WarningType)
	assert.True(t, meta.HasDynamicPatterns)
}

func TestAnalyzeSyntaxErrorMarksUnparseable(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.py")
	writeFile(t, path, "def broken(:\n")

	py := newPython(t, root)
	rels, warnings, meta, err := py.Analyze(path)

	require.NoError(t, err)
	assert.Nil(t, rels)
	assert.True(t, meta.IsUnparseable)
	require.Len(t, warnings, 1)
	assert.Equal(t, "syntax_error", warnings[0].WarningType)
}

func TestAnalyzeTooLargeFileSkipsParsing(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "big.py")
	var b strings.Builder
	for i := 0; i < 10001; i++ {
		b.WriteString("x = 1\n")
	}
	writeFile(t, path, b.String())

	py := newPython(t, root)
	rels, warnings, meta, err := py.Analyze(path)

	require.NoError(t, err)
	assert.Nil(t, rels)
	assert.False(t, meta.IsUnparseable)
	require.Len(t, warnings, 1)
	assert.Equal(t, "file_too_large", warnings[0].WarningType)
}

func TestAnalyzeMissingFileReturnsError(t *testing.T) {
	root := t.TempDir()
	py := newPython(t, root)

	_, _, _, err := py.Analyze(filepath.Join(root, "missing.py"))
	assert.Error(t, err)
}

func TestAnalyzeRecordsParseLatencyWhenMetricsSet(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.py")
	writeFile(t, path, "import helper\n")
	writeFile(t, filepath.Join(root, "helper.py"), "")

	py := newPython(t, root)
	rec := &fakeParseRecorder{}
	py.Metrics = rec

	_, _, _, err := py.Analyze(path)
	require.NoError(t, err)

	require.Len(t, rec.calls, 1)
	assert.GreaterOrEqual(t, rec.calls[0], time.Duration(0))
}

func TestAnalyzeWildcardImportMarksDynamicPattern(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.py")
	writeFile(t, path, "from helper import *\n")
	writeFile(t, filepath.Join(root, "helper.py"), "")

	py := newPython(t, root)
	_, _, meta, err := py.Analyze(path)

	require.NoError(t, err)
	assert.True(t, meta.HasDynamicPatterns)
	assert.Contains(t, meta.DynamicPatternTypes, "wildcard_import")
}
