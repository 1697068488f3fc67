package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xfilecontext/internal/config"
	"xfilecontext/internal/session"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewCreatesLogDirectory(t *testing.T) {
	root := t.TempDir()

	s, err := session.New(root, config.Defaults())
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(root, ".xfile_context"))
	assert.NoError(t, err)
}

func TestReadWithContextReturnsFileContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "print('hi')\n")

	s, err := session.New(root, config.Defaults())
	require.NoError(t, err)
	defer s.Close()

	result, err := s.ReadWithContext(context.Background(), "a.py")
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", result.Content)
}

func TestReadWithContextRejectsPathOutsideRoot(t *testing.T) {
	root := t.TempDir()
	s, err := session.New(root, config.Defaults())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.ReadWithContext(context.Background(), "../outside.py")
	assert.Error(t, err)
}

func TestGetDependentsAndDependencies(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "import b\n")
	writeFile(t, filepath.Join(root, "b.py"), "")

	s, err := session.New(root, config.Defaults())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.ReadWithContext(context.Background(), "a.py")
	require.NoError(t, err)

	deps := s.GetDependencies("a.py")
	assert.Contains(t, deps, filepath.Join(root, "b.py"))

	dependents := s.GetDependents("b.py")
	assert.Contains(t, dependents, filepath.Join(root, "a.py"))
}

func TestSummaryReflectsGraphAndCache(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "print(1)\n")

	s, err := session.New(root, config.Defaults())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.ReadWithContext(context.Background(), "a.py")
	require.NoError(t, err)

	summary := s.Summary()
	assert.Equal(t, root, summary.Root)
	assert.GreaterOrEqual(t, summary.CacheStats.Hits+summary.CacheStats.StalenessRefreshes, int64(1))
}

func TestEndSessionDoesNotPanic(t *testing.T) {
	root := t.TempDir()
	s, err := session.New(root, config.Defaults())
	require.NoError(t, err)
	defer s.Close()

	s.EndSession()
}
