package ignore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xfilecontext/internal/ignore"
)

func TestIsDirIgnored(t *testing.T) {
	assert.True(t, ignore.IsDirIgnored(".git"))
	assert.True(t, ignore.IsDirIgnored("node_modules"))
	assert.False(t, ignore.IsDirIgnored("src"))
}

func TestIsPatternIgnored(t *testing.T) {
	assert.True(t, ignore.IsPatternIgnored("module.pyc"))
	assert.False(t, ignore.IsPatternIgnored("module.py"))
}

func TestShouldIgnoreMatchesRootGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\nbuild/\n"), 0o644))

	c := ignore.New(root)

	assert.True(t, c.ShouldIgnore(filepath.Join(root, "debug.log")))
	assert.False(t, c.ShouldIgnore(filepath.Join(root, "main.py")))
}

func TestShouldIgnoreHonorsNestedGitignore(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "pkg")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, ".gitignore"), []byte("generated.py\n"), 0o644))

	c := ignore.New(root)

	assert.True(t, c.ShouldIgnore(filepath.Join(sub, "generated.py")))
	assert.False(t, c.ShouldIgnore(filepath.Join(sub, "real.py")))
}

func TestShouldIgnoreWithNoGitignoreReturnsFalse(t *testing.T) {
	root := t.TempDir()
	c := ignore.New(root)

	assert.False(t, c.ShouldIgnore(filepath.Join(root, "anything.py")))
}
