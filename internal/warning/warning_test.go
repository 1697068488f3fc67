package warning_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xfilecontext/internal/config"
	"xfilecontext/internal/model"
	"xfilecontext/internal/pyast"
	"xfilecontext/internal/resolver"
	"xfilecontext/internal/warning"
)

func parse(t *testing.T, src string) *pyast.Tree {
	t.Helper()
	tree, err := pyast.Parse([]byte(src), 5*time.Second, 100)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func TestClassifierStructuralRules(t *testing.T) {
	c := warning.NewClassifier(t.TempDir())

	assert.True(t, c.IsTestModule("test_foo.py"))
	assert.True(t, c.IsTestModule("foo_test.py"))
	assert.True(t, c.IsTestModule("conftest.py"))
	assert.True(t, c.IsTestModule("tests/helpers.py"))
	assert.True(t, c.IsTestModule("pkg/tests/helpers.py"))
	assert.False(t, c.IsTestModule("pkg/service.py"))
}

func TestClassifierTestpathsFromPytestIni(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pytest.ini", "[pytest]\ntestpaths = qa, integration\n")

	c := warning.NewClassifier(root)

	assert.True(t, c.IsTestModule("qa/check.py"))
	assert.True(t, c.IsTestModule("integration/check.py"))
	assert.False(t, c.IsTestModule("src/check.py"))
}

func TestDetectExecEval(t *testing.T) {
	tree := parse(t, "eval(user_input)\n")
	meta := &model.FileMetadata{}

	warnings := warning.Detect(tree, "a.py", false, config.Defaults(), resolver.NewScope(), meta)

	require.Len(t, warnings, 1)
	assert.Equal(t, "exec_eval", warnings[0].WarningType)
	assert.True(t, meta.HasDynamicPatterns)
}

func TestDetectDynamicDispatch(t *testing.T) {
	tree := parse(t, "getattr(obj, name)()\n")
	meta := &model.FileMetadata{}

	warnings := warning.Detect(tree, "a.py", false, config.Defaults(), resolver.NewScope(), meta)

	require.Len(t, warnings, 1)
	assert.Equal(t, "dynamic_dispatch", warnings[0].WarningType)
}

func TestDetectMonkeyPatch(t *testing.T) {
	tree := parse(t, "mod.attr = value\n")
	scope := resolver.NewScope()
	scope.BindImport("mod", "pkg/mod.py")
	meta := &model.FileMetadata{}

	warnings := warning.Detect(tree, "a.py", false, config.Defaults(), scope, meta)

	require.Len(t, warnings, 1)
	assert.Equal(t, "monkey_patch", warnings[0].WarningType)
}

func TestDetectMonkeyPatchIgnoresLocalTarget(t *testing.T) {
	tree := parse(t, "self.attr = value\n")
	scope := resolver.NewScope()
	scope.BindLocal("self")
	meta := &model.FileMetadata{}

	warnings := warning.Detect(tree, "a.py", false, config.Defaults(), scope, meta)

	assert.Empty(t, warnings)
}

func TestDetectCustomMetaclass(t *testing.T) {
	tree := parse(t, "class Foo(Base, metaclass=Meta):\n    pass\n")
	meta := &model.FileMetadata{}

	warnings := warning.Detect(tree, "a.py", false, config.Defaults(), resolver.NewScope(), meta)

	require.Len(t, warnings, 1)
	assert.Equal(t, "custom_metaclass", warnings[0].WarningType)
	assert.Equal(t, model.SeverityInfo, warnings[0].Severity)
}

func TestDetectDecoratorSuppressesWellKnown(t *testing.T) {
	tree := parse(t, "@staticmethod\ndef foo():\n    pass\n")
	meta := &model.FileMetadata{}

	warnings := warning.Detect(tree, "a.py", false, config.Defaults(), resolver.NewScope(), meta)

	assert.Empty(t, warnings)
}

func TestDetectDecoratorFlagsUnknown(t *testing.T) {
	tree := parse(t, "@app.route('/x')\ndef foo():\n    pass\n")
	meta := &model.FileMetadata{}

	warnings := warning.Detect(tree, "a.py", false, config.Defaults(), resolver.NewScope(), meta)

	require.Len(t, warnings, 1)
	assert.Equal(t, "decorator", warnings[0].WarningType)
}

func TestDetectSuppressedByTestModule(t *testing.T) {
	tree := parse(t, "eval(x)\n")
	meta := &model.FileMetadata{}

	warnings := warning.Detect(tree, "test_a.py", true, config.Defaults(), resolver.NewScope(), meta)

	assert.Empty(t, warnings)
}

func TestDetectSuppressedByConfigKindToggle(t *testing.T) {
	tree := parse(t, "eval(x)\n")
	meta := &model.FileMetadata{}
	cfg := config.Defaults()
	cfg.SuppressExecEvalWarn = true

	warnings := warning.Detect(tree, "a.py", false, cfg, resolver.NewScope(), meta)

	assert.Empty(t, warnings)
}

func TestDetectSuppressedByConfigList(t *testing.T) {
	tree := parse(t, "eval(x)\n")
	meta := &model.FileMetadata{}
	cfg := config.Defaults()
	cfg.SuppressWarnings = []string{"exec_eval"}

	warnings := warning.Detect(tree, "a.py", false, cfg, resolver.NewScope(), meta)

	assert.Empty(t, warnings)
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
}
