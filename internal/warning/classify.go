// Package warning implements spec.md §4.7's dynamic-pattern detectors and
// the test-vs-source module classifier they depend on. Warnings never
// feed the relationship graph — this package only produces model.Warning
// records and FileMetadata side effects.
package warning

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Classifier decides whether a file is a test module, per spec.md §4.7:
// the structural rules (tests/**, test_*.py, *_test.py, conftest.py)
// augmented by patterns read statically from pytest.ini/pyproject.toml/
// setup.cfg — never by importing or executing pytest itself.
type Classifier struct {
	root     string
	extra    []*regexp.Regexp
	loadedOK bool
}

// NewClassifier builds a Classifier for a project root, eagerly scanning
// the three well-known config files for additional test path patterns.
func NewClassifier(root string) *Classifier {
	c := &Classifier{root: root}
	c.loadConfigPatterns()
	return c
}

// IsTestModule reports whether path (project-relative) is a test module.
// Consulted once per file per spec.md §4.7.
func (c *Classifier) IsTestModule(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	base := filepath.Base(relPath)

	if base == "conftest.py" {
		return true
	}
	if strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py") {
		return true
	}
	if strings.HasSuffix(base, "_test.py") {
		return true
	}
	if strings.HasPrefix(relPath, "tests/") || strings.Contains(relPath, "/tests/") {
		return true
	}
	for _, re := range c.extra {
		if re.MatchString(relPath) {
			return true
		}
	}
	return false
}

// loadConfigPatterns reads testpaths-like keys out of pytest.ini,
// pyproject.toml's [tool.pytest.ini_options] block, and setup.cfg's
// [tool:pytest] section, without a TOML/INI parser (none exists anywhere
// in the retrieval pack — see DESIGN.md): it scans for a "testpaths"
// line and treats whitespace/comma-separated values as literal path
// prefixes.
func (c *Classifier) loadConfigPatterns() {
	candidates := []string{
		filepath.Join(c.root, "pytest.ini"),
		filepath.Join(c.root, "pyproject.toml"),
		filepath.Join(c.root, "setup.cfg"),
	}
	for _, path := range candidates {
		c.scanForTestpaths(path)
	}
}

var testpathsLine = regexp.MustCompile(`(?i)^\s*testpaths\s*=\s*(.+)$`)

func (c *Classifier) scanForTestpaths(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	c.loadedOK = true

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		m := testpathsLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		for _, tok := range strings.FieldsFunc(m[1], func(r rune) bool {
			return r == ',' || r == ' ' || r == '"' || r == '\''
		}) {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			pattern := "^" + regexp.QuoteMeta(strings.Trim(tok, "/")) + "/"
			if re, err := regexp.Compile(pattern); err == nil {
				c.extra = append(c.extra, re)
			}
		}
	}
}
