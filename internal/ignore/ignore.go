// Package ignore implements the watcher's and walker's ignore-rule
// evaluation: a hard-coded set of dependency/VCS directories (spec.md §6)
// plus patterns parsed from nested .gitignore files, adapted from the
// teacher's scanner.GitIgnoreCache (JordanCoin-codemap/scanner/walker.go).
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// HardCoded lists the directories and patterns ignored by default
// regardless of .gitignore contents, per spec.md §6.
var HardCoded = []string{
	".git", "__pycache__", "*.pyc", "*.pyo",
	".venv", "venv", "env", "node_modules",
	".tox", ".pytest_cache", ".mypy_cache",
}

var hardCodedDirs = map[string]bool{
	".git": true, "__pycache__": true, ".venv": true,
	"venv": true, "env": true, "node_modules": true,
	".tox": true, ".pytest_cache": true, ".mypy_cache": true,
}

// Cache evaluates ignore rules against a project tree, lazily loading
// nested .gitignore files as directories are visited.
type Cache struct {
	root     string
	cache    map[string]*gitignore.GitIgnore
	patterns map[string][]string
	visited  map[string]struct{}
}

// New creates a Cache rooted at root and loads root's own .gitignore, if
// any.
func New(root string) *Cache {
	absRoot, _ := filepath.Abs(root)
	c := &Cache{
		root:     absRoot,
		cache:    make(map[string]*gitignore.GitIgnore),
		patterns: make(map[string][]string),
		visited:  make(map[string]struct{}),
	}
	c.tryLoad(absRoot)
	return c
}

func (c *Cache) tryLoad(dir string) {
	if _, seen := c.visited[dir]; seen {
		return
	}
	c.visited[dir] = struct{}{}

	f, err := os.Open(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	if len(lines) > 0 {
		c.patterns[dir] = lines
		c.cache[dir] = gitignore.CompileIgnoreLines(lines...)
	}
}

// IsDirIgnored reports whether a directory name is always skipped,
// independent of .gitignore content.
func IsDirIgnored(name string) bool {
	return hardCodedDirs[name]
}

// IsPatternIgnored reports whether a filename matches one of the
// hard-coded glob patterns (*.pyc, *.pyo).
func IsPatternIgnored(name string) bool {
	for _, pat := range HardCoded {
		if !strings.ContainsAny(pat, "*?") {
			continue
		}
		if ok, _ := filepath.Match(pat, name); ok {
			return true
		}
	}
	return false
}

// ShouldIgnore reports whether absPath should be ignored per every
// .gitignore between the project root and absPath's directory. Git
// evaluates rules root-to-leaf so a child's negation can override a
// parent's exclusion; this loads any not-yet-seen .gitignore along the
// way.
func (c *Cache) ShouldIgnore(absPath string) bool {
	dir := filepath.Dir(absPath)
	for d := dir; ; d = filepath.Dir(d) {
		c.tryLoad(d)
		if d == c.root || d == filepath.Dir(d) {
			break
		}
	}

	var dirs []string
	for d := dir; ; d = filepath.Dir(d) {
		dirs = append(dirs, d)
		if d == c.root || d == filepath.Dir(d) {
			break
		}
	}

	var allPatterns []string
	for i := len(dirs) - 1; i >= 0; i-- {
		allPatterns = append(allPatterns, c.patterns[dirs[i]]...)
	}
	if len(allPatterns) == 0 {
		return false
	}

	combined := gitignore.CompileIgnoreLines(allPatterns...)
	relPath, err := filepath.Rel(c.root, absPath)
	if err != nil {
		return false
	}
	return combined.MatchesPath(relPath)
}
