// Package resolver implements the module resolution order and call
// shadowing policy from spec.md §4.3. It holds no state of its own beyond
// the project root: every lookup is computed fresh against the
// filesystem, since the watcher (not the resolver) is the system's only
// source of "has this changed" truth.
package resolver

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolver resolves Python module names to project files, following the
// same lookup order CPython's import system uses for same-project
// imports: sibling module, sibling package, then walk up to the root.
type Resolver struct {
	root string
}

// New creates a Resolver rooted at root (the project directory).
func New(root string) *Resolver {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return &Resolver{root: abs}
}

// Root returns the project root this resolver was created with.
func (r *Resolver) Root() string {
	return r.root
}

// Tag is the non-project classification a module name resolves to when no
// project file matches, per spec.md §4.3 step 4.
type Tag string

const (
	TagStdlib     Tag = "stdlib"
	TagThirdParty Tag = "third-party"
	TagUnresolved Tag = "unresolved"
)

// stdlibModules is the set of top-level standard-library module names
// used to distinguish <stdlib:…> from <third-party:…> when a name can't
// be resolved to a project file. Not exhaustive — v0.1.0 only needs it
// for the common cases detectors will actually see.
var stdlibModules = map[string]bool{
	"os": true, "sys": true, "re": true, "json": true, "io": true,
	"time": true, "math": true, "collections": true, "itertools": true,
	"functools": true, "typing": true, "abc": true, "enum": true,
	"dataclasses": true, "pathlib": true, "logging": true, "unittest": true,
	"asyncio": true, "threading": true, "subprocess": true, "shutil": true,
	"contextlib": true, "copy": true, "datetime": true, "decimal": true,
	"hashlib": true, "http": true, "socket": true, "sqlite3": true,
	"string": true, "struct": true, "tempfile": true, "traceback": true,
	"urllib": true, "uuid": true, "warnings": true, "weakref": true,
	"xml": true, "csv": true, "random": true, "argparse": true,
	"configparser": true, "glob": true, "pickle": true, "queue": true,
}

// Resolve maps a dotted or relative module reference, imported from
// fromFile, to the path of a project file (built from fromFile's
// directory, so absolute when fromFile is absolute). ok is false when the module
// does not resolve inside the project, in which case tag classifies it.
//
// level is the relative-import dot count (0 for an absolute import, 1 for
// "from . import x", 2 for "from .. import x", …).
func (r *Resolver) Resolve(fromFile, module string, level int) (resolved string, ok bool, tag Tag) {
	startDir := filepath.Dir(fromFile)
	if level > 0 {
		dir := startDir
		for i := 1; i < level; i++ {
			dir = filepath.Dir(dir)
		}
		if module == "" {
			if pkg, ok := r.packageInit(dir); ok {
				return pkg, true, ""
			}
			return "", false, TagUnresolved
		}
		if path, ok := r.lookupIn(dir, module); ok {
			return path, true, ""
		}
		return "", false, TagUnresolved
	}

	parts := strings.Split(module, ".")
	top := parts[0]

	for dir := startDir; ; {
		if path, ok := r.lookupChain(dir, parts); ok {
			return path, true, ""
		}
		parent := filepath.Dir(dir)
		if dir == r.root || parent == dir {
			break
		}
		dir = parent
	}

	if stdlibModules[top] {
		return "", false, TagStdlib
	}
	return "", false, TagThirdParty
}

// lookupChain resolves a dotted module path starting at base, descending
// one package directory per dotted segment except the last, which is
// looked up as either a sibling module file or a sibling package.
func (r *Resolver) lookupChain(base string, parts []string) (string, bool) {
	dir := base
	for i, part := range parts {
		last := i == len(parts)-1
		if last {
			return r.lookupIn(dir, part)
		}
		next := filepath.Join(dir, part)
		if info, err := os.Stat(next); err != nil || !info.IsDir() {
			return "", false
		}
		dir = next
	}
	return "", false
}

// lookupIn applies the tie-break from spec.md §4.3: within one directory
// a module file shadows a same-named package.
func (r *Resolver) lookupIn(dir, name string) (string, bool) {
	modFile := filepath.Join(dir, name+".py")
	if info, err := os.Stat(modFile); err == nil && !info.IsDir() {
		return modFile, true
	}
	return r.packageInit(filepath.Join(dir, name))
}

func (r *Resolver) packageInit(pkgDir string) (string, bool) {
	init := filepath.Join(pkgDir, "__init__.py")
	if info, err := os.Stat(init); err == nil && !info.IsDir() {
		return init, true
	}
	return "", false
}

// Scope is the ordered name bindings visible at a call site, used to
// resolve a bare or module-qualified call to the file that defines it.
// Bindings are applied in the order spec.md §4.3 fixes: local definitions
// first, then imports (last import of a name wins on collision), then
// built-ins — reproducing "last binding wins" scoping without attempting
// to flag shadowing as a defect.
type Scope struct {
	locals  map[string]struct{}
	imports map[string]string // name -> resolved file (or non-project tag)
	order   []string          // import insertion order, for last-wins replay
}

// NewScope creates an empty Scope.
func NewScope() *Scope {
	return &Scope{locals: make(map[string]struct{}), imports: make(map[string]string)}
}

// BindLocal records a name defined directly in the file (a function,
// class, or module-level assignment target).
func (s *Scope) BindLocal(name string) {
	s.locals[name] = struct{}{}
}

// BindImport records an imported name's resolution target, overwriting
// any earlier import of the same name (last import wins).
func (s *Scope) BindImport(name, target string) {
	if _, seen := s.imports[name]; !seen {
		s.order = append(s.order, name)
	}
	s.imports[name] = target
}

// builtins lists the small set of Python builtins detectors need to
// recognize so a call like len(x) isn't reported as unresolved.
var builtins = map[string]bool{
	"len": true, "print": true, "range": true, "str": true, "int": true,
	"float": true, "bool": true, "list": true, "dict": true, "set": true,
	"tuple": true, "isinstance": true, "super": true, "open": true,
	"enumerate": true, "zip": true, "map": true, "filter": true, "sorted": true,
}

// Lookup resolves name per the shadowing policy: local definitions first,
// then imports, then builtins. ok is false if name is none of the above
// (an unresolved call target).
func (s *Scope) Lookup(name string) (target string, isLocal, isBuiltin, ok bool) {
	if _, local := s.locals[name]; local {
		return "", true, false, true
	}
	if target, imported := s.imports[name]; imported {
		return target, false, false, true
	}
	if builtins[name] {
		return "", false, true, true
	}
	return "", false, false, false
}
