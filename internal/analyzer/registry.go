// Package analyzer implements the extension-to-analyzer registry and the
// Python analyzer from spec.md §4.2. The registry itself is a plain map
// lookup; all of the interesting behavior lives in the Python analyzer's
// read/decode/size-check/parse/detect/aggregate pipeline.
package analyzer

import (
	"path/filepath"

	"xfilecontext/internal/model"
)

// Analyzer turns a file on disk into relationships, warnings and
// metadata. Implementations must not block indefinitely — the Python
// analyzer bounds parse time (a wall-clock timeout plus a line-count
// gate); the file read itself is not time-bounded.
type Analyzer interface {
	Analyze(path string) ([]model.Relationship, []model.Warning, model.FileMetadata, error)
}

// Registry maps file extensions to Analyzer instances. v0.1.0 only wires
// up ".py"; every other extension resolves to "no analyzer" per spec.md
// §4.2.
type Registry struct {
	byExt map[string]Analyzer
}

// NewRegistry creates a Registry with py wired to the given Python
// analyzer.
func NewRegistry(py Analyzer) *Registry {
	return &Registry{byExt: map[string]Analyzer{
		".py": py,
	}}
}

// For returns the analyzer registered for path's extension, or nil if
// none is registered.
func (r *Registry) For(path string) Analyzer {
	return r.byExt[filepath.Ext(path)]
}
