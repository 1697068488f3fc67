package analyzer

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"xfilecontext/internal/config"
	"xfilecontext/internal/detector"
	"xfilecontext/internal/model"
	"xfilecontext/internal/pyast"
	"xfilecontext/internal/resolver"
	"xfilecontext/internal/warning"
)

// ParseRecorder is the one method Python needs from metrics.Recorder.
// Defined here rather than imported directly: internal/metrics imports
// internal/cache, which imports this package, so importing
// internal/metrics here would be a cycle.
type ParseRecorder interface {
	RecordParse(time.Duration)
}

// maxParseLines is the spec.md §4.2 step 2 bound: files larger than this
// are never parsed, only flagged.
const maxParseLines = 10000

// Python implements Analyzer for ".py" files per spec.md §4.2's
// contract: analyze(path) -> (relationships, warnings, metadata).
type Python struct {
	Resolver   *resolver.Resolver
	Registry   *detector.Registry
	Classifier *warning.Classifier
	Config     config.Config
	Timeout    time.Duration
	MaxDepth   int

	// Metrics, when set, records each parse's wall-clock latency for
	// session_metrics.jsonl's parse_latencies (spec.md §6). Left nil by
	// NewPython; the session wires it in after construction.
	Metrics ParseRecorder
}

// NewPython builds a Python analyzer from the given config, sharing res,
// the detector registry reg and a fresh test-module classifier rooted at
// the project root across every call.
func NewPython(cfg config.Config, res *resolver.Resolver, reg *detector.Registry) *Python {
	return &Python{
		Resolver:   res,
		Registry:   reg,
		Classifier: warning.NewClassifier(res.Root()),
		Config:     cfg,
		Timeout:    time.Duration(cfg.ASTParsingTimeoutSeconds) * time.Second,
		MaxDepth:   cfg.ASTMaxRecursionDepth,
	}
}

// Analyze implements Analyzer. It never returns an error for analyzable
// Python conditions (too-large, unparseable, syntax error) — those are
// reported via metadata and a warning, per spec.md §4.2 steps 2-4; "do
// not halt session" on a single file's failure. A non-nil error here
// means the file could not even be read.
func (p *Python) Analyze(path string) ([]model.Relationship, []model.Warning, model.FileMetadata, error) {
	meta := model.FileMetadata{FilePath: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, meta, err
	}

	source, usedFallback := decode(raw)

	lineCount := countLines(source)
	if lineCount > maxParseLines {
		meta.IsUnparseable = false
		meta.HasDynamicPatterns = false
		warn := model.Warning{
			FilePath:    path,
			WarningType: "file_too_large",
			Severity:    model.SeverityInfo,
			Message:     "file exceeds 10000 lines; parsing skipped to bound cost",
			Timestamp:   time.Now(),
		}
		return nil, []model.Warning{warn}, meta, nil
	}

	var warnings []model.Warning
	if usedFallback {
		warnings = append(warnings, model.Warning{
			FilePath:    path,
			WarningType: "encoding_fallback",
			Severity:    model.SeverityInfo,
			Message:     "file was not valid UTF-8; decoded as Latin-1",
			Timestamp:   time.Now(),
		})
	}

	parseStart := time.Now()
	tree, perr := pyast.Parse([]byte(source), p.Timeout, p.MaxDepth)
	if p.Metrics != nil {
		p.Metrics.RecordParse(time.Since(parseStart))
	}
	if perr != nil {
		meta.IsUnparseable = true
		kind := "syntax_error"
		msg := "file has a syntax error and could not be parsed"
		switch perr {
		case pyast.ErrTimeout:
			kind = "parse_timeout"
			msg = "parsing exceeded the configured wall-clock timeout"
		case pyast.ErrTooDeep:
			kind = "parse_too_deep"
			msg = "parse tree exceeded the configured recursion depth limit"
		}
		warnings = append(warnings, model.Warning{
			FilePath:    path,
			WarningType: kind,
			Severity:    model.SeverityWarning,
			Message:     msg,
			Timestamp:   time.Now(),
		})
		return nil, warnings, meta, nil
	}
	defer tree.Close()

	ctx := detector.NewContext(path, tree, p.Resolver)
	rels := p.Registry.Run(tree.Root(), ctx)

	meta.RelationshipCount = len(rels)
	for _, r := range rels {
		if r.RelationshipType == model.WildcardImport {
			meta.AddDynamicPattern("wildcard_import")
		}
	}

	isTest := p.Classifier.IsTestModule(p.relPath(path))
	meta.IsTestModule = isTest
	dynWarnings := warning.Detect(tree, path, isTest, p.Config, ctx.Scope, &meta)
	warnings = append(warnings, dynWarnings...)

	return rels, warnings, meta, nil
}

// decode tries UTF-8 first and falls back to Latin-1 (spec.md §4.2
// step 1), reporting whether the fallback was used.
func decode(raw []byte) (string, bool) {
	if utf8.Valid(raw) {
		return string(raw), false
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw), true
	}
	return string(decoded), true
}

// relPath returns path relative to the resolver's project root, falling
// back to the absolute path if it cannot be made relative (e.g. a file
// outside the project, which the classifier will simply not match).
func (p *Python) relPath(path string) string {
	rel, err := filepath.Rel(p.Resolver.Root(), path)
	if err != nil {
		return path
	}
	return rel
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	sc := bufio.NewScanner(bytes.NewReader([]byte(s)))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<24)
	n := 0
	for sc.Scan() {
		n++
	}
	return n
}
