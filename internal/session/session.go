// Package session is the single session-scoped object spec.md §9's
// Design Notes calls for: every piece of otherwise-global mutable state
// (the graph, the cache, the watcher's timestamps, accumulated metrics)
// lives inside one Session, created at session start and torn down at
// session end, rather than behind package-level globals.
package session

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"xfilecontext/internal/analyzer"
	"xfilecontext/internal/cache"
	"xfilecontext/internal/config"
	"xfilecontext/internal/detector"
	"xfilecontext/internal/graph"
	"xfilecontext/internal/inject"
	"xfilecontext/internal/metrics"
	"xfilecontext/internal/model"
	"xfilecontext/internal/report"
	"xfilecontext/internal/resolver"
	"xfilecontext/internal/sessionlog"
	"xfilecontext/internal/warning"
	"xfilecontext/internal/watcher"
)

// Session wires the watcher, graph, cache, warning subsystem, injector
// and metrics recorder together for one project root.
type Session struct {
	Root   string
	Config config.Config

	Graph      *graph.RelationshipGraph
	Watcher    *watcher.Watcher
	Cache      *cache.Cache
	Classifier *warning.Classifier
	Resolver   *resolver.Resolver
	Registry   *analyzer.Registry
	Injector   *inject.Pipeline
	Metrics    *metrics.Recorder
	Logs       *sessionlog.Streams

	recentWarnings []model.Warning
}

// New builds a Session rooted at root with cfg, opening the three JSONL
// log streams under root/.xfile_context.
func New(root string, cfg config.Config) (*Session, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	logDir := filepath.Join(absRoot, ".xfile_context")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	logs, err := sessionlog.Open(logDir)
	if err != nil {
		return nil, err
	}

	g := graph.New()
	res := resolver.New(absRoot)
	reg := detector.NewRegistry()
	met := metrics.New()
	py := analyzer.NewPython(cfg, res, reg)
	py.Metrics = met
	analyzerReg := analyzer.NewRegistry(py)

	w, err := watcher.New(absRoot)
	if err != nil {
		return nil, err
	}

	c := cache.New(cfg.CacheSizeLimitKB, g, w.Timestamps, analyzerReg)

	s := &Session{
		Root:       absRoot,
		Config:     cfg,
		Graph:      g,
		Watcher:    w,
		Cache:      c,
		Classifier: warning.NewClassifier(absRoot),
		Resolver:   res,
		Registry:   analyzerReg,
		Metrics:    met,
		Logs:       logs,
	}
	s.Injector = &inject.Pipeline{
		Cache:      c,
		Graph:      g,
		Timestamps: w.Timestamps,
		Config:     cfg,
	}
	return s, nil
}

// Start begins watching the project tree.
func (s *Session) Start() error {
	return s.Watcher.Start()
}

// Close stops the watcher and flushes the log streams.
func (s *Session) Close() {
	s.Watcher.Stop()
	s.Logs.Close()
}

// ReadWithContext is the tool-surface operation from spec.md §6: read a
// file augmented with cross-file context, logging the injection event
// and any warnings surfaced along the way.
func (s *Session) ReadWithContext(ctx context.Context, path string) (inject.Result, error) {
	abs, ok := s.canonicalize(path)
	if !ok {
		return inject.Result{}, &pathError{path: path}
	}

	start := time.Now()
	result := s.Injector.ReadWithContext(ctx, abs)
	s.Metrics.RecordInjection(result.Event.TotalTokenCount, time.Since(start))
	s.Metrics.RecordRead(abs)

	if len(result.Event.Snippets) > 0 {
		s.Logs.LogInjection(result.Event)
	}

	allWarnings := append(append([]model.Warning(nil), s.Cache.DrainWarnings()...), result.Warnings...)
	for _, w := range allWarnings {
		s.Logs.LogWarning(w)
		s.Metrics.RecordWarning(w.WarningType)
		s.recordWarningForSummary(w)
	}

	return result, nil
}

// canonicalize resolves path to an absolute form inside the project root,
// per spec.md §6's file-path canonicalization rule. A path outside the
// root is rejected as a tool-surface error (spec.md §7).
func (s *Session) canonicalize(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(s.Root, path)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		resolved = abs
	}
	rootResolved, err := filepath.EvalSymlinks(s.Root)
	if err != nil {
		rootResolved = s.Root
	}
	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil || len(rel) >= 2 && rel[:2] == ".." {
		return "", false
	}
	return resolved, true
}

// GetRelationshipGraph returns the export document for the tool surface.
func (s *Session) GetRelationshipGraph() graph.Document {
	return s.Graph.Export(s.Config.MetricsAnonymizePaths)
}

// GetDependents and GetDependencies are the optional tool-surface queries
// from spec.md §6.
func (s *Session) GetDependents(path string) []string {
	abs, ok := s.canonicalize(path)
	if !ok {
		return nil
	}
	return s.Graph.GetDependents(abs)
}

func (s *Session) GetDependencies(path string) []string {
	abs, ok := s.canonicalize(path)
	if !ok {
		return nil
	}
	return s.Graph.GetDependencies(abs)
}

// GetCacheStatistics returns the cache's hit/miss/eviction counters.
func (s *Session) GetCacheStatistics() cache.Stats {
	return s.Cache.GetStatistics()
}

// EndSession appends the final session_metrics.jsonl record. Call once,
// immediately before Close.
func (s *Session) EndSession() {
	s.Logs.LogMetrics(s.Metrics.Snapshot(s.Cache.GetStatistics(), s.Graph, s.Config)...)
}

// pathError is the structured tool-surface error for an invalid or
// out-of-root path (spec.md §7: "invalid argument... return structured
// error; do not mutate state").
type pathError struct{ path string }

func (e *pathError) Error() string {
	return "xfilecontext: invalid or out-of-root path: " + e.path
}

// Metadata returns the FileMetadata recorded for path, canonicalized like
// the other tool-surface queries, or nil if the path is invalid or unknown.
func (s *Session) Metadata(path string) *model.FileMetadata {
	abs, ok := s.canonicalize(path)
	if !ok {
		return nil
	}
	return s.Graph.Metadata(abs)
}

// Summary assembles the data the report package needs for the one-shot
// terminal summary, without handing report direct access to the graph.
func (s *Session) Summary() report.Summary {
	return report.Summary{
		Root:       s.Root,
		Graph:      s.GetRelationshipGraph(),
		Hubs:       s.Graph.HubFiles(),
		CacheStats: s.Cache.GetStatistics(),
		Warnings:   s.recentWarnings,
	}
}

// recordWarningForSummary keeps a bounded ring of recent warnings for the
// terminal report, independent of the full warning_log.jsonl stream.
func (s *Session) recordWarningForSummary(w model.Warning) {
	const maxKept = 50
	s.recentWarnings = append(s.recentWarnings, w)
	if len(s.recentWarnings) > maxKept {
		s.recentWarnings = s.recentWarnings[len(s.recentWarnings)-maxKept:]
	}
}
