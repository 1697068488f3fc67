// Package metrics accumulates the counters and distributions spec.md §6
// requires in session_metrics.jsonl: cache stats, injection token
// distribution, graph stats, re-read frequencies, parse/injection
// latencies, warning counts by kind, and the configuration snapshot used.
package metrics

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"xfilecontext/internal/cache"
	"xfilecontext/internal/config"
	"xfilecontext/internal/graph"
)

// Recorder accumulates per-session counters. All methods are safe for
// concurrent use; the responder thread calls into it on every tool
// invocation.
type Recorder struct {
	mu sync.Mutex

	tokenCounts        []int
	overThreshold      int
	rereadCounts       map[string]int
	parseLatencies     []time.Duration
	injectLatencies    []time.Duration
	warningCountByKind map[string]int
}

// New creates an empty Recorder.
func New() *Recorder {
	return &Recorder{
		rereadCounts:       make(map[string]int),
		warningCountByKind: make(map[string]int),
	}
}

// RecordInjection folds one read_with_context call's token total into the
// distribution, bucketing it against config.ReferenceTokenThreshold.
func (r *Recorder) RecordInjection(totalTokens int, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokenCounts = append(r.tokenCounts, totalTokens)
	if totalTokens > config.ReferenceTokenThreshold {
		r.overThreshold++
	}
	r.injectLatencies = append(r.injectLatencies, latency)
}

// RecordParse records one file's AST parse latency.
func (r *Recorder) RecordParse(latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parseLatencies = append(r.parseLatencies, latency)
}

// RecordRead records one more read of path, for re-read frequency. The
// session calls it once per read_with_context call, whether or not the
// cache went to disk.
func (r *Recorder) RecordRead(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rereadCounts[path]++
}

// RecordWarning tallies one warning of the given kind.
func (r *Recorder) RecordWarning(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warningCountByKind[kind]++
}

// Snapshot assembles the end-of-session zap fields for
// session_metrics.jsonl, pulling live cache and graph stats at call time.
func (r *Recorder) Snapshot(cacheStats cache.Stats, g *graph.RelationshipGraph, cfg config.Config) []zap.Field {
	r.mu.Lock()
	defer r.mu.Unlock()

	min, median, p95, max := distribution(r.tokenCounts)

	return []zap.Field{
		zap.Time("session_end", time.Now()),
		zap.Int64("cache_hits", cacheStats.Hits),
		zap.Int64("cache_staleness_refreshes", cacheStats.StalenessRefreshes),
		zap.Int64("cache_evictions", cacheStats.Evictions),
		zap.Int64("cache_peak_bytes", cacheStats.PeakBytes),
		zap.Int("injection_token_min", min),
		zap.Int("injection_token_median", median),
		zap.Int("injection_token_p95", p95),
		zap.Int("injection_token_max", max),
		zap.Int("injection_token_count", len(r.tokenCounts)),
		zap.Int("injection_over_reference_threshold_count", r.overThreshold),
		zap.Int("graph_file_count", g.FileCount()),
		zap.Int("graph_relationship_count", g.RelationshipCount()),
		zap.Strings("graph_top_hub_files", topN(g.HubFiles(), 10)),
		zap.Any("reread_frequencies", r.rereadCounts),
		zap.Durations("parse_latencies", r.parseLatencies),
		zap.Durations("injection_latencies", r.injectLatencies),
		zap.Any("warning_counts_by_kind", r.warningCountByKind),
		zap.Int("config_cache_size_limit_kb", cfg.CacheSizeLimitKB),
		zap.Int("config_context_token_limit", cfg.ContextTokenLimit),
		zap.Bool("config_enable_context_injection", cfg.EnableContextInjection),
		zap.Bool("config_warn_on_wildcards", cfg.WarnOnWildcards),
		zap.Int("config_ast_parsing_timeout_seconds", cfg.ASTParsingTimeoutSeconds),
		zap.Int("config_ast_max_recursion_depth", cfg.ASTMaxRecursionDepth),
		zap.Int("config_function_usage_warning_threshold", cfg.FunctionUsageWarningThreshold),
		zap.Bool("config_metrics_anonymize_paths", cfg.MetricsAnonymizePaths),
	}
}

func distribution(vals []int) (min, median, p95, max int) {
	if len(vals) == 0 {
		return 0, 0, 0, 0
	}
	sorted := append([]int(nil), vals...)
	sort.Ints(sorted)
	min = sorted[0]
	max = sorted[len(sorted)-1]
	median = sorted[len(sorted)/2]
	p95Idx := int(float64(len(sorted)) * 0.95)
	if p95Idx >= len(sorted) {
		p95Idx = len(sorted) - 1
	}
	p95 = sorted[p95Idx]
	return
}

func topN(files []string, n int) []string {
	if len(files) <= n {
		return files
	}
	return files[:n]
}
