// Package model holds the plain data types shared across the analysis
// pipeline: relationships, file metadata, cache entries, warnings and
// injection events. None of these types carry behavior beyond small,
// obviously-safe helpers; the packages that mutate them own the rules.
package model

import "time"

// RelationshipType enumerates the kinds of cross-file edges the Python
// analyzer can produce.
type RelationshipType string

const (
	Import            RelationshipType = "import"
	FunctionCall      RelationshipType = "function_call"
	Inheritance       RelationshipType = "inheritance"
	WildcardImport    RelationshipType = "wildcard_import"
	ConditionalImport RelationshipType = "conditional_import"
)

// Relationship is a single directed edge from source_file to target_file.
// It is a value type: primitives only, so it can be deduplicated by full
// tuple and serialized without surprises.
type Relationship struct {
	SourceFile       string            `json:"source_file"`
	TargetFile       string            `json:"target_file"`
	RelationshipType RelationshipType  `json:"relationship_type"`
	LineNumber       int               `json:"line_number"`
	SourceSymbol     string            `json:"source_symbol,omitempty"`
	TargetSymbol     string            `json:"target_symbol,omitempty"`
	TargetLine       int               `json:"target_line,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Key returns the full-tuple identity used for deduplication.
func (r Relationship) Key() string {
	return string(r.RelationshipType) + "\x00" + r.SourceFile + "\x00" + r.TargetFile + "\x00" +
		r.SourceSymbol + "\x00" + r.TargetSymbol + "\x00" + itoa(r.LineNumber)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// FileMetadata tracks per-file analysis state. It is retained (with
// IsDeleted set) after a file disappears from disk so dependents can
// still reference its last-known shape.
type FileMetadata struct {
	FilePath            string    `json:"filepath"`
	LastAnalyzed        time.Time `json:"last_analyzed"`
	RelationshipCount   int       `json:"relationship_count"`
	HasDynamicPatterns  bool      `json:"has_dynamic_patterns"`
	DynamicPatternTypes []string  `json:"dynamic_pattern_types,omitempty"`
	IsUnparseable       bool      `json:"is_unparseable"`
	IsDeleted           bool      `json:"is_deleted,omitempty"`
	IsTestModule        bool      `json:"is_test_module,omitempty"`
}

// AddDynamicPattern records one more dynamic-pattern kind, deduplicating.
func (m *FileMetadata) AddDynamicPattern(kind string) {
	m.HasDynamicPatterns = true
	for _, k := range m.DynamicPatternTypes {
		if k == kind {
			return
		}
	}
	m.DynamicPatternTypes = append(m.DynamicPatternTypes, kind)
}

// CacheEntry is one working-memory slot: either a whole file or a
// requested line range, plus LRU bookkeeping.
type CacheEntry struct {
	FilePath     string     `json:"filepath"`
	LineRange    *LineRange `json:"line_range,omitempty"`
	Content      string     `json:"-"`
	SizeBytes    int        `json:"size_bytes"`
	LastAccessed time.Time  `json:"last_accessed"`
	AccessCount  int        `json:"access_count"`
	SymbolName   string     `json:"symbol_name,omitempty"`
}

// LineRange is an inclusive 1-based [Start, End] span.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Severity is the warning severity scale. v0.1.0 only needs info/warning.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Warning is an append-only event record for dynamic/unanalyzable
// constructs. Warnings never enter the relationship graph.
type Warning struct {
	FilePath    string    `json:"filepath"`
	LineNumber  int       `json:"line_number"`
	WarningType string    `json:"warning_type"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message"`
	CodeSnippet string    `json:"code_snippet,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Suppressed  bool      `json:"suppressed"`
}

// Snippet is one piece of cross-file context assembled for an injection.
type Snippet struct {
	SourceFile       string           `json:"source_file"`
	LineRange        LineRange        `json:"line_range"`
	Text             string           `json:"text"`
	RelationshipType RelationshipType `json:"relationship_type"`
	CacheAgeSeconds  float64          `json:"cache_age_seconds"`
	TokenCount       int              `json:"token_count"`
}

// InjectionEvent describes a single read_with_context call. It is written
// to injection_log.jsonl as one record per snippet, each carrying the
// event's trigger file, total token count and cache-hit flag.
type InjectionEvent struct {
	Timestamp       time.Time `json:"timestamp"`
	TriggerFile     string    `json:"trigger_file"`
	Snippets        []Snippet `json:"snippets"`
	TotalTokenCount int       `json:"total_token_count"`
	CacheHit        bool      `json:"cache_hit"`
}
