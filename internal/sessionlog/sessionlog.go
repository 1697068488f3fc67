// Package sessionlog writes the three structured JSONL streams spec.md
// §6 names: injection_log.jsonl, warning_log.jsonl, session_metrics.jsonl.
// Each stream gets its own go.uber.org/zap logger with a JSON encoder
// pointed at that file, grounded on the zap setup in
// theRebelliousNerd-codenerd's cmd/nerd/main.go (zap.NewProductionConfig,
// one logger threaded through the session).
package sessionlog

import (
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"xfilecontext/internal/model"
)

// Streams holds the three loggers for one session's `.xfile_context/`
// directory.
type Streams struct {
	injection *zap.Logger
	warning   *zap.Logger
	metrics   *zap.Logger
}

// Open creates (or appends to) injection_log.jsonl, warning_log.jsonl and
// session_metrics.jsonl under dir.
func Open(dir string) (*Streams, error) {
	inj, err := newFileLogger(filepath.Join(dir, "injection_log.jsonl"))
	if err != nil {
		return nil, err
	}
	warn, err := newFileLogger(filepath.Join(dir, "warning_log.jsonl"))
	if err != nil {
		return nil, err
	}
	met, err := newFileLogger(filepath.Join(dir, "session_metrics.jsonl"))
	if err != nil {
		return nil, err
	}
	return &Streams{injection: inj, warning: warn, metrics: met}, nil
}

func newFileLogger(path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.MessageKey = "" // records carry their own fields; no human message
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// Close flushes all three loggers.
func (s *Streams) Close() {
	_ = s.injection.Sync()
	_ = s.warning.Sync()
	_ = s.metrics.Sync()
}

// LogInjection appends one record per snippet in ev, per spec.md §9's
// resolved open question (one record per snippet is the more queryable
// shape of the two the spec leaves open).
func (s *Streams) LogInjection(ev model.InjectionEvent) {
	for _, snip := range ev.Snippets {
		s.injection.Info("",
			zap.Time("event_time", ev.Timestamp),
			zap.String("trigger_file", ev.TriggerFile),
			zap.String("source_file", snip.SourceFile),
			zap.Int("line_start", snip.LineRange.Start),
			zap.Int("line_end", snip.LineRange.End),
			zap.String("relationship_type", string(snip.RelationshipType)),
			zap.Float64("cache_age_seconds", snip.CacheAgeSeconds),
			zap.Int("token_count", snip.TokenCount),
			zap.Int("total_token_count", ev.TotalTokenCount),
			zap.Bool("cache_hit", ev.CacheHit),
		)
	}
}

// LogWarning appends one record per warning.
func (s *Streams) LogWarning(w model.Warning) {
	s.warning.Info("",
		zap.String("filepath", w.FilePath),
		zap.Int("line_number", w.LineNumber),
		zap.String("warning_type", w.WarningType),
		zap.String("severity", string(w.Severity)),
		zap.String("message", w.Message),
		zap.String("code_snippet", w.CodeSnippet),
		zap.Time("timestamp", w.Timestamp),
		zap.Bool("suppressed", w.Suppressed),
	)
}

// LogMetrics appends the single end-of-session summary record.
func (s *Streams) LogMetrics(fields ...zap.Field) {
	s.metrics.Info("", fields...)
}
