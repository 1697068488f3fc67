// Package config holds the configuration surface from spec.md §6. Values
// are read once at session start; the core never loads a config file
// itself (that is an out-of-scope external collaborator) — it only
// applies defaults and accepts overrides handed to it by a caller.
package config

// Config mirrors the table in spec.md §6, one field per key.
type Config struct {
	CacheSizeLimitKB              int
	ContextTokenLimit             int // 0 means unset/no limit
	EnableContextInjection        bool
	WarnOnWildcards               bool
	SuppressWarnings              []string
	SuppressDynamicDispatchWarn   bool
	SuppressMonkeyPatchWarn       bool
	SuppressExecEvalWarn          bool
	SuppressDecoratorWarn         bool
	SuppressMetaclassWarn         bool
	ASTParsingTimeoutSeconds      int
	ASTMaxRecursionDepth          int
	FunctionUsageWarningThreshold int
	MetricsAnonymizePaths         bool
}

// ReferenceTokenThreshold is the value spec.md §9 fixes as the bucket
// boundary for metrics reporting, independent of ContextTokenLimit.
const ReferenceTokenThreshold = 500

// Defaults returns the configuration defaults from spec.md §6.
func Defaults() Config {
	return Config{
		CacheSizeLimitKB:              50,
		ContextTokenLimit:             0,
		EnableContextInjection:        true,
		WarnOnWildcards:               false,
		SuppressWarnings:              nil,
		ASTParsingTimeoutSeconds:      5,
		ASTMaxRecursionDepth:          100,
		FunctionUsageWarningThreshold: 3,
		MetricsAnonymizePaths:         false,
	}
}

// Merge overlays every recognised key in override whose value has the
// expected type onto the receiver's defaults (zero values included);
// unknown keys and mistyped values are ignored, so a caller supplying a
// partial map of keys (as read from a config file by an external loader)
// never needs to know every key.
func (c Config) Merge(override map[string]any) Config {
	out := c
	for k, v := range override {
		switch k {
		case "cache_size_limit_kb":
			if n, ok := toInt(v); ok {
				out.CacheSizeLimitKB = n
			}
		case "context_token_limit":
			if n, ok := toInt(v); ok {
				out.ContextTokenLimit = n
			}
		case "enable_context_injection":
			if b, ok := v.(bool); ok {
				out.EnableContextInjection = b
			}
		case "warn_on_wildcards":
			if b, ok := v.(bool); ok {
				out.WarnOnWildcards = b
			}
		case "suppress_warnings":
			if ss, ok := toStrings(v); ok {
				out.SuppressWarnings = ss
			}
		case "suppress_dynamic_dispatch_warnings":
			if b, ok := v.(bool); ok {
				out.SuppressDynamicDispatchWarn = b
			}
		case "suppress_monkey_patch_warnings":
			if b, ok := v.(bool); ok {
				out.SuppressMonkeyPatchWarn = b
			}
		case "suppress_exec_eval_warnings":
			if b, ok := v.(bool); ok {
				out.SuppressExecEvalWarn = b
			}
		case "suppress_decorator_warnings":
			if b, ok := v.(bool); ok {
				out.SuppressDecoratorWarn = b
			}
		case "suppress_metaclass_warnings":
			if b, ok := v.(bool); ok {
				out.SuppressMetaclassWarn = b
			}
		case "ast_parsing_timeout_seconds":
			if n, ok := toInt(v); ok {
				out.ASTParsingTimeoutSeconds = n
			}
		case "ast_max_recursion_depth":
			if n, ok := toInt(v); ok {
				out.ASTMaxRecursionDepth = n
			}
		case "function_usage_warning_threshold":
			if n, ok := toInt(v); ok {
				out.FunctionUsageWarningThreshold = n
			}
		case "metrics_anonymize_paths":
			if b, ok := v.(bool); ok {
				out.MetricsAnonymizePaths = b
			}
		}
	}
	return out
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func toStrings(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out, true
	}
	return nil, false
}
