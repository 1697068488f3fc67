package inject

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"xfilecontext/internal/cache"
	"xfilecontext/internal/config"
	"xfilecontext/internal/graph"
	"xfilecontext/internal/model"
	"xfilecontext/internal/watcher"
)

// Result is read_with_context's return value (spec.md §4.6): content,
// the assembled snippet section (empty if injection is disabled or
// failed), and any warnings surfaced while fetching the target or its
// dependencies.
type Result struct {
	Content        string
	SnippetSection string
	Warnings       []model.Warning
	Event          model.InjectionEvent
}

// Pipeline wires the cache, graph and watcher timestamps together to
// implement read_with_context. It owns the shared cl100k tokenizer
// (pkoukk/tiktoken-go, grounded on the tiktoken usage in
// Tgenz1213-ArchGuard's analysis engine), built once since constructing
// it per call would repeatedly reload its token tables.
type Pipeline struct {
	Cache      *cache.Cache
	Graph      *graph.RelationshipGraph
	Timestamps *watcher.Timestamps
	Config     config.Config

	tokOnce sync.Once
	tok     *tiktoken.Tiktoken
}

func (p *Pipeline) tokenizer() *tiktoken.Tiktoken {
	p.tokOnce.Do(func() {
		tok, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			p.tok = tok
		}
	})
	return p.tok
}

func (p *Pipeline) countTokens(s string) int {
	tok := p.tokenizer()
	if tok == nil {
		// Fallback: a rough whitespace-based estimate keeps metrics
		// populated even if the tokenizer's vocabulary file couldn't load.
		return len(strings.Fields(s))
	}
	return len(tok.Encode(s, nil, nil))
}

// ReadWithContext implements spec.md §4.6 steps 1-9.
func (p *Pipeline) ReadWithContext(ctx context.Context, filePath string) Result {
	content, cacheHit, err := p.Cache.Get(ctx, filePath, nil)
	var warnings []model.Warning
	if err != nil {
		return Result{Content: "", Warnings: warnings}
	}

	if !p.Config.EnableContextInjection {
		return Result{Content: content}
	}

	deps := p.Graph.GetDependencies(filePath)
	order := rankDependencies(filePath, deps, p.Graph, p.Timestamps, p.Config)

	var b strings.Builder
	var snippets []model.Snippet
	total := 0

	for _, r := range order {
		snip, warn, ok := p.buildSnippet(ctx, r)
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		if !ok {
			continue
		}
		snippets = append(snippets, snip)
		total += snip.TokenCount
	}

	if len(snippets) > 0 {
		b.WriteString("[Cross-File Context]\n")
		fmt.Fprintf(&b, "%d related file(s): %s\n\n", len(snippets), depNames(order))
		for _, s := range snippets {
			fmt.Fprintf(&b, "From %s:%d\n", s.SourceFile, s.LineRange.Start)
			b.WriteString(s.Text)
			b.WriteString("\n")
			fmt.Fprintf(&b, "# Implementation in %s:%d-%d\n", s.SourceFile, s.LineRange.Start, s.LineRange.End)
			fmt.Fprintf(&b, "(Cached %s ago)\n\n", formatAge(s.CacheAgeSeconds))
		}
		b.WriteString("---\n")
	}

	event := model.InjectionEvent{
		Timestamp:       time.Now(),
		TriggerFile:     filePath,
		Snippets:        snippets,
		TotalTokenCount: total,
		CacheHit:        cacheHit,
	}

	return Result{
		Content:        content,
		SnippetSection: b.String(),
		Warnings:       warnings,
		Event:          event,
	}
}

// buildSnippet resolves one ranked dependency into a Snippet, handling
// the edge cases from spec.md §4.6: wildcard targets, unparseable deps,
// and deleted deps each produce a note instead of a signature.
func (p *Pipeline) buildSnippet(ctx context.Context, r ranked) (model.Snippet, *model.Warning, bool) {
	meta := p.Graph.Metadata(r.dep)

	if r.relType == model.WildcardImport {
		return model.Snippet{
			SourceFile:       r.dep,
			LineRange:        model.LineRange{Start: r.lineNumber, End: r.lineNumber},
			Text:             "# wildcard import: function-level tracking unavailable",
			RelationshipType: r.relType,
			TokenCount:       p.countTokens("wildcard import note"),
		}, nil, true
	}

	if meta != nil && meta.IsDeleted {
		return model.Snippet{
			SourceFile:       r.dep,
			LineRange:        model.LineRange{Start: r.lineNumber, End: r.lineNumber},
			Text:             fmt.Sprintf("# imported file deleted on %s", meta.LastAnalyzed.Format(time.RFC3339)),
			RelationshipType: r.relType,
			TokenCount:       p.countTokens("deleted file note"),
		}, nil, true
	}

	if meta != nil && meta.IsUnparseable {
		return model.Snippet{
			SourceFile:       r.dep,
			LineRange:        model.LineRange{Start: r.lineNumber, End: r.lineNumber},
			Text:             "# dependency could not be parsed; no signature available",
			RelationshipType: r.relType,
			TokenCount:       p.countTokens("unparseable note"),
		}, nil, true
	}

	content, _, err := p.Cache.Get(ctx, r.dep, nil)
	if err != nil || content == "" {
		return model.Snippet{}, &model.Warning{
			FilePath:    r.dep,
			WarningType: "injection_read_failed",
			Severity:    model.SeverityWarning,
			Message:     "could not read dependency for context injection",
			Timestamp:   time.Now(),
		}, false
	}

	text, lineRange, ok := signatureFor([]byte(content), lastSegment(r.symbol), p.Config)
	if !ok {
		text = "# signature unavailable"
		lineRange = [2]int{r.lineNumber, r.lineNumber}
	}

	age := 0.0
	if t, ok := p.Timestamps.Get(r.dep); ok {
		age = time.Since(t).Seconds()
	}

	return model.Snippet{
		SourceFile:       r.dep,
		LineRange:        model.LineRange{Start: lineRange[0], End: lineRange[1]},
		Text:             text,
		RelationshipType: r.relType,
		CacheAgeSeconds:  age,
		TokenCount:       p.countTokens(text),
	}, nil, true
}

// lastSegment strips a symbol down to the bare name signatureFor matches
// against a function/class definition's own name node: a function_call
// or inheritance TargetSymbol is dotted ("module.func", "module.Base"),
// but the AST node it must match is always named with the bare
// identifier alone.
func lastSegment(symbol string) string {
	if idx := strings.LastIndex(symbol, "."); idx >= 0 {
		return symbol[idx+1:]
	}
	return symbol
}

func depNames(order []ranked) string {
	names := make([]string, len(order))
	for i, r := range order {
		names[i] = r.dep
	}
	return strings.Join(names, ", ")
}

func formatAge(seconds float64) string {
	minutes := seconds / 60
	if minutes < 1 {
		return "less than a minute"
	}
	return fmt.Sprintf("%.0f minutes", minutes)
}
