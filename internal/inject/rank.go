// Package inject implements the context-injection pipeline from spec.md
// §4.6: dependency ranking, signature-only snippet extraction, token
// counting and the fixed snippet-section format.
package inject

import (
	"sort"
	"time"

	"xfilecontext/internal/config"
	"xfilecontext/internal/graph"
	"xfilecontext/internal/model"
	"xfilecontext/internal/watcher"
)

// recentWindow is the "within the last 10 minutes" bound from spec.md
// §4.6 step 3b.
const recentWindow = 10 * time.Minute

// relTypeRank orders relationship types for step 3d: import > function_call
// > inheritance. Wildcard and conditional imports rank alongside import.
var relTypeRank = map[model.RelationshipType]int{
	model.Import:            3,
	model.ConditionalImport: 3,
	model.WildcardImport:    3,
	model.FunctionCall:      2,
	model.Inheritance:       1,
}

// symbolRank orders relationship types for choosing which TargetSymbol
// names the thing signatureFor should look up: a function_call or
// inheritance edge names the symbol actually used ("module.func",
// "Base"), while a same-target "import module" edge only names the bare
// module. A call/inheritance edge always wins the symbol pick even when
// the plain import outranks it for display ordering in relTypeRank above.
var symbolRank = map[model.RelationshipType]int{
	model.FunctionCall:      2,
	model.Inheritance:       2,
	model.Import:            1,
	model.ConditionalImport: 1,
	model.WildcardImport:    1,
}

// ranked is one dependency's ranking inputs plus the relationship type
// used to describe it in the snippet.
type ranked struct {
	dep        string
	relType    model.RelationshipType
	lineNumber int
	symbol     string
	recent     bool
	widelyUsed bool
}

// rankDependencies orders deps per spec.md §4.6 step 3: direct is a given
// (deps themselves come from a single get_dependencies call, so there is
// no transitive candidate to rank against — criterion (a) is satisfied
// trivially); recency, usage breadth and relationship-type kind decide
// the rest.
func rankDependencies(filePath string, deps []string, g *graph.RelationshipGraph, ts *watcher.Timestamps, cfg config.Config) []ranked {
	now := time.Now()
	out := make([]ranked, 0, len(deps))

	for _, dep := range deps {
		rel, relLine := bestRelationship(filePath, dep, g)
		out = append(out, ranked{
			dep:        dep,
			relType:    rel,
			lineNumber: relLine,
			symbol:     bestSymbol(filePath, dep, g),
			recent:     isRecent(dep, ts, now),
			widelyUsed: len(g.GetDependents(dep)) >= cfg.FunctionUsageWarningThreshold,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.recent != b.recent {
			return a.recent
		}
		if a.widelyUsed != b.widelyUsed {
			return a.widelyUsed
		}
		if relTypeRank[a.relType] != relTypeRank[b.relType] {
			return relTypeRank[a.relType] > relTypeRank[b.relType]
		}
		return a.dep < b.dep
	})
	return out
}

// bestRelationship returns the highest-priority relationship type linking
// filePath to dep, and the line it was declared on, for display.
func bestRelationship(filePath, dep string, g *graph.RelationshipGraph) (model.RelationshipType, int) {
	best := model.RelationshipType("")
	bestLine := 0
	bestRank := -1
	for _, r := range g.RelationshipsFrom(filePath) {
		if r.TargetFile != dep {
			continue
		}
		if rank := relTypeRank[r.RelationshipType]; rank > bestRank {
			bestRank = rank
			best = r.RelationshipType
			bestLine = r.LineNumber
		}
	}
	return best, bestLine
}

// bestSymbol returns the TargetSymbol to use for signature extraction,
// preferring a function_call/inheritance edge's call-specific symbol
// over a same-target import's bare module name (see symbolRank).
func bestSymbol(filePath, dep string, g *graph.RelationshipGraph) string {
	best := ""
	bestRank := -1
	for _, r := range g.RelationshipsFrom(filePath) {
		if r.TargetFile != dep || r.TargetSymbol == "" {
			continue
		}
		if rank := symbolRank[r.RelationshipType]; rank > bestRank {
			bestRank = rank
			best = r.TargetSymbol
		}
	}
	return best
}

func isRecent(path string, ts *watcher.Timestamps, now time.Time) bool {
	t, ok := ts.Get(path)
	if !ok {
		return false
	}
	return now.Sub(t) <= recentWindow
}
