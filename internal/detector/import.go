package detector

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"xfilecontext/internal/model"
)

// ImportDetector handles import_statement and import_from_statement nodes
// (spec.md §4.3). It builds ctx.ImportMap as a side effect, which
// FunctionCallDetector later reads — hence its priority of 100, the
// highest of the v0.1.0 detectors.
type ImportDetector struct{}

func (d *ImportDetector) Priority() int { return 100 }

func (d *ImportDetector) CanHandle(n *ts.Node) bool {
	switch n.Kind() {
	case "import_statement", "import_from_statement":
		return true
	}
	return false
}

func (d *ImportDetector) Handle(n *ts.Node, ctx *Context) []model.Relationship {
	switch n.Kind() {
	case "import_statement":
		return d.handlePlain(n, ctx)
	case "import_from_statement":
		return d.handleFrom(n, ctx)
	}
	return nil
}

// handlePlain covers "import M", "import M as A", and the comma-separated
// "import M1, M2" form.
func (d *ImportDetector) handlePlain(n *ts.Node, ctx *Context) []model.Relationship {
	text := nodeText(ctx, n)
	body := strings.TrimPrefix(text, "import")
	line := pyastLine(n)

	var rels []model.Relationship
	for _, item := range strings.Split(body, ",") {
		module, alias := splitAlias(item)
		if module == "" {
			continue
		}
		target, ok, tag := ctx.Resolver.Resolve(ctx.FilePath, module, 0)
		boundName := alias
		if boundName == "" {
			boundName = strings.SplitN(module, ".", 2)[0]
		}
		if ok {
			ctx.Scope.BindImport(boundName, target)
			ctx.ImportMap[boundName] = target
			rels = append(rels, model.Relationship{
				SourceFile:       ctx.FilePath,
				TargetFile:       target,
				RelationshipType: model.Import,
				LineNumber:       line,
				TargetSymbol:     module,
			})
		} else {
			tagged := tagTarget(tag, module)
			ctx.Scope.BindImport(boundName, tagged)
			ctx.ImportMap[boundName] = tagged
		}
	}
	return rels
}

// handleFrom covers "from M import N", "from M import N as A",
// "from . import N", "from ..P import N", and the wildcard
// "from M import *" form.
func (d *ImportDetector) handleFrom(n *ts.Node, ctx *Context) []model.Relationship {
	text := nodeText(ctx, n)
	line := pyastLine(n)

	rest := strings.TrimPrefix(text, "from")
	parts := strings.SplitN(rest, "import", 2)
	if len(parts) != 2 {
		return nil
	}
	modulePart := strings.TrimSpace(parts[0])
	namesPart := strings.TrimSpace(parts[1])

	level := 0
	for level < len(modulePart) && modulePart[level] == '.' {
		level++
	}
	module := strings.TrimPrefix(modulePart, strings.Repeat(".", level))
	module = strings.TrimSpace(module)

	if namesPart == "*" {
		target, ok, tag := ctx.Resolver.Resolve(ctx.FilePath, module, level)
		if !ok {
			return nil
		}
		_ = tag
		return []model.Relationship{{
			SourceFile:       ctx.FilePath,
			TargetFile:       target,
			RelationshipType: model.WildcardImport,
			LineNumber:       line,
			TargetSymbol:     "*",
			Metadata:         map[string]string{"limitation": "function-level tracking unavailable"},
		}}
	}

	conditional := inConditionalGuard(n, ctx)

	var rels []model.Relationship
	for _, item := range strings.Split(namesPart, ",") {
		name, alias := splitAlias(item)
		if name == "" {
			continue
		}
		boundName := alias
		if boundName == "" {
			boundName = name
		}

		target, ok, tag := ctx.Resolver.Resolve(ctx.FilePath, module, level)
		if module == "" && level > 0 {
			// "from . import N": N names a submodule of the package when
			// one exists; otherwise it is an attribute of __init__.py.
			if sub, subOK, _ := ctx.Resolver.Resolve(ctx.FilePath, name, level); subOK {
				target, ok = sub, true
			}
		}
		if !ok {
			ctx.Scope.BindImport(boundName, tagTarget(tag, module+"."+name))
			ctx.ImportMap[boundName] = tagTarget(tag, module+"."+name)
			continue
		}
		ctx.Scope.BindImport(boundName, target)
		ctx.ImportMap[boundName] = target

		rel := model.Relationship{
			SourceFile:       ctx.FilePath,
			TargetFile:       target,
			RelationshipType: model.Import,
			LineNumber:       line,
			TargetSymbol:     name,
		}
		if conditional {
			rel.RelationshipType = model.ConditionalImport
			rel.Metadata = map[string]string{"conditional": "true"}
		}
		rels = append(rels, rel)
	}
	return rels
}

// splitAlias splits "name as alias" into its two parts, trimming
// whitespace; alias is empty when there is no "as" clause.
func splitAlias(item string) (name, alias string) {
	item = strings.TrimSpace(item)
	if item == "" {
		return "", ""
	}
	if idx := strings.Index(item, " as "); idx >= 0 {
		return strings.TrimSpace(item[:idx]), strings.TrimSpace(item[idx+4:])
	}
	return item, ""
}

// inConditionalGuard reports whether n sits inside an "if TYPE_CHECKING:"
// block or a sys.version_info guard, which spec.md §4.3 tags
// conditional_import rather than plain import.
func inConditionalGuard(n *ts.Node, ctx *Context) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind() != "if_statement" {
			continue
		}
		cond := p.ChildByFieldName("condition")
		if cond == nil {
			continue
		}
		condText := nodeText(ctx, cond)
		if strings.Contains(condText, "TYPE_CHECKING") || strings.Contains(condText, "version_info") {
			return true
		}
	}
	return false
}

func pyastLine(n *ts.Node) int {
	return int(n.StartPosition().Row) + 1
}
