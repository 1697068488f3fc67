package detector

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"xfilecontext/internal/model"
)

// FunctionCallDetector handles "call" nodes whose function is a bare
// name (name(args)) or a single-level attribute access
// (module.name(args)) where module is a bound name in scope (spec.md
// §4.3). It explicitly does not handle a.b().c() or p.q.r() chains —
// those are left unresolved (no relationship emitted) per the v0.1.0
// scope boundary. Grounded on recera-onyx-coding-agent's call handling
// (python_analyzer.go, the "call" node / "function" field pattern).
type FunctionCallDetector struct{}

func (d *FunctionCallDetector) Priority() int { return 50 }

func (d *FunctionCallDetector) CanHandle(n *ts.Node) bool {
	return n.Kind() == "call"
}

func (d *FunctionCallDetector) Handle(n *ts.Node, ctx *Context) []model.Relationship {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return nil
	}
	line := pyastLine(n)

	switch fn.Kind() {
	case "identifier":
		name := nodeText(ctx, fn)
		return d.resolveBareCall(name, line, ctx)
	case "attribute":
		obj := fn.ChildByFieldName("object")
		attr := fn.ChildByFieldName("attribute")
		if obj == nil || attr == nil || obj.Kind() != "identifier" {
			// a.b().c() or p.q.r(): explicitly out of scope.
			return nil
		}
		moduleName := nodeText(ctx, obj)
		attrName := nodeText(ctx, attr)
		return d.resolveModuleCall(moduleName, attrName, line, ctx)
	}
	return nil
}

func (d *FunctionCallDetector) resolveBareCall(name string, line int, ctx *Context) []model.Relationship {
	target, isLocal, isBuiltin, ok := ctx.Scope.Lookup(name)
	if !ok || isLocal || isBuiltin {
		return nil
	}
	if len(target) > 0 && target[0] == '<' {
		return nil
	}
	if target == "" {
		return nil
	}
	return []model.Relationship{{
		SourceFile:       ctx.FilePath,
		TargetFile:       target,
		RelationshipType: model.FunctionCall,
		LineNumber:       line,
		TargetSymbol:     name,
	}}
}

func (d *FunctionCallDetector) resolveModuleCall(moduleName, attrName string, line int, ctx *Context) []model.Relationship {
	target, isLocal, isBuiltin, ok := ctx.Scope.Lookup(moduleName)
	if !ok || isLocal || isBuiltin {
		return nil
	}
	if target == "" || target[0] == '<' {
		return nil
	}
	return []model.Relationship{{
		SourceFile:       ctx.FilePath,
		TargetFile:       target,
		RelationshipType: model.FunctionCall,
		LineNumber:       line,
		TargetSymbol:     moduleName + "." + attrName,
	}}
}
