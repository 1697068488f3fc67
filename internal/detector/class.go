package detector

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"xfilecontext/internal/model"
)

// ClassInheritanceDetector handles class_definition nodes, emitting one
// inheritance relationship per base class whose name resolves (spec.md
// §4.3). Grounded on recera-onyx-coding-agent's extractClass/
// extractBaseClasses, which walks the "superclasses" field collecting
// "identifier"/"attribute" nodes.
type ClassInheritanceDetector struct{}

func (d *ClassInheritanceDetector) Priority() int { return 80 }

func (d *ClassInheritanceDetector) CanHandle(n *ts.Node) bool {
	return n.Kind() == "class_definition"
}

func (d *ClassInheritanceDetector) Handle(n *ts.Node, ctx *Context) []model.Relationship {
	nameNode := n.ChildByFieldName("name")
	if nameNode != nil {
		ctx.Scope.BindLocal(nodeText(ctx, nameNode))
	}

	bases := n.ChildByFieldName("superclasses")
	if bases == nil {
		return nil
	}
	line := pyastLine(n)

	// Only the superclasses list's direct children are base-class
	// expressions ("Base", "pkg.Base", keyword args like metaclass=X);
	// an "attribute" child's own nested "identifier" (the "pkg" in
	// "pkg.Base") is not itself a base and must not be visited, or a
	// dotted base would produce two relationships instead of one.
	var rels []model.Relationship
	count := bases.ChildCount()
	for i := uint(0); i < count; i++ {
		bn := bases.Child(i)
		if bn == nil || (bn.Kind() != "identifier" && bn.Kind() != "attribute") {
			continue
		}
		baseName := nodeText(ctx, bn)
		if baseName == "" || baseName == "object" {
			continue
		}
		target, scopedOK, _ := resolveViaScopeOrImport(ctx, baseName)
		if !scopedOK {
			continue
		}
		rels = append(rels, model.Relationship{
			SourceFile:       ctx.FilePath,
			TargetFile:       target,
			RelationshipType: model.Inheritance,
			LineNumber:       line,
			TargetSymbol:     baseName,
		})
	}
	return rels
}

// resolveViaScopeOrImport resolves a bare or dotted name against the
// import map built so far: "Base" or "module.Base" both look up the
// leading identifier in ctx.ImportMap. A name with no matching import and
// no project-relative resolution is treated as unresolved and dropped —
// spec.md §4.3 only emits an inheritance edge "whose base resolves".
func resolveViaScopeOrImport(ctx *Context, name string) (target string, ok bool, tag string) {
	head := name
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			head = name[:i]
			break
		}
	}
	resolved, found := ctx.ImportMap[head]
	if !found {
		return "", false, ""
	}
	if len(resolved) > 0 && resolved[0] == '<' {
		// Tagged non-project target (<stdlib:…>, <third-party:…>, …):
		// not a project file, so no inheritance edge is emitted.
		return "", false, ""
	}
	return resolved, true, ""
}
