// Package detector implements the pluggable relationship detectors from
// spec.md §4.3: pure functions of (ast_node, AnalysisContext) run in
// descending priority order during a single AST walk, grounded on the
// node-kind switch pattern in recera-onyx-coding-agent's
// graph_service/internal/analyzer/python_analyzer.go (import_statement,
// import_from_statement, class_definition, call) and
// theRebelliousNerd-codenerd's internal/world/ast_treesitter.go (the same
// switch style applied to several other grammars).
package detector

import (
	"sort"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"xfilecontext/internal/model"
	"xfilecontext/internal/pyast"
	"xfilecontext/internal/resolver"
)

// Context carries the per-file state detectors read and write while a
// single file's AST is walked: the import map detectors build up, and the
// scope used to resolve call targets. It is spec.md §4.2 step 5's
// "AnalysisContext".
type Context struct {
	FilePath string
	Tree     *pyast.Tree
	Resolver *resolver.Resolver
	Scope    *resolver.Scope

	// ImportMap records symbol -> resolved file or non-project tag, built
	// by ImportDetector and consumed by FunctionCallDetector.
	ImportMap map[string]string
}

// NewContext creates an empty Context for one file's analysis pass.
func NewContext(filePath string, tree *pyast.Tree, res *resolver.Resolver) *Context {
	return &Context{
		FilePath:  filePath,
		Tree:      tree,
		Resolver:  res,
		Scope:     resolver.NewScope(),
		ImportMap: make(map[string]string),
	}
}

// Detector matches a subset of AST node kinds and produces zero or more
// relationships for a match. Detectors never mutate the tree; they only
// read it and append to ctx.
type Detector interface {
	// Priority orders detectors within a single node dispatch: the
	// highest priority detector whose CanHandle returns true consumes the
	// node, and no other detector sees it.
	Priority() int
	CanHandle(n *ts.Node) bool
	Handle(n *ts.Node, ctx *Context) []model.Relationship
}

// Registry runs detectors in descending priority order over a tree,
// dispatching each node to the first detector that claims it.
type Registry struct {
	detectors []Detector
}

// NewRegistry builds the v0.1.0 detector set: ImportDetector at priority
// 100 so the import map is complete before call/inheritance detectors
// read it, then ClassInheritanceDetector and FunctionCallDetector at
// lower priorities.
func NewRegistry() *Registry {
	r := &Registry{
		detectors: []Detector{
			&ImportDetector{},
			&ClassInheritanceDetector{},
			&FunctionCallDetector{},
		},
	}
	sort.SliceStable(r.detectors, func(i, j int) bool {
		return r.detectors[i].Priority() > r.detectors[j].Priority()
	})
	return r
}

// Run walks root once, dispatching every node to the highest-priority
// detector that can handle it, and returns the aggregated, deduplicated
// relationships.
func (reg *Registry) Run(root *ts.Node, ctx *Context) []model.Relationship {
	bindLocals(root, ctx)

	var out []model.Relationship
	seen := make(map[string]struct{})

	pyast.Walk(root, func(n *ts.Node) {
		for _, d := range reg.detectors {
			if d.CanHandle(n) {
				for _, rel := range d.Handle(n, ctx) {
					key := rel.Key()
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}
					out = append(out, rel)
				}
				return
			}
		}
	})
	return out
}

// bindLocals pre-populates ctx.Scope with every function and assignment
// target name in the file before detectors run, so FunctionCallDetector's
// "local definitions first" rule (spec.md §4.3) has something to shadow
// imports with. Class names are bound by ClassInheritanceDetector itself,
// during the main walk, since it needs to run there anyway to read
// superclasses.
func bindLocals(root *ts.Node, ctx *Context) {
	pyast.Walk(root, func(n *ts.Node) {
		switch n.Kind() {
		case "function_definition":
			if name := n.ChildByFieldName("name"); name != nil {
				ctx.Scope.BindLocal(nodeText(ctx, name))
			}
		case "assignment":
			if left := n.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" {
				ctx.Scope.BindLocal(nodeText(ctx, left))
			}
		}
	})
}

func nodeText(ctx *Context, n *ts.Node) string {
	return strings.TrimSpace(ctx.Tree.Text(n))
}

func tagTarget(tag resolver.Tag, name string) string {
	return "<" + string(tag) + ":" + name + ">"
}
