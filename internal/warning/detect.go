package warning

import (
	"time"

	ts "github.com/tree-sitter/go-tree-sitter"

	"xfilecontext/internal/config"
	"xfilecontext/internal/model"
	"xfilecontext/internal/pyast"
	"xfilecontext/internal/resolver"
)

// wellKnownTestDecorators are suppressed even in source modules, since
// they're pytest/unittest idioms rather than unusual dynamic behavior.
var wellKnownTestDecorators = map[string]bool{
	"pytest.fixture": true, "fixture": true,
	"pytest.mark.parametrize": true,
	"staticmethod":            true,
	"classmethod":             true,
	"property":                true,
	"abstractmethod":          true,
	"override":                true,
}

// Detect walks tree once, emitting spec.md §4.7's dynamic-pattern
// warnings for source modules (test modules are walked but yield no
// warning and leave meta unchanged — the classifier is a "last-resort
// suppressor"). Each pattern that is emitted as a warning is also folded
// into meta via AddDynamicPattern.
func Detect(tree *pyast.Tree, filePath string, isTestModule bool, cfg config.Config, scope *resolver.Scope, meta *model.FileMetadata) []model.Warning {
	var warnings []model.Warning
	now := time.Now()

	emit := func(kind string, n *ts.Node, severity model.Severity, message string) {
		if isTestModule {
			return
		}
		if suppressed(kind, filePath, cfg) {
			return
		}
		meta.AddDynamicPattern(kind)
		warnings = append(warnings, model.Warning{
			FilePath:    filePath,
			LineNumber:  pyast.LineOf(n),
			WarningType: kind,
			Severity:    severity,
			Message:     message,
			CodeSnippet: truncate(tree.Text(n), 160),
			Timestamp:   now,
		})
	}

	pyast.Walk(tree.Root(), func(n *ts.Node) {
		switch n.Kind() {
		case "call":
			detectDynamicDispatch(n, tree, emit)
			detectExecEval(n, tree, emit)
		case "assignment":
			detectMonkeyPatch(n, tree, scope, emit)
		case "class_definition":
			detectMetaclass(n, tree, emit)
		case "decorator":
			detectDecorator(n, tree, emit)
		}
	})

	return warnings
}

type emitFunc func(kind string, n *ts.Node, severity model.Severity, message string)

// detectDynamicDispatch matches getattr(obj, name)(...): a call whose
// function is itself a call to getattr.
func detectDynamicDispatch(n *ts.Node, tree *pyast.Tree, emit emitFunc) {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "call" {
		return
	}
	inner := fn.ChildByFieldName("function")
	if inner == nil || inner.Kind() != "identifier" {
		return
	}
	if tree.Text(inner) != "getattr" {
		return
	}
	emit("dynamic_dispatch", n, model.SeverityWarning, "dynamic attribute dispatch via getattr(...)(...) cannot be resolved statically")
}

// detectExecEval matches exec(...) or eval(...) calls.
func detectExecEval(n *ts.Node, tree *pyast.Tree, emit emitFunc) {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" {
		return
	}
	name := tree.Text(fn)
	if name != "exec" && name != "eval" {
		return
	}
	emit("exec_eval", n, model.SeverityWarning, name+"(...) executes dynamically generated code")
}

// detectMonkeyPatch matches an assignment whose target is an attribute
// expression on a name bound to an import (module.attr = value).
func detectMonkeyPatch(n *ts.Node, tree *pyast.Tree, scope *resolver.Scope, emit emitFunc) {
	left := n.ChildByFieldName("left")
	if left == nil || left.Kind() != "attribute" {
		return
	}
	obj := left.ChildByFieldName("object")
	if obj == nil || obj.Kind() != "identifier" {
		return
	}
	_, isLocal, isBuiltin, ok := scope.Lookup(tree.Text(obj))
	if !ok || isLocal || isBuiltin {
		return
	}
	emit("monkey_patch", n, model.SeverityWarning, "assignment patches an attribute on an imported module/object")
}

// detectMetaclass matches class C(..., metaclass=X): a keyword_argument
// named "metaclass" inside the superclasses list.
func detectMetaclass(n *ts.Node, tree *pyast.Tree, emit emitFunc) {
	bases := n.ChildByFieldName("superclasses")
	if bases == nil {
		return
	}
	found := false
	pyast.Walk(bases, func(kw *ts.Node) {
		if found || kw.Kind() != "keyword_argument" {
			return
		}
		name := kw.ChildByFieldName("name")
		if name != nil && tree.Text(name) == "metaclass" {
			found = true
		}
	})
	if found {
		emit("custom_metaclass", n, model.SeverityInfo, "class defines a custom metaclass; behavior may not follow normal class semantics")
	}
}

// detectDecorator emits an info warning for any decorator that isn't one
// of the well-known, always-suppressed test/stdlib idioms.
func detectDecorator(n *ts.Node, tree *pyast.Tree, emit emitFunc) {
	expr := n.Child(n.ChildCount() - 1)
	if expr == nil {
		return
	}
	name := decoratorName(expr, tree)
	if name == "" || wellKnownTestDecorators[name] {
		return
	}
	emit("decorator", n, model.SeverityInfo, "non-well-known decorator @"+name+" may alter runtime behavior")
}

func decoratorName(expr *ts.Node, tree *pyast.Tree) string {
	switch expr.Kind() {
	case "identifier", "attribute":
		return tree.Text(expr)
	case "call":
		fn := expr.ChildByFieldName("function")
		if fn == nil {
			return ""
		}
		return tree.Text(fn)
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// suppressed reports whether kind (or filePath) is muted by config's
// suppression chain (spec.md §4.7): most-specific first — per-file/
// pattern entries in SuppressWarnings, then the global per-kind toggle.
func suppressed(kind, filePath string, cfg config.Config) bool {
	for _, s := range cfg.SuppressWarnings {
		if s == kind || s == filePath {
			return true
		}
	}
	switch kind {
	case "dynamic_dispatch":
		return cfg.SuppressDynamicDispatchWarn
	case "monkey_patch":
		return cfg.SuppressMonkeyPatchWarn
	case "exec_eval":
		return cfg.SuppressExecEvalWarn
	case "decorator":
		return cfg.SuppressDecoratorWarn
	case "custom_metaclass":
		return cfg.SuppressMetaclassWarn
	}
	return false
}
