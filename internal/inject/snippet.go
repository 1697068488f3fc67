package inject

import (
	"strings"
	"time"

	ts "github.com/tree-sitter/go-tree-sitter"

	"xfilecontext/internal/config"
	"xfilecontext/internal/pyast"
)

// maxDocstringSummary is spec.md §4.6 step 4's "< ~50 chars summary"
// bound on the docstring line included alongside a signature.
const maxDocstringSummary = 50

// signatureFor extracts the declaration line(s) of symbol (a function or
// class name) from source, plus its docstring's first line if short, and
// the (1-based) line range the declaration itself spans. It never
// includes the body — only the header up to the first ":" and the
// immediately following docstring.
func signatureFor(source []byte, symbol string, cfg config.Config) (text string, lineRange [2]int, ok bool) {
	tree, err := pyast.Parse(source, secondsOr(cfg.ASTParsingTimeoutSeconds, 5), intOr(cfg.ASTMaxRecursionDepth, 100))
	if err != nil {
		return "", [2]int{}, false
	}
	defer tree.Close()

	var found *ts.Node
	pyast.Walk(tree.Root(), func(n *ts.Node) {
		if found != nil {
			return
		}
		if n.Kind() != "function_definition" && n.Kind() != "class_definition" {
			return
		}
		name := n.ChildByFieldName("name")
		if name != nil && tree.Text(name) == symbol {
			found = n
		}
	})
	if found == nil {
		return "", [2]int{}, false
	}

	header := headerText(found, tree)
	doc := shortDocstring(found, tree)

	startLine := pyast.LineOf(found)
	endLine := startLine + strings.Count(header, "\n")

	out := header
	if doc != "" {
		out += "\n    " + doc
	}
	return out, [2]int{startLine, endLine}, true
}

// headerText returns the declaration line(s) up to and including the
// trailing ":" — the "signature only" text, never the body.
func headerText(n *ts.Node, tree *pyast.Tree) string {
	body := n.ChildByFieldName("body")
	full := tree.Text(n)
	if body == nil {
		return full
	}
	bodyText := tree.Text(body)
	if idx := strings.Index(full, bodyText); idx > 0 {
		return strings.TrimRight(full[:idx], "\n ")
	}
	if idx := strings.Index(full, ":"); idx >= 0 {
		return full[:idx+1]
	}
	return full
}

// shortDocstring returns the function/class body's first statement if it
// is a short string literal, empty otherwise.
func shortDocstring(n *ts.Node, tree *pyast.Tree) string {
	body := n.ChildByFieldName("body")
	if body == nil || body.ChildCount() == 0 {
		return ""
	}
	first := body.Child(0)
	if first == nil {
		return ""
	}
	var str *ts.Node
	if first.Kind() == "expression_statement" && first.ChildCount() > 0 {
		str = first.Child(0)
	} else if first.Kind() == "string" {
		str = first
	}
	if str == nil || str.Kind() != "string" {
		return ""
	}
	text := strings.Trim(tree.Text(str), "\"'")
	text = strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	if len(text) == 0 || len(text) >= maxDocstringSummary {
		return ""
	}
	return text
}

func secondsOr(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

func intOr(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
