// Package xerr defines the error-kind taxonomy from spec.md §7. Kinds are
// not exception classes; they are a small closed set of sentinels that
// callers can test with errors.Is/errors.As while the wrapped message
// keeps the usual fmt.Errorf("...: %w", err) chain.
package xerr

import (
	"errors"
	"fmt"
)

// Kind is one of the taxonomy buckets from spec.md §7.
type Kind string

const (
	Parse              Kind = "parse"
	IO                 Kind = "io"
	Resolution         Kind = "resolution"
	GraphInconsistency Kind = "graph_inconsistency"
	DynamicPattern     Kind = "dynamic_pattern"
	ResourceExhaustion Kind = "resource_exhaustion"
	ToolSurface        Kind = "tool_surface"
)

// Error wraps an underlying cause with a taxonomy Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err under kind, annotated with op (the operation that failed).
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether the first *Error found in err's chain has the given
// Kind; a nested *Error behind it is not consulted.
func Is(err error, kind Kind) bool {
	var xe *Error
	if errors.As(err, &xe) {
		return xe.Kind == kind
	}
	return false
}
