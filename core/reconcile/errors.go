package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies reconciliation failures.
type Kind string

const (
	// KindClone reports a source bean that could not be copied.
	KindClone Kind = "clone"
	// KindExpression reports a failed value or DN expression.
	KindExpression Kind = "expression"
	// KindConfiguration reports a task that cannot produce a valid operation.
	KindConfiguration Kind = "configuration"
)

// Error is returned by the engine. Every Error aborts the reconciliation of
// the entry it concerns; no partial operation is returned with it.
type Error struct {
	Kind      Kind
	Op        string
	DN        string
	Attribute string
	Cause     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "reconcile %s: %s error", e.Op, e.Kind)
	if e.DN != "" {
		fmt.Fprintf(&b, " (dn=%s)", e.DN)
	}
	if e.Attribute != "" {
		fmt.Fprintf(&b, " (attribute=%s)", e.Attribute)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err wraps an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Kind == kind
}
