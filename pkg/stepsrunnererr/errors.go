// Package stepsrunnererr defines the tagged error kinds the scheduler and
// executor report to callers. Every error the core surfaces carries one of
// these kinds so a caller can branch on failure category without parsing
// message text.
package stepsrunnererr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind tags an Error with the category of failure that produced it.
type Kind string

const (
	// CatalogMalformed marks a step class that failed validation when the
	// catalog was enumerated: an empty class name, a missing factory, or a
	// duplicate class name.
	CatalogMalformed Kind = "catalog_malformed"

	// UnresolvedDependency marks a dependency name that no catalog entry
	// produces. A true dependency cycle also surfaces as this kind: once a
	// class is excluded from its own subtree as an ancestor, any remaining
	// reference to it looks exactly like an absent producer.
	UnresolvedDependency Kind = "unresolved_dependency"

	// SelfDependency marks a class that lists itself as a dependency.
	SelfDependency Kind = "self_dependency"

	// MissingProductionAtConstruct marks a step whose constructor asked for
	// a production that its declared dependencies did not supply by the
	// time it was built.
	MissingProductionAtConstruct Kind = "missing_production_at_construct"

	// WorkerFailure marks a step that returned an error from Run, or a
	// worker process that crashed, timed out, or produced a malformed
	// result envelope.
	WorkerFailure Kind = "worker_failure"

	// ArgumentInvalid marks malformed caller input to planning: an empty
	// final-steps list, or a final step the catalog does not contain.
	ArgumentInvalid Kind = "argument_invalid"
)

// Error is the concrete error type every core package returns. It always
// carries a Kind and a human-readable Class identifying which step class
// (if any) was involved.
type Error struct {
	Kind  Kind
	Class string
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.Class != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Class, e.msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, stepsrunnererr.New(stepsrunnererr.WorkerFailure, "", "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an Error of the given kind for the given class.
func New(kind Kind, class, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Class: class, msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind for the given class, attaching a
// stack trace to cause at points where a caller debugging a worker crash or
// a construction failure benefits from one.
func Wrap(kind Kind, class string, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:  kind,
		Class: class,
		msg:   fmt.Sprintf(format, args...),
		cause: pkgerrors.WithStack(cause),
	}
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
