// Package txerr defines the error taxonomy shared across tx's core
// components (spec.md §7) and the chained, human-readable formatting CLI
// collaborators print on failure.
package txerr

import (
	"errors"
	"strings"
)

// Kind tags an error with the taxonomy bucket from spec.md §7. CLI
// collaborators use it to pick an exit code: ResumeConstraint maps to 2,
// everything else to 1.
type Kind string

const (
	KindConfiguration    Kind = "configuration"
	KindTemplate         Kind = "template"
	KindIO               Kind = "io"
	KindParse            Kind = "parse"
	KindStore            Kind = "store"
	KindExecutor         Kind = "executor"
	KindResumeConstraint Kind = "resume_constraint"
	KindEmbedding        Kind = "embedding"
	KindAssembler        Kind = "assembler"
)

// Error is a single link in a chained error. Context names the offending
// identifier (a profile name, a path, a session id) so the top-level message
// stays actionable without a stack trace.
type Error struct {
	Kind    Kind
	Op      string // the operation that failed, e.g. "store.upsert_session"
	Context string // offending identifier, if any
	Err     error  // wrapped cause, nil at the root of the chain
}

func New(kind Kind, op, context string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Context: context, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Context != "" {
		msg += ": " + e.Context
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err (or any link in its chain) carries the given Kind.
func Is(err error, kind Kind) bool {
	var te *Error
	for errors.As(err, &te) {
		if te.Kind == kind {
			return true
		}
		err = te.Err
		if err == nil {
			return false
		}
	}
	return false
}

// Chain renders err as "tx: <top>\n    caused by: <next>\n    ..." per
// spec.md §7's user-visible error format.
func Chain(err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("tx: ")
	b.WriteString(err.Error())
	cur := err
	for {
		next := errors.Unwrap(cur)
		if next == nil {
			break
		}
		b.WriteString("\n    caused by: ")
		b.WriteString(next.Error())
		cur = next
	}
	return b.String()
}

// ExitCode maps an error's Kind to the process exit code spec.md §7
// mandates: 2 for a resume provider mismatch, 1 for everything else, 0 when
// err is nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if Is(err, KindResumeConstraint) {
		return 2
	}
	return 1
}

// Wrap is a convenience constructor that attaches a Kind and an operation
// name to an arbitrary error, leaving Context empty; it returns nil when err
// is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
