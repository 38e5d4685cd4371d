// Package diagnostics implements the stable TSN#### diagnostic code
// namespace used across the compiler: structural, type, generics,
// unsupported-construct and import/export errors, plus warnings that
// accumulate without halting emission.
package diagnostics

import (
	"fmt"

	"github.com/funvibe/tsnc/internal/token"
)

// Code is a stable diagnostic identifier, e.g. "TSN5110".
type Code string

// Severity distinguishes fatal diagnostics (abort the module or
// compilation) from warnings (accumulate, emission continues).
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityFatal
)

func (s Severity) String() string {
	if s == SeverityFatal {
		return "error"
	}
	return "warning"
}

// Kind groups codes by the error taxonomy of spec §7.
type Kind string

const (
	KindStructural  Kind = "structural"
	KindType        Kind = "type"
	KindGenerics    Kind = "generics"
	KindUnsupported Kind = "unsupported"
	KindImportExport Kind = "import-export"
)

// Stable code assignments. New kinds extend the table; existing codes
// never change meaning once a compilation depends on them (spec §6).
const (
	ErrArityMismatch      Code = "TSN1001" // referenceType typeArguments arity mismatch
	ErrUnknownKind        Code = "TSN1002" // IR node of unrecognised kind
	ErrStructAgreement    Code = "TSN1003" // struct-marker descendant disagrees with its ancestor's lowering
	ErrAliasCycle         Code = "TSN2001" // resolveAlias detected a cycle
	ErrUnresolvableAlias  Code = "TSN2002"
	ErrIntDoubleMismatch  Code = "TSN5110" // integer literal exceeds int/long range in context
	ErrNullUndefinedSplit Code = "TSN5120" // T | null | undefined position requiring the two be distinguished
	ErrMissingTypeArgs    Code = "TSN3001"
	ErrGenericRecursion   Code = "TSN3002" // GenericRecursionDepth exceeded
	ErrUnsupportedAny     Code = "TSN7414" // untyped any outside dynamic-any, exotic literal
	ErrUnsupportedThrow   Code = "TSN7415" // throw with non-Error-shaped value
	ErrImportCycle        Code = "TSN6001" // cycle among local modules carrying a value edge
	ErrUnresolvedImport   Code = "TSN6002"
	ErrAmbiguousInference Code = "TSN4001" // lambda parameter used without a concrete type
	ErrSyntax             Code = "TSN0001" // surface-grammar parse failure
)

// Location pinpoints a diagnostic in source text.
type Location struct {
	File   string
	Line   int
	Column int
}

func LocationFromToken(file string, tok token.Token) Location {
	return Location{File: file, Line: tok.Line, Column: tok.Column}
}

// Diagnostic is a single (code, kind, location, message, severity) tuple.
type Diagnostic struct {
	Code     Code
	Kind     Kind
	Location Location
	Message  string
	Severity Severity
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s %s: %s", d.Location.File, d.Location.Line, d.Location.Column, d.Severity, d.Code, d.Message)
}

func New(code Code, kind Kind, loc Location, severity Severity, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Code:     code,
		Kind:     kind,
		Location: loc,
		Message:  fmt.Sprintf(format, args...),
		Severity: severity,
	}
}

func Fatal(code Code, kind Kind, loc Location, format string, args ...any) *Diagnostic {
	return New(code, kind, loc, SeverityFatal, format, args...)
}

func Warning(code Code, kind Kind, loc Location, format string, args ...any) *Diagnostic {
	return New(code, kind, loc, SeverityWarning, format, args...)
}

// Bag is an append-only collection of diagnostics accumulated across a
// compilation. It is the only mutable shared state the diagnostics
// subsystem exposes (spec §5) — append-only, read concurrently only
// after the sequential emission walk completes.
type Bag struct {
	// RunID correlates every diagnostic emitted during one compilation
	// invocation, surfaced in structured CLI/log output.
	RunID   string
	entries []*Diagnostic
}

func NewBag(runID string) *Bag {
	return &Bag{RunID: runID}
}

func (b *Bag) Add(d *Diagnostic) {
	if d == nil {
		return
	}
	b.entries = append(b.entries, d)
}

func (b *Bag) All() []*Diagnostic {
	return b.entries
}

func (b *Bag) HasFatal() bool {
	for _, d := range b.entries {
		if d.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

func (b *Bag) Warnings() []*Diagnostic {
	var out []*Diagnostic
	for _, d := range b.entries {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}
