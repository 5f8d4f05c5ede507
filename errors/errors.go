package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRead    Phase = "read"    // stream and row decoding
	PhaseResolve Phase = "resolve" // two-pass entity resolution
	PhaseModify  Phase = "modify"  // builder context and row builders
	PhasePlan    Phase = "plan"    // writer sizing pass
	PhaseBuild   Phase = "build"   // heap and row construction
	PhaseLayout  Phase = "layout"  // stream offsets
	PhaseEmit    Phase = "emit"    // final bytes
	PhaseConfig  Phase = "config"  // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindMalformed         Kind = "malformed"
	KindInvalidOperation  Kind = "invalid_operation"
	KindWriteLayoutFailed Kind = "write_layout_failed"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindOverflow          Kind = "overflow"
	KindConflict          Kind = "conflict"
	KindInvalidData       Kind = "invalid_data"
	KindNotFound          Kind = "not_found"
	KindUnsupported       Kind = "unsupported"
)

// Error is the structured error type used throughout the module.
// Token is the raw 32-bit metadata token of the offending row, zero when unknown.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Table  string
	Field  string
	Detail string
	Token  uint32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Table != "" || e.Field != "" {
		b.WriteString(" at ")
		switch {
		case e.Table != "" && e.Field != "":
			b.WriteString(e.Table)
			b.WriteByte('.')
			b.WriteString(e.Field)
		case e.Table != "":
			b.WriteString(e.Table)
		default:
			b.WriteString(e.Field)
		}
	}

	if e.Token != 0 {
		fmt.Fprintf(&b, " (token 0x%08x)", e.Token)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Table sets the table name
func (b *Builder) Table(name string) *Builder {
	b.err.Table = name
	return b
}

// Field sets the column or builder field name
func (b *Builder) Field(name string) *Builder {
	b.err.Field = name
	return b
}

// Token sets the offending metadata token
func (b *Builder) Token(tok uint32) *Builder {
	b.err.Token = tok
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Malformed reports an unresolvable reference, an invalid field combination,
// or a second write to a write-once field.
func Malformed(token uint32, field, detail string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindMalformed,
		Token:  token,
		Field:  field,
		Detail: detail,
	}
}

// MalformedIn is Malformed raised from a phase other than resolution.
func MalformedIn(phase Phase, token uint32, field, detail string) *Error {
	e := Malformed(token, field, detail)
	e.Phase = phase
	return e
}

// InvalidOperation reports an edit that violates table invariants.
func InvalidOperation(table, field, detail string) *Error {
	return &Error{
		Phase:  PhaseModify,
		Kind:   KindInvalidOperation,
		Table:  table,
		Field:  field,
		Detail: detail,
	}
}

// FieldMissing reports a builder whose required field was never set.
func FieldMissing(table, field string) *Error {
	return &Error{
		Phase:  PhaseModify,
		Kind:   KindInvalidOperation,
		Table:  table,
		Field:  field,
		Detail: fmt.Sprintf("required field %q not set", field),
	}
}

// WriteLayoutFailed reports a sizing, offset, or extraction failure while writing.
func WriteLayoutFailed(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindWriteLayoutFailed,
		Detail: detail,
		Cause:  cause,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, field string, value any, width int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Field:  field,
		Detail: fmt.Sprintf("value %v overflows %d-byte field", value, width),
		Value:  value,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, field string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Field:  field,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// Conflict reports an operation rejected by a conflict resolver.
func Conflict(table string, token uint32, reason string) *Error {
	return &Error{
		Phase:  PhasePlan,
		Kind:   KindConflict,
		Table:  table,
		Token:  token,
		Detail: reason,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, field string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Field:  field,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
