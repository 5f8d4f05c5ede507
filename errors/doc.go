// Package errors provides structured error types for the cilmeta library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the offending metadata token, the table and field
// involved, and an optional cause chain.
//
// The three kinds callers most often branch on are:
//
//	KindMalformed          unresolvable reference, invalid field combination,
//	                       or a second write to a write-once field
//	KindInvalidOperation   builder missing a required field, or an edit that
//	                       violates table invariants
//	KindWriteLayoutFailed  size or offset computation failed while writing
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindMalformed).
//		Table("ClassLayout").
//		Field("PackingSize").
//		Token(0x0F000001).
//		Detail("packing size %d is not a power of two", 3).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Malformed(tok, "Parent", "TypeDef row does not exist")
//	err := errors.FieldMissing("ClassLayout", "parent")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
