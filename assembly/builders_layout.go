package assembly

import (
	"fmt"

	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/heaps"
	"github.com/wippyai/cilmeta/internal/binary"
	"github.com/wippyai/cilmeta/tables"
)

func ptr[T any](v T) *T {
	return &v
}

// requireToken checks that tok names a non-null row of want.
func requireToken(table, field string, tok tables.Token, want tables.TableID) error {
	if tok.Table() != want {
		return errors.InvalidOperation(table, field,
			fmt.Sprintf("must be a %s token, got %s", want, tok))
	}
	if tok.RID() == 0 {
		return errors.InvalidOperation(table, field, fmt.Sprintf("%s RID cannot be 0", want))
	}
	return nil
}

// requireCoded checks that tok names a non-null row of a table in kind.
func requireCoded(table, field string, tok tables.Token, kind tables.CodedIndexType) error {
	if !kind.Contains(tok.Table()) {
		return errors.InvalidOperation(table, field,
			fmt.Sprintf("%s cannot reference %s", kind, tok.Table()))
	}
	if tok.RID() == 0 {
		return errors.InvalidOperation(table, field, "null reference")
	}
	return nil
}

// requireString checks that s can be stored in #Strings. Builders check
// every heap value before their first append.
func requireString(table, field, s string) error {
	if _, err := heaps.EncodeString(s); err != nil {
		return encodeRejected(table, field, err)
	}
	return nil
}

// requireBlob checks that b can be stored in #Blob.
func requireBlob(table, field string, b []byte) error {
	if _, err := heaps.EncodeBlob(b); err != nil {
		return encodeRejected(table, field, err)
	}
	return nil
}

func encodeRejected(table, field string, err error) error {
	e := errors.InvalidOperation(table, field, err.Error())
	var cause *errors.Error
	if errors.As(err, &cause) {
		e.Detail = cause.Detail
	}
	e.Cause = err
	return e
}

// ClassLayoutBuilder adds a ClassLayout row.
type ClassLayoutBuilder struct {
	packingSize *uint16
	classSize   *uint32
	parent      *tables.Token
}

func NewClassLayoutBuilder() *ClassLayoutBuilder { return &ClassLayoutBuilder{} }

func (b *ClassLayoutBuilder) PackingSize(v uint16) *ClassLayoutBuilder {
	b.packingSize = ptr(v)
	return b
}

func (b *ClassLayoutBuilder) ClassSize(v uint32) *ClassLayoutBuilder {
	b.classSize = ptr(v)
	return b
}

// Parent sets the TypeDef the layout applies to.
func (b *ClassLayoutBuilder) Parent(tok tables.Token) *ClassLayoutBuilder {
	b.parent = ptr(tok)
	return b
}

// Build validates every field and records the row. Nothing is recorded on
// error.
func (b *ClassLayoutBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	const table = "ClassLayout"
	switch {
	case b.packingSize == nil:
		return 0, errors.FieldMissing(table, "packing_size")
	case b.classSize == nil:
		return 0, errors.FieldMissing(table, "class_size")
	case b.parent == nil:
		return 0, errors.FieldMissing(table, "parent")
	}
	if err := requireToken(table, "parent", *b.parent, tables.TypeDef); err != nil {
		return 0, err
	}
	if !tables.ValidPackingSize(*b.packingSize) {
		return 0, errors.InvalidOperation(table, "packing_size",
			fmt.Sprintf("must be 0 or a power of two up to %d, got %d", tables.MaxPackingSize, *b.packingSize))
	}
	if *b.classSize > tables.MaxClassSize {
		return 0, errors.InvalidOperation(table, "class_size",
			fmt.Sprintf("cannot exceed 0x%X, got 0x%X", tables.MaxClassSize, *b.classSize))
	}
	return ctx.TableRowAdd(tables.ClassLayout, &tables.ClassLayoutRaw{
		PackingSize: *b.packingSize,
		ClassSize:   *b.classSize,
		Parent:      b.parent.RID(),
	})
}

// FieldLayoutBuilder adds a FieldLayout row.
type FieldLayoutBuilder struct {
	offset *uint32
	field  *tables.Token
}

func NewFieldLayoutBuilder() *FieldLayoutBuilder { return &FieldLayoutBuilder{} }

func (b *FieldLayoutBuilder) Offset(v uint32) *FieldLayoutBuilder {
	b.offset = ptr(v)
	return b
}

func (b *FieldLayoutBuilder) Field(tok tables.Token) *FieldLayoutBuilder {
	b.field = ptr(tok)
	return b
}

func (b *FieldLayoutBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	const table = "FieldLayout"
	switch {
	case b.offset == nil:
		return 0, errors.FieldMissing(table, "field_offset")
	case b.field == nil:
		return 0, errors.FieldMissing(table, "field")
	}
	if err := requireToken(table, "field", *b.field, tables.Field); err != nil {
		return 0, err
	}
	return ctx.TableRowAdd(tables.FieldLayout, &tables.FieldLayoutRaw{
		FieldOffset: *b.offset,
		Field:       b.field.RID(),
	})
}

// FieldRVABuilder adds a FieldRVA row.
type FieldRVABuilder struct {
	rva   *uint32
	field *tables.Token
}

func NewFieldRVABuilder() *FieldRVABuilder { return &FieldRVABuilder{} }

func (b *FieldRVABuilder) RVA(v uint32) *FieldRVABuilder {
	b.rva = ptr(v)
	return b
}

func (b *FieldRVABuilder) Field(tok tables.Token) *FieldRVABuilder {
	b.field = ptr(tok)
	return b
}

func (b *FieldRVABuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	const table = "FieldRVA"
	switch {
	case b.rva == nil:
		return 0, errors.FieldMissing(table, "rva")
	case b.field == nil:
		return 0, errors.FieldMissing(table, "field")
	}
	if *b.rva == 0 {
		return 0, errors.InvalidOperation(table, "rva", "RVA cannot be 0")
	}
	if err := requireToken(table, "field", *b.field, tables.Field); err != nil {
		return 0, err
	}
	return ctx.TableRowAdd(tables.FieldRVA, &tables.FieldRVARaw{RVA: *b.rva, Field: b.field.RID()})
}

// NestedClassBuilder adds a NestedClass row.
type NestedClassBuilder struct {
	nested    *tables.Token
	enclosing *tables.Token
}

func NewNestedClassBuilder() *NestedClassBuilder { return &NestedClassBuilder{} }

func (b *NestedClassBuilder) NestedClass(tok tables.Token) *NestedClassBuilder {
	b.nested = ptr(tok)
	return b
}

func (b *NestedClassBuilder) EnclosingClass(tok tables.Token) *NestedClassBuilder {
	b.enclosing = ptr(tok)
	return b
}

func (b *NestedClassBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	const table = "NestedClass"
	switch {
	case b.nested == nil:
		return 0, errors.FieldMissing(table, "nested_class")
	case b.enclosing == nil:
		return 0, errors.FieldMissing(table, "enclosing_class")
	}
	if err := requireToken(table, "nested_class", *b.nested, tables.TypeDef); err != nil {
		return 0, err
	}
	if err := requireToken(table, "enclosing_class", *b.enclosing, tables.TypeDef); err != nil {
		return 0, err
	}
	if *b.nested == *b.enclosing {
		return 0, errors.InvalidOperation(table, "enclosing_class", "type cannot enclose itself")
	}
	return ctx.TableRowAdd(tables.NestedClass, &tables.NestedClassRaw{
		NestedClass:    b.nested.RID(),
		EnclosingClass: b.enclosing.RID(),
	})
}

// InterfaceImplBuilder adds an InterfaceImpl row.
type InterfaceImplBuilder struct {
	class *tables.Token
	iface *tables.Token
}

func NewInterfaceImplBuilder() *InterfaceImplBuilder { return &InterfaceImplBuilder{} }

func (b *InterfaceImplBuilder) Class(tok tables.Token) *InterfaceImplBuilder {
	b.class = ptr(tok)
	return b
}

// Interface sets the implemented interface (TypeDef, TypeRef or TypeSpec).
func (b *InterfaceImplBuilder) Interface(tok tables.Token) *InterfaceImplBuilder {
	b.iface = ptr(tok)
	return b
}

func (b *InterfaceImplBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	const table = "InterfaceImpl"
	switch {
	case b.class == nil:
		return 0, errors.FieldMissing(table, "class")
	case b.iface == nil:
		return 0, errors.FieldMissing(table, "interface")
	}
	if err := requireToken(table, "class", *b.class, tables.TypeDef); err != nil {
		return 0, err
	}
	if err := requireCoded(table, "interface", *b.iface, tables.TypeDefOrRef); err != nil {
		return 0, err
	}
	return ctx.TableRowAdd(tables.InterfaceImpl, &tables.InterfaceImplRaw{
		Class:     b.class.RID(),
		Interface: tables.CodedFromToken(tables.TypeDefOrRef, *b.iface),
	})
}

// ConstantBuilder adds a Constant row.
type ConstantBuilder struct {
	elementType *uint8
	parent      *tables.Token
	value       []byte
	valueSet    bool
}

func NewConstantBuilder() *ConstantBuilder { return &ConstantBuilder{} }

// ElementType sets the ELEMENT_TYPE_* code of the value.
func (b *ConstantBuilder) ElementType(v uint8) *ConstantBuilder {
	b.elementType = ptr(v)
	return b
}

// Parent sets the owning Field, Param or Property.
func (b *ConstantBuilder) Parent(tok tables.Token) *ConstantBuilder {
	b.parent = ptr(tok)
	return b
}

func (b *ConstantBuilder) Value(v []byte) *ConstantBuilder {
	b.value, b.valueSet = v, true
	return b
}

// ELEMENT_TYPE codes used by constant helpers.
const (
	ElementTypeBoolean uint8 = 0x02
	ElementTypeI4      uint8 = 0x08
	ElementTypeString  uint8 = 0x0E
	ElementTypeClass   uint8 = 0x12
)

// StringValue sets a UTF-16LE string constant.
func (b *ConstantBuilder) StringValue(s string) *ConstantBuilder {
	return b.ElementType(ElementTypeString).Value(binary.EncodeUTF16LE(s))
}

// I4Value sets a 32-bit integer constant.
func (b *ConstantBuilder) I4Value(v int32) *ConstantBuilder {
	u := uint32(v)
	return b.ElementType(ElementTypeI4).Value([]byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24)})
}

// BooleanValue sets a boolean constant.
func (b *ConstantBuilder) BooleanValue(v bool) *ConstantBuilder {
	var x byte
	if v {
		x = 1
	}
	return b.ElementType(ElementTypeBoolean).Value([]byte{x})
}

// NullReferenceValue sets a null reference constant: a CLASS element type
// with a 4-byte zero value.
func (b *ConstantBuilder) NullReferenceValue() *ConstantBuilder {
	return b.ElementType(ElementTypeClass).Value([]byte{0, 0, 0, 0})
}

func (b *ConstantBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	const table = "Constant"
	switch {
	case b.elementType == nil:
		return 0, errors.FieldMissing(table, "element_type")
	case b.parent == nil:
		return 0, errors.FieldMissing(table, "parent")
	case !b.valueSet:
		return 0, errors.FieldMissing(table, "value")
	}
	if err := requireCoded(table, "parent", *b.parent, tables.HasConstant); err != nil {
		return 0, err
	}
	if len(b.value) == 0 && *b.elementType != ElementTypeString {
		return 0, errors.InvalidOperation(table, "value", "only string constants may be empty")
	}
	if err := requireBlob(table, "value", b.value); err != nil {
		return 0, err
	}
	value, err := ctx.BlobAdd(b.value)
	if err != nil {
		return 0, err
	}
	return ctx.TableRowAdd(tables.Constant, &tables.ConstantRaw{
		Type:   *b.elementType,
		Parent: tables.CodedFromToken(tables.HasConstant, *b.parent),
		Value:  value,
	})
}

// CustomAttributeBuilder adds a CustomAttribute row.
type CustomAttributeBuilder struct {
	parent      *tables.Token
	constructor *tables.Token
	value       []byte
}

func NewCustomAttributeBuilder() *CustomAttributeBuilder { return &CustomAttributeBuilder{} }

func (b *CustomAttributeBuilder) Parent(tok tables.Token) *CustomAttributeBuilder {
	b.parent = ptr(tok)
	return b
}

// Constructor sets the attribute constructor (MethodDef or MemberRef).
func (b *CustomAttributeBuilder) Constructor(tok tables.Token) *CustomAttributeBuilder {
	b.constructor = ptr(tok)
	return b
}

// Value sets the encoded attribute blob. It is optional.
func (b *CustomAttributeBuilder) Value(v []byte) *CustomAttributeBuilder {
	b.value = v
	return b
}

func (b *CustomAttributeBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	const table = "CustomAttribute"
	switch {
	case b.parent == nil:
		return 0, errors.FieldMissing(table, "parent")
	case b.constructor == nil:
		return 0, errors.FieldMissing(table, "constructor")
	}
	if err := requireCoded(table, "parent", *b.parent, tables.HasCustomAttribute); err != nil {
		return 0, err
	}
	if err := requireCoded(table, "constructor", *b.constructor, tables.CustomAttributeType); err != nil {
		return 0, err
	}
	if err := requireBlob(table, "value", b.value); err != nil {
		return 0, err
	}
	var value uint32
	if len(b.value) > 0 {
		var err error
		if value, err = ctx.BlobAdd(b.value); err != nil {
			return 0, err
		}
	}
	return ctx.TableRowAdd(tables.CustomAttribute, &tables.CustomAttributeRaw{
		Parent: tables.CodedFromToken(tables.HasCustomAttribute, *b.parent),
		Type:   tables.CodedFromToken(tables.CustomAttributeType, *b.constructor),
		Value:  value,
	})
}
