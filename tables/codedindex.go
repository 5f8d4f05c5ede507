package tables

import (
	"fmt"
	"math/bits"

	"github.com/wippyai/cilmeta/errors"
)

// CodedIndexType names a family of tables a single column may reference.
type CodedIndexType uint8

const (
	TypeDefOrRef CodedIndexType = iota
	HasConstant
	HasCustomAttribute
	HasFieldMarshal
	HasDeclSecurity
	MemberRefParent
	HasSemantics
	MethodDefOrRef
	MemberForwarded
	Implementation
	CustomAttributeType
	ResolutionScope
	TypeOrMethodDef
	HasCustomDebugInformation
	codedIndexTypeCount
)

type codedIndexInfo struct {
	name   string
	tables []TableID
}

var hasCustomAttributeTables = []TableID{
	MethodDef, Field, TypeRef, TypeDef, Param, InterfaceImpl, MemberRef, Module,
	DeclSecurity, Property, Event, StandAloneSig, ModuleRef, TypeSpec, Assembly,
	AssemblyRef, File, ExportedType, ManifestResource, GenericParam,
	GenericParamConstraint, MethodSpec,
}

var hasCustomDebugInformationTables = append(append([]TableID{}, hasCustomAttributeTables...),
	Document, LocalScope, LocalVariable, LocalConstant, ImportScope)

// codedIndexes holds the ordered participating tables for each kind. The
// position of a table in its list is its tag value. CustomAttributeType only
// uses tags 2 (MethodDef) and 3 (MemberRef).
var codedIndexes = [codedIndexTypeCount]codedIndexInfo{
	TypeDefOrRef:              {"TypeDefOrRef", []TableID{TypeDef, TypeRef, TypeSpec}},
	HasConstant:               {"HasConstant", []TableID{Field, Param, Property}},
	HasCustomAttribute:        {"HasCustomAttribute", hasCustomAttributeTables},
	HasFieldMarshal:           {"HasFieldMarshal", []TableID{Field, Param}},
	HasDeclSecurity:           {"HasDeclSecurity", []TableID{TypeDef, MethodDef, Assembly}},
	MemberRefParent:           {"MemberRefParent", []TableID{TypeDef, TypeRef, ModuleRef, MethodDef, TypeSpec}},
	HasSemantics:              {"HasSemantics", []TableID{Event, Property}},
	MethodDefOrRef:            {"MethodDefOrRef", []TableID{MethodDef, MemberRef}},
	MemberForwarded:           {"MemberForwarded", []TableID{Field, MethodDef}},
	Implementation:            {"Implementation", []TableID{File, AssemblyRef, ExportedType}},
	CustomAttributeType:       {"CustomAttributeType", []TableID{MethodDef, MethodDef, MethodDef, MemberRef, MemberRef}},
	ResolutionScope:           {"ResolutionScope", []TableID{Module, ModuleRef, AssemblyRef, TypeRef}},
	TypeOrMethodDef:           {"TypeOrMethodDef", []TableID{TypeDef, MethodDef}},
	HasCustomDebugInformation: {"HasCustomDebugInformation", hasCustomDebugInformationTables},
}

// String returns the coded index name.
func (k CodedIndexType) String() string {
	if k < codedIndexTypeCount {
		return codedIndexes[k].name
	}
	return fmt.Sprintf("CodedIndexType(%d)", uint8(k))
}

// Tables returns the ordered participating tables.
func (k CodedIndexType) Tables() []TableID {
	return codedIndexes[k].tables
}

// TagBits returns ceil(log2(len(Tables()))).
func (k CodedIndexType) TagBits() uint {
	n := len(codedIndexes[k].tables)
	return uint(bits.Len(uint(n - 1)))
}

// tagOf returns the tag for table. CustomAttributeType maps to its real tags.
func (k CodedIndexType) tagOf(table TableID) (uint32, bool) {
	if k == CustomAttributeType {
		switch table {
		case MethodDef:
			return 2, true
		case MemberRef:
			return 3, true
		}
		return 0, false
	}
	for i, t := range codedIndexes[k].tables {
		if t == table {
			return uint32(i), true
		}
	}
	return 0, false
}

// Contains reports whether table participates in k.
func (k CodedIndexType) Contains(table TableID) bool {
	_, ok := k.tagOf(table)
	return ok
}

// CodedIndex is a decoded reference into one of the tables of Kind.
type CodedIndex struct {
	Tag  TableID
	Row  uint32
	Kind CodedIndexType
}

// NewCodedIndex builds a coded index referencing row of table.
func NewCodedIndex(kind CodedIndexType, table TableID, row uint32) CodedIndex {
	return CodedIndex{Tag: table, Row: row, Kind: kind}
}

// CodedFromToken builds a coded index from a token.
func CodedFromToken(kind CodedIndexType, tok Token) CodedIndex {
	return CodedIndex{Tag: tok.Table(), Row: tok.RID(), Kind: kind}
}

// Token returns the referenced row as a token.
func (c CodedIndex) Token() Token {
	return NewToken(c.Tag, c.Row)
}

// IsNull reports whether the index references no row.
func (c CodedIndex) IsNull() bool {
	return c.Row == 0
}

func (c CodedIndex) String() string {
	return fmt.Sprintf("%s(%s[%d])", c.Kind, c.Tag, c.Row)
}

// EncodeCodedIndex packs table and row into the coded representation of kind.
func EncodeCodedIndex(kind CodedIndexType, table TableID, row uint32) (uint32, error) {
	tag, ok := kind.tagOf(table)
	if !ok {
		return 0, errors.New(errors.PhaseBuild, errors.KindMalformed).
			Field(kind.String()).
			Detail("table %s is not part of %s", table, kind).
			Build()
	}
	tagBits := kind.TagBits()
	if row > (uint32(0xFFFFFFFF) >> tagBits) {
		return 0, errors.Overflow(errors.PhaseBuild, kind.String(), row, 4)
	}
	return row<<tagBits | tag, nil
}

// DecodeCodedIndex unpacks a coded value of kind.
func DecodeCodedIndex(kind CodedIndexType, value uint32) (CodedIndex, error) {
	tagBits := kind.TagBits()
	tag := value & (1<<tagBits - 1)
	list := codedIndexes[kind].tables
	if int(tag) >= len(list) || (kind == CustomAttributeType && tag != 2 && tag != 3) {
		return CodedIndex{}, errors.New(errors.PhaseRead, errors.KindMalformed).
			Field(kind.String()).
			Value(value).
			Detail("tag %d out of range", tag).
			Build()
	}
	return CodedIndex{Tag: list[tag], Row: value >> tagBits, Kind: kind}, nil
}

// CodedIndexTypes returns every coded index kind.
func CodedIndexTypes() []CodedIndexType {
	out := make([]CodedIndexType, codedIndexTypeCount)
	for i := range out {
		out[i] = CodedIndexType(i)
	}
	return out
}
