package assembly

import (
	"fmt"

	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/tables"
)

// Default TypeDef flags: public auto-layout class.
const defaultTypeDefFlags uint32 = 0x00100001

// TypeDefBuilder adds a TypeDef row. Name is required; the namespace
// defaults to the global namespace. The field and method lists default to
// the end of their tables, so the new type owns the members added after it.
type TypeDefBuilder struct {
	name       *string
	namespace  string
	flags      *uint32
	extends    *tables.Token
	fieldList  uint32
	methodList uint32
}

func NewTypeDefBuilder() *TypeDefBuilder { return &TypeDefBuilder{} }

func (b *TypeDefBuilder) Name(s string) *TypeDefBuilder {
	b.name = ptr(s)
	return b
}

func (b *TypeDefBuilder) Namespace(s string) *TypeDefBuilder {
	b.namespace = s
	return b
}

func (b *TypeDefBuilder) Flags(v uint32) *TypeDefBuilder {
	b.flags = ptr(v)
	return b
}

// Extends sets the base type (TypeDef, TypeRef or TypeSpec).
func (b *TypeDefBuilder) Extends(tok tables.Token) *TypeDefBuilder {
	b.extends = ptr(tok)
	return b
}

func (b *TypeDefBuilder) FieldList(rid uint32) *TypeDefBuilder {
	b.fieldList = rid
	return b
}

func (b *TypeDefBuilder) MethodList(rid uint32) *TypeDefBuilder {
	b.methodList = rid
	return b
}

func (b *TypeDefBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	const table = "TypeDef"
	if b.name == nil || *b.name == "" {
		return 0, errors.FieldMissing(table, "name")
	}
	extends := tables.NewCodedIndex(tables.TypeDefOrRef, tables.TypeRef, 0)
	if b.extends != nil {
		if err := requireCoded(table, "extends", *b.extends, tables.TypeDefOrRef); err != nil {
			return 0, err
		}
		extends = tables.CodedFromToken(tables.TypeDefOrRef, *b.extends)
	}
	flags := defaultTypeDefFlags
	if b.flags != nil {
		flags = *b.flags
	}
	fieldList, methodList := b.fieldList, b.methodList
	if fieldList == 0 {
		fieldList = ctx.NextRID(tables.Field)
	}
	if methodList == 0 {
		methodList = ctx.NextRID(tables.MethodDef)
	}
	if err := requireString(table, "name", *b.name); err != nil {
		return 0, err
	}
	if err := requireString(table, "namespace", b.namespace); err != nil {
		return 0, err
	}

	name, err := ctx.StringAdd(*b.name)
	if err != nil {
		return 0, err
	}
	ns, err := ctx.StringGetOrAdd(b.namespace)
	if err != nil {
		return 0, err
	}
	return ctx.TableRowAdd(tables.TypeDef, &tables.TypeDefRaw{
		Flags:         flags,
		TypeName:      name,
		TypeNamespace: ns,
		Extends:       extends,
		FieldList:     fieldList,
		MethodList:    methodList,
	})
}

// TypeRefBuilder adds a TypeRef row.
type TypeRefBuilder struct {
	name      *string
	namespace string
	scope     *tables.Token
}

func NewTypeRefBuilder() *TypeRefBuilder { return &TypeRefBuilder{} }

func (b *TypeRefBuilder) Name(s string) *TypeRefBuilder {
	b.name = ptr(s)
	return b
}

func (b *TypeRefBuilder) Namespace(s string) *TypeRefBuilder {
	b.namespace = s
	return b
}

// ResolutionScope sets the Module, ModuleRef, AssemblyRef or enclosing
// TypeRef that defines the type.
func (b *TypeRefBuilder) ResolutionScope(tok tables.Token) *TypeRefBuilder {
	b.scope = ptr(tok)
	return b
}

func (b *TypeRefBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	const table = "TypeRef"
	switch {
	case b.name == nil || *b.name == "":
		return 0, errors.FieldMissing(table, "name")
	case b.scope == nil:
		return 0, errors.FieldMissing(table, "resolution_scope")
	}
	if err := requireCoded(table, "resolution_scope", *b.scope, tables.ResolutionScope); err != nil {
		return 0, err
	}
	if err := requireString(table, "name", *b.name); err != nil {
		return 0, err
	}
	if err := requireString(table, "namespace", b.namespace); err != nil {
		return 0, err
	}
	name, err := ctx.StringGetOrAdd(*b.name)
	if err != nil {
		return 0, err
	}
	ns, err := ctx.StringGetOrAdd(b.namespace)
	if err != nil {
		return 0, err
	}
	return ctx.TableRowAdd(tables.TypeRef, &tables.TypeRefRaw{
		ResolutionScope: tables.CodedFromToken(tables.ResolutionScope, *b.scope),
		TypeName:        name,
		TypeNamespace:   ns,
	})
}

// signatureRow is shared by the tables whose only column is a signature blob.
type signatureRow struct {
	signature []byte
}

func (s *signatureRow) blob(ctx *BuilderContext, table string) (uint32, error) {
	if len(s.signature) == 0 {
		return 0, errors.FieldMissing(table, "signature")
	}
	if err := requireBlob(table, "signature", s.signature); err != nil {
		return 0, err
	}
	return ctx.BlobAdd(s.signature)
}

// TypeSpecBuilder adds a TypeSpec row.
type TypeSpecBuilder struct{ signatureRow }

func NewTypeSpecBuilder() *TypeSpecBuilder { return &TypeSpecBuilder{} }

func (b *TypeSpecBuilder) Signature(sig []byte) *TypeSpecBuilder {
	b.signature = sig
	return b
}

func (b *TypeSpecBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	sig, err := b.blob(ctx, "TypeSpec")
	if err != nil {
		return 0, err
	}
	return ctx.TableRowAdd(tables.TypeSpec, &tables.TypeSpecRaw{Signature: sig})
}

// StandAloneSigBuilder adds a StandAloneSig row.
type StandAloneSigBuilder struct{ signatureRow }

func NewStandAloneSigBuilder() *StandAloneSigBuilder { return &StandAloneSigBuilder{} }

func (b *StandAloneSigBuilder) Signature(sig []byte) *StandAloneSigBuilder {
	b.signature = sig
	return b
}

func (b *StandAloneSigBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	sig, err := b.blob(ctx, "StandAloneSig")
	if err != nil {
		return 0, err
	}
	return ctx.TableRowAdd(tables.StandAloneSig, &tables.StandAloneSigRaw{Signature: sig})
}

// FieldBuilder adds a Field row.
type FieldBuilder struct {
	name      *string
	flags     *uint16
	signature []byte
}

func NewFieldBuilder() *FieldBuilder { return &FieldBuilder{} }

func (b *FieldBuilder) Name(s string) *FieldBuilder {
	b.name = ptr(s)
	return b
}

func (b *FieldBuilder) Flags(v uint16) *FieldBuilder {
	b.flags = ptr(v)
	return b
}

func (b *FieldBuilder) Signature(sig []byte) *FieldBuilder {
	b.signature = sig
	return b
}

func (b *FieldBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	const table = "Field"
	switch {
	case b.name == nil || *b.name == "":
		return 0, errors.FieldMissing(table, "name")
	case b.flags == nil:
		return 0, errors.FieldMissing(table, "flags")
	case len(b.signature) == 0:
		return 0, errors.FieldMissing(table, "signature")
	}
	if err := requireString(table, "name", *b.name); err != nil {
		return 0, err
	}
	if err := requireBlob(table, "signature", b.signature); err != nil {
		return 0, err
	}
	name, err := ctx.StringGetOrAdd(*b.name)
	if err != nil {
		return 0, err
	}
	sig, err := ctx.BlobAdd(b.signature)
	if err != nil {
		return 0, err
	}
	return ctx.TableRowAdd(tables.Field, &tables.FieldRaw{Flags: *b.flags, Name: name, Signature: sig})
}

// MethodDefBuilder adds a MethodDef row. The parameter list defaults to the
// end of the Param table.
type MethodDefBuilder struct {
	name      *string
	flags     *uint16
	implFlags uint16
	signature []byte
	rva       uint32
	paramList uint32
}

func NewMethodDefBuilder() *MethodDefBuilder { return &MethodDefBuilder{} }

func (b *MethodDefBuilder) Name(s string) *MethodDefBuilder {
	b.name = ptr(s)
	return b
}

func (b *MethodDefBuilder) Flags(v uint16) *MethodDefBuilder {
	b.flags = ptr(v)
	return b
}

func (b *MethodDefBuilder) ImplFlags(v uint16) *MethodDefBuilder {
	b.implFlags = v
	return b
}

func (b *MethodDefBuilder) Signature(sig []byte) *MethodDefBuilder {
	b.signature = sig
	return b
}

// RVA sets the method body location. Zero means abstract or runtime-provided.
func (b *MethodDefBuilder) RVA(v uint32) *MethodDefBuilder {
	b.rva = v
	return b
}

func (b *MethodDefBuilder) ParamList(rid uint32) *MethodDefBuilder {
	b.paramList = rid
	return b
}

func (b *MethodDefBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	const table = "MethodDef"
	switch {
	case b.name == nil || *b.name == "":
		return 0, errors.FieldMissing(table, "name")
	case b.flags == nil:
		return 0, errors.FieldMissing(table, "flags")
	case len(b.signature) == 0:
		return 0, errors.FieldMissing(table, "signature")
	}
	paramList := b.paramList
	if paramList == 0 {
		paramList = ctx.NextRID(tables.Param)
	}
	if err := requireString(table, "name", *b.name); err != nil {
		return 0, err
	}
	if err := requireBlob(table, "signature", b.signature); err != nil {
		return 0, err
	}
	name, err := ctx.StringGetOrAdd(*b.name)
	if err != nil {
		return 0, err
	}
	sig, err := ctx.BlobAdd(b.signature)
	if err != nil {
		return 0, err
	}
	return ctx.TableRowAdd(tables.MethodDef, &tables.MethodDefRaw{
		RVA:       b.rva,
		ImplFlags: b.implFlags,
		Flags:     *b.flags,
		Name:      name,
		Signature: sig,
		ParamList: paramList,
	})
}

// ParamBuilder adds a Param row. Sequence 0 describes the return value.
type ParamBuilder struct {
	name     string
	flags    uint16
	sequence *uint16
}

func NewParamBuilder() *ParamBuilder { return &ParamBuilder{} }

func (b *ParamBuilder) Name(s string) *ParamBuilder {
	b.name = s
	return b
}

func (b *ParamBuilder) Flags(v uint16) *ParamBuilder {
	b.flags = v
	return b
}

func (b *ParamBuilder) Sequence(v uint16) *ParamBuilder {
	b.sequence = ptr(v)
	return b
}

func (b *ParamBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	if b.sequence == nil {
		return 0, errors.FieldMissing("Param", "sequence")
	}
	if err := requireString("Param", "name", b.name); err != nil {
		return 0, err
	}
	name, err := ctx.StringGetOrAdd(b.name)
	if err != nil {
		return 0, err
	}
	return ctx.TableRowAdd(tables.Param, &tables.ParamRaw{Flags: b.flags, Sequence: *b.sequence, Name: name})
}

// MemberRefBuilder adds a MemberRef row.
type MemberRefBuilder struct {
	class     *tables.Token
	name      *string
	signature []byte
}

func NewMemberRefBuilder() *MemberRefBuilder { return &MemberRefBuilder{} }

// Class sets the declaring TypeDef, TypeRef, ModuleRef, MethodDef or TypeSpec.
func (b *MemberRefBuilder) Class(tok tables.Token) *MemberRefBuilder {
	b.class = ptr(tok)
	return b
}

func (b *MemberRefBuilder) Name(s string) *MemberRefBuilder {
	b.name = ptr(s)
	return b
}

func (b *MemberRefBuilder) Signature(sig []byte) *MemberRefBuilder {
	b.signature = sig
	return b
}

func (b *MemberRefBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	const table = "MemberRef"
	switch {
	case b.class == nil:
		return 0, errors.FieldMissing(table, "class")
	case b.name == nil || *b.name == "":
		return 0, errors.FieldMissing(table, "name")
	case len(b.signature) == 0:
		return 0, errors.FieldMissing(table, "signature")
	}
	if err := requireCoded(table, "class", *b.class, tables.MemberRefParent); err != nil {
		return 0, err
	}
	if err := requireString(table, "name", *b.name); err != nil {
		return 0, err
	}
	if err := requireBlob(table, "signature", b.signature); err != nil {
		return 0, err
	}
	name, err := ctx.StringGetOrAdd(*b.name)
	if err != nil {
		return 0, err
	}
	sig, err := ctx.BlobAdd(b.signature)
	if err != nil {
		return 0, err
	}
	return ctx.TableRowAdd(tables.MemberRef, &tables.MemberRefRaw{
		Class:     tables.CodedFromToken(tables.MemberRefParent, *b.class),
		Name:      name,
		Signature: sig,
	})
}

// ModuleRefBuilder adds a ModuleRef row.
type ModuleRefBuilder struct {
	name *string
}

func NewModuleRefBuilder() *ModuleRefBuilder { return &ModuleRefBuilder{} }

func (b *ModuleRefBuilder) Name(s string) *ModuleRefBuilder {
	b.name = ptr(s)
	return b
}

func (b *ModuleRefBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	if b.name == nil || *b.name == "" {
		return 0, errors.FieldMissing("ModuleRef", "name")
	}
	if err := requireString("ModuleRef", "name", *b.name); err != nil {
		return 0, err
	}
	name, err := ctx.StringGetOrAdd(*b.name)
	if err != nil {
		return 0, err
	}
	return ctx.TableRowAdd(tables.ModuleRef, &tables.ModuleRefRaw{Name: name})
}

// AssemblyRef flag marking PublicKeyOrToken as a full public key.
const AssemblyRefFlagPublicKey uint32 = 0x0001

// AssemblyRefBuilder adds an AssemblyRef row.
type AssemblyRefBuilder struct {
	name      *string
	version   [4]uint16
	flags     uint32
	publicKey []byte
	culture   string
	hashValue []byte
}

func NewAssemblyRefBuilder() *AssemblyRefBuilder { return &AssemblyRefBuilder{} }

func (b *AssemblyRefBuilder) Name(s string) *AssemblyRefBuilder {
	b.name = ptr(s)
	return b
}

func (b *AssemblyRefBuilder) Version(major, minor, build, revision uint16) *AssemblyRefBuilder {
	b.version = [4]uint16{major, minor, build, revision}
	return b
}

func (b *AssemblyRefBuilder) Flags(v uint32) *AssemblyRefBuilder {
	b.flags = v
	return b
}

// PublicKey sets a full public key and marks the flags accordingly.
func (b *AssemblyRefBuilder) PublicKey(key []byte) *AssemblyRefBuilder {
	b.publicKey = key
	b.flags |= AssemblyRefFlagPublicKey
	return b
}

// PublicKeyToken sets an 8-byte public key token.
func (b *AssemblyRefBuilder) PublicKeyToken(tok []byte) *AssemblyRefBuilder {
	b.publicKey = tok
	b.flags &^= AssemblyRefFlagPublicKey
	return b
}

func (b *AssemblyRefBuilder) Culture(s string) *AssemblyRefBuilder {
	b.culture = s
	return b
}

func (b *AssemblyRefBuilder) HashValue(h []byte) *AssemblyRefBuilder {
	b.hashValue = h
	return b
}

func (b *AssemblyRefBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	const table = "AssemblyRef"
	if b.name == nil || *b.name == "" {
		return 0, errors.FieldMissing(table, "name")
	}
	if b.flags&AssemblyRefFlagPublicKey == 0 && len(b.publicKey) != 0 && len(b.publicKey) != 8 {
		return 0, errors.InvalidOperation(table, "public_key_or_token",
			fmt.Sprintf("public key token must be 8 bytes, got %d", len(b.publicKey)))
	}
	if err := requireString(table, "name", *b.name); err != nil {
		return 0, err
	}
	if err := requireString(table, "culture", b.culture); err != nil {
		return 0, err
	}
	if err := requireBlob(table, "public_key_or_token", b.publicKey); err != nil {
		return 0, err
	}
	if err := requireBlob(table, "hash_value", b.hashValue); err != nil {
		return 0, err
	}
	name, err := ctx.StringGetOrAdd(*b.name)
	if err != nil {
		return 0, err
	}
	culture, err := ctx.StringGetOrAdd(b.culture)
	if err != nil {
		return 0, err
	}
	key, err := ctx.BlobGetOrAdd(b.publicKey)
	if err != nil {
		return 0, err
	}
	hash, err := ctx.BlobGetOrAdd(b.hashValue)
	if err != nil {
		return 0, err
	}
	return ctx.TableRowAdd(tables.AssemblyRef, &tables.AssemblyRefRaw{
		MajorVersion:     b.version[0],
		MinorVersion:     b.version[1],
		BuildNumber:      b.version[2],
		RevisionNumber:   b.version[3],
		Flags:            b.flags,
		PublicKeyOrToken: key,
		Name:             name,
		Culture:          culture,
		HashValue:        hash,
	})
}

// File flag for a file that carries no metadata.
const FileContainsNoMetadata uint32 = 0x0001

// FileBuilder adds a File row.
type FileBuilder struct {
	name      *string
	flags     uint32
	hashValue []byte
}

func NewFileBuilder() *FileBuilder { return &FileBuilder{} }

func (b *FileBuilder) Name(s string) *FileBuilder {
	b.name = ptr(s)
	return b
}

func (b *FileBuilder) Flags(v uint32) *FileBuilder {
	b.flags = v
	return b
}

func (b *FileBuilder) HashValue(h []byte) *FileBuilder {
	b.hashValue = h
	return b
}

func (b *FileBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	const table = "File"
	if b.name == nil || *b.name == "" {
		return 0, errors.FieldMissing(table, "name")
	}
	if b.flags&^FileContainsNoMetadata != 0 {
		return 0, errors.InvalidOperation(table, "flags", fmt.Sprintf("unknown flags 0x%x", b.flags))
	}
	if err := requireString(table, "name", *b.name); err != nil {
		return 0, err
	}
	if err := requireBlob(table, "hash_value", b.hashValue); err != nil {
		return 0, err
	}
	name, err := ctx.StringGetOrAdd(*b.name)
	if err != nil {
		return 0, err
	}
	hash, err := ctx.BlobGetOrAdd(b.hashValue)
	if err != nil {
		return 0, err
	}
	return ctx.TableRowAdd(tables.File, &tables.FileRaw{Flags: b.flags, Name: name, HashValue: hash})
}

// ExportedTypeBuilder adds an ExportedType row.
type ExportedTypeBuilder struct {
	name           *string
	namespace      string
	flags          uint32
	typeDefID      uint32
	implementation *tables.Token
}

func NewExportedTypeBuilder() *ExportedTypeBuilder { return &ExportedTypeBuilder{} }

func (b *ExportedTypeBuilder) Name(s string) *ExportedTypeBuilder {
	b.name = ptr(s)
	return b
}

func (b *ExportedTypeBuilder) Namespace(s string) *ExportedTypeBuilder {
	b.namespace = s
	return b
}

func (b *ExportedTypeBuilder) Flags(v uint32) *ExportedTypeBuilder {
	b.flags = v
	return b
}

// TypeDefID sets the hint into the defining module's TypeDef table.
func (b *ExportedTypeBuilder) TypeDefID(v uint32) *ExportedTypeBuilder {
	b.typeDefID = v
	return b
}

// Implementation sets the File, AssemblyRef or enclosing ExportedType.
func (b *ExportedTypeBuilder) Implementation(tok tables.Token) *ExportedTypeBuilder {
	b.implementation = ptr(tok)
	return b
}

func (b *ExportedTypeBuilder) Build(ctx *BuilderContext) (tables.Token, error) {
	const table = "ExportedType"
	switch {
	case b.name == nil || *b.name == "":
		return 0, errors.FieldMissing(table, "name")
	case b.implementation == nil:
		return 0, errors.FieldMissing(table, "implementation")
	}
	if err := requireCoded(table, "implementation", *b.implementation, tables.Implementation); err != nil {
		return 0, err
	}
	if err := requireString(table, "name", *b.name); err != nil {
		return 0, err
	}
	if err := requireString(table, "namespace", b.namespace); err != nil {
		return 0, err
	}
	name, err := ctx.StringGetOrAdd(*b.name)
	if err != nil {
		return 0, err
	}
	ns, err := ctx.StringGetOrAdd(b.namespace)
	if err != nil {
		return 0, err
	}
	return ctx.TableRowAdd(tables.ExportedType, &tables.ExportedTypeRaw{
		Flags:          b.flags,
		TypeDefID:      b.typeDefID,
		TypeName:       name,
		TypeNamespace:  ns,
		Implementation: tables.CodedFromToken(tables.Implementation, *b.implementation),
	})
}
