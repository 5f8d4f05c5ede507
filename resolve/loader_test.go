package resolve

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/heaps"
	"github.com/wippyai/cilmeta/tables"
)

// strs packs names into a #Strings heap and returns each name's offset.
type strs struct {
	data []byte
	at   map[string]uint32
}

func newStrs(names ...string) *strs {
	s := &strs{data: []byte{0}, at: map[string]uint32{"": 0}}
	for _, n := range names {
		s.at[n] = uint32(len(s.data))
		s.data = append(append(s.data, n...), 0)
	}
	return s
}

var mvid = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// blob heap: 1 = method sig, 5 = field sig, 8 = attribute value
var testBlob = []byte{0, 3, 0x20, 0x00, 0x01, 2, 0x06, 0x08, 4, 0x01, 0x00, 0x00, 0x00}

type image struct {
	rows map[tables.TableID][]tables.Row
	s    *strs
}

func baseImage() *image {
	s := newStrs("<Module>", "test.dll", "System", "Object", "Derived", "Base",
		"Ns", "Outer", "Inner", "System.Runtime", "_a", "_b", "Attr", ".ctor", "Run")
	n := s.at
	rows := map[tables.TableID][]tables.Row{
		tables.Module: {&tables.ModuleRaw{Name: n["test.dll"], Mvid: 1}},
		tables.TypeRef: {
			&tables.TypeRefRaw{ResolutionScope: tables.NewCodedIndex(tables.ResolutionScope, tables.AssemblyRef, 1), TypeName: n["Object"], TypeNamespace: n["System"]},
			&tables.TypeRefRaw{ResolutionScope: tables.NewCodedIndex(tables.ResolutionScope, tables.AssemblyRef, 1), TypeName: n["Attr"], TypeNamespace: n["System"]},
		},
		tables.TypeDef: {
			&tables.TypeDefRaw{TypeName: n["<Module>"], FieldList: 1, MethodList: 1},
			// extends a TypeDef that appears later in the table
			&tables.TypeDefRaw{TypeName: n["Derived"], TypeNamespace: n["Ns"], Extends: tables.NewCodedIndex(tables.TypeDefOrRef, tables.TypeDef, 3), FieldList: 1, MethodList: 1},
			&tables.TypeDefRaw{TypeName: n["Base"], TypeNamespace: n["Ns"], Extends: tables.NewCodedIndex(tables.TypeDefOrRef, tables.TypeRef, 1), FieldList: 2, MethodList: 2},
		},
		tables.Field: {
			&tables.FieldRaw{Flags: 0x0001, Name: n["_a"], Signature: 5},
			&tables.FieldRaw{Flags: 0x0001, Name: n["_b"], Signature: 5},
		},
		tables.MethodDef: {
			&tables.MethodDefRaw{Flags: 0x0006, Name: n["Run"], Signature: 1, ParamList: 1},
		},
		tables.MemberRef: {
			&tables.MemberRefRaw{Class: tables.NewCodedIndex(tables.MemberRefParent, tables.TypeRef, 2), Name: n[".ctor"], Signature: 1},
		},
		tables.CustomAttribute: {
			&tables.CustomAttributeRaw{
				Parent: tables.NewCodedIndex(tables.HasCustomAttribute, tables.TypeDef, 2),
				Type:   tables.NewCodedIndex(tables.CustomAttributeType, tables.MemberRef, 1),
				Value:  8,
			},
		},
		tables.AssemblyRef: {
			&tables.AssemblyRefRaw{MajorVersion: 8, Name: n["System.Runtime"]},
		},
		tables.ExportedType: {
			// nested forwarder whose enclosing forwarder comes later
			&tables.ExportedTypeRaw{TypeName: n["Inner"], Implementation: tables.NewCodedIndex(tables.Implementation, tables.ExportedType, 2)},
			&tables.ExportedTypeRaw{TypeName: n["Outer"], TypeNamespace: n["Ns"], Implementation: tables.NewCodedIndex(tables.Implementation, tables.AssemblyRef, 1)},
		},
	}
	return &image{rows: rows, s: s}
}

func (im *image) load(t *testing.T, opts Options) (*Result, error) {
	t.Helper()
	counts := make(map[tables.TableID]uint32)
	for id, list := range im.rows {
		counts[id] = uint32(len(list))
	}
	data, err := tables.Encode(tables.Header{MajorVersion: 2}, tables.NewTableInfo(counts, 0), im.rows, nil)
	require.NoError(t, err)
	ts, err := tables.Parse(data)
	require.NoError(t, err)
	hs := heaps.NewSet(im.s.data, testBlob, mvid[:], nil)
	return Load(context.Background(), ts, hs, opts)
}

func tok(table tables.TableID, rid uint32) tables.Token {
	return tables.NewToken(table, rid)
}

func TestLoadResolvesForwardReferences(t *testing.T) {
	res, err := baseImage().load(t, Options{Workers: 2})
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	reg := res.Registry

	mod, ok := reg.Module()
	require.True(t, ok)
	assert.Equal(t, "test.dll", mod.Name)
	assert.Equal(t, mvid, mod.Mvid)

	derived, ok := reg.TypeDefs.Get(tok(tables.TypeDef, 2))
	require.True(t, ok)
	base, ok := reg.TypeDefs.Get(tok(tables.TypeDef, 3))
	require.True(t, ok)

	ext, ok := derived.Extends.Get()
	require.True(t, ok, "forward Extends must be filled in pass 2")
	assert.Same(t, base, ext)

	object, ok := base.Extends.Get()
	require.True(t, ok)
	assert.Equal(t, "System.Object", object.(*TypeRef).FullName())

	scope, ok := object.(*TypeRef).Scope.Get()
	require.True(t, ok)
	assert.Equal(t, "System.Runtime", scope.(*AssemblyRef).Name)
	assert.Equal(t, uint16(8), scope.(*AssemblyRef).Version.Major)

	inner, ok := reg.ExportedTypes.Get(tok(tables.ExportedType, 1))
	require.True(t, ok)
	assert.Equal(t, "Ns.Outer/Inner", inner.FullName())
}

func TestLoadListRanges(t *testing.T) {
	res, err := baseImage().load(t, Options{})
	require.NoError(t, err)
	reg := res.Registry

	module, _ := reg.TypeDefs.Get(tok(tables.TypeDef, 1))
	derived, _ := reg.TypeDefs.Get(tok(tables.TypeDef, 2))
	base, _ := reg.TypeDefs.Get(tok(tables.TypeDef, 3))

	assert.Empty(t, module.Fields)
	require.Len(t, derived.Fields, 1)
	assert.Equal(t, "_a", derived.Fields[0].Name)
	require.Len(t, base.Fields, 1)
	assert.Equal(t, "_b", base.Fields[0].Name)
	assert.Equal(t, []byte{0x06, 0x08}, base.Fields[0].Signature)

	require.Len(t, derived.Methods, 1)
	assert.Equal(t, "Run", derived.Methods[0].Name)
	assert.Empty(t, base.Methods)

	owner, ok := derived.Fields[0].DeclaringType.Get()
	require.True(t, ok)
	assert.Same(t, derived, owner)
}

func TestLoadCustomAttributes(t *testing.T) {
	res, err := baseImage().load(t, Options{})
	require.NoError(t, err)

	derived, _ := res.Registry.TypeDefs.Get(tok(tables.TypeDef, 2))
	attrs := derived.CustomAttributes()
	require.Len(t, attrs, 1)
	ctor, ok := attrs[0].Constructor.(*MemberRef)
	require.True(t, ok)
	assert.Equal(t, ".ctor", ctor.Name)
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, attrs[0].Value)

	e, ok := res.Registry.Lookup(tok(tables.CustomAttribute, 1))
	require.True(t, ok)
	assert.Same(t, attrs[0], e)
}

func TestLoadApplyTables(t *testing.T) {
	im := baseImage()
	im.rows[tables.ClassLayout] = []tables.Row{&tables.ClassLayoutRaw{PackingSize: 8, ClassSize: 32, Parent: 3}}
	im.rows[tables.FieldLayout] = []tables.Row{&tables.FieldLayoutRaw{FieldOffset: 4, Field: 2}}
	im.rows[tables.NestedClass] = []tables.Row{&tables.NestedClassRaw{NestedClass: 3, EnclosingClass: 2}}
	im.rows[tables.InterfaceImpl] = []tables.Row{&tables.InterfaceImplRaw{Class: 2, Interface: tables.NewCodedIndex(tables.TypeDefOrRef, tables.TypeRef, 2)}}
	im.rows[tables.Constant] = []tables.Row{&tables.ConstantRaw{Type: 0x08, Parent: tables.NewCodedIndex(tables.HasConstant, tables.Field, 1), Value: 8}}
	im.rows[tables.AssemblyRefProcessor] = []tables.Row{&tables.AssemblyRefProcessorRaw{Processor: 0x14c, AssemblyRef: 1}}

	res, err := im.load(t, Options{})
	require.NoError(t, err)
	reg := res.Registry

	derived, _ := reg.TypeDefs.Get(tok(tables.TypeDef, 2))
	base, _ := reg.TypeDefs.Get(tok(tables.TypeDef, 3))

	assert.Equal(t, uint32(32), base.ClassSize.Value())
	assert.Equal(t, uint16(8), base.PackingSize.Value())
	assert.False(t, derived.ClassSize.IsSet())

	assert.Equal(t, uint32(4), base.Fields[0].Offset.Value())

	outer, ok := base.EnclosingType.Get()
	require.True(t, ok)
	assert.Same(t, derived, outer)
	assert.Equal(t, []*TypeDef{base}, derived.Nested.Items())
	assert.Equal(t, "Ns.Derived/Base", base.FullName())

	ifaces := derived.Interfaces.Items()
	require.Len(t, ifaces, 1)
	assert.Equal(t, "Attr", ifaces[0].Interface.(*TypeRef).Name)

	c, ok := derived.Fields[0].Default.Get()
	require.True(t, ok)
	assert.Equal(t, uint8(0x08), c.Type)

	ref, _ := reg.AssemblyRefs.Get(tok(tables.AssemblyRef, 1))
	assert.Equal(t, uint32(0x14c), ref.Processor.Value())
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(im *image)
		token tables.Token
		field string
	}{
		{
			name: "duplicate class layout",
			edit: func(im *image) {
				im.rows[tables.ClassLayout] = []tables.Row{
					&tables.ClassLayoutRaw{PackingSize: 4, Parent: 2},
					&tables.ClassLayoutRaw{PackingSize: 8, Parent: 2},
				}
			},
			token: tok(tables.ClassLayout, 2),
			field: "ClassSize",
		},
		{
			name: "packing size not a power of two",
			edit: func(im *image) {
				im.rows[tables.ClassLayout] = []tables.Row{&tables.ClassLayoutRaw{PackingSize: 3, Parent: 2}}
			},
			token: tok(tables.ClassLayout, 1),
			field: "PackingSize",
		},
		{
			name: "unresolved base type",
			edit: func(im *image) {
				im.rows[tables.TypeDef][2].(*tables.TypeDefRaw).Extends = tables.NewCodedIndex(tables.TypeDefOrRef, tables.TypeRef, 9)
			},
			token: tok(tables.TypeDef, 3),
			field: "Extends",
		},
		{
			name: "type enclosing itself",
			edit: func(im *image) {
				im.rows[tables.NestedClass] = []tables.Row{&tables.NestedClassRaw{NestedClass: 2, EnclosingClass: 2}}
			},
			token: tok(tables.NestedClass, 1),
			field: "EnclosingClass",
		},
		{
			name: "string index past heap",
			edit: func(im *image) {
				im.rows[tables.Field][0].(*tables.FieldRaw).Name = 4000
			},
			token: tok(tables.Field, 1),
			field: "Name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im := baseImage()
			tt.edit(im)

			_, err := im.load(t, Options{})
			require.Error(t, err)
			var e *errors.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, errors.KindMalformed, e.Kind)
			assert.Equal(t, uint32(tt.token), e.Token)
			assert.Equal(t, tt.field, e.Field)
		})
	}
}

func TestLoadSkipMalformedCollects(t *testing.T) {
	im := baseImage()
	im.rows[tables.ClassLayout] = []tables.Row{
		&tables.ClassLayoutRaw{PackingSize: 3, Parent: 2},
		&tables.ClassLayoutRaw{PackingSize: 16, Parent: 3},
	}

	res, err := im.load(t, Options{SkipMalformed: true})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.True(t, errors.Is(res.Errors[0], &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindMalformed}))

	base, _ := res.Registry.TypeDefs.Get(tok(tables.TypeDef, 3))
	assert.Equal(t, uint16(16), base.PackingSize.Value())
	derived, _ := res.Registry.TypeDefs.Get(tok(tables.TypeDef, 2))
	assert.False(t, derived.PackingSize.IsSet())
}

func TestLoadFieldPointerIndirection(t *testing.T) {
	im := baseImage()
	// Derived owns pointer 1 -> Field 2, Base owns pointer 2 -> Field 1.
	im.rows[tables.FieldPtr] = []tables.Row{
		&tables.FieldPtrRaw{Field: 2},
		&tables.FieldPtrRaw{Field: 1},
	}

	res, err := im.load(t, Options{})
	require.NoError(t, err)
	derived, _ := res.Registry.TypeDefs.Get(tok(tables.TypeDef, 2))
	require.Len(t, derived.Fields, 1)
	assert.Equal(t, "_b", derived.Fields[0].Name)
}

func TestLoadCancelled(t *testing.T) {
	im := baseImage()
	counts := make(map[tables.TableID]uint32)
	for id, list := range im.rows {
		counts[id] = uint32(len(list))
	}
	data, err := tables.Encode(tables.Header{MajorVersion: 2}, tables.NewTableInfo(counts, 0), im.rows, nil)
	require.NoError(t, err)
	ts, err := tables.Parse(data)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Load(ctx, ts, heaps.NewSet(im.s.data, testBlob, mvid[:], nil), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistryLookupFallsBackToRowRef(t *testing.T) {
	res, err := baseImage().load(t, Options{})
	require.NoError(t, err)
	_, ok := res.Registry.Lookup(tok(tables.ClassLayout, 1))
	assert.False(t, ok, "decorating tables have no owned entities")

	td, ok := res.Registry.FindTypeDef("Ns", "Base")
	require.True(t, ok)
	assert.Equal(t, tok(tables.TypeDef, 3), td.Token())
	_, ok = res.Registry.FindTypeRef("System", "Missing")
	assert.False(t, ok)
}

func TestLoadDeclSecurityPerAction(t *testing.T) {
	im := baseImage()
	im.rows[tables.DeclSecurity] = []tables.Row{
		&tables.DeclSecurityRaw{Action: 2, Parent: tables.NewCodedIndex(tables.HasDeclSecurity, tables.TypeDef, 2), PermissionSet: 8},
		&tables.DeclSecurityRaw{Action: 6, Parent: tables.NewCodedIndex(tables.HasDeclSecurity, tables.TypeDef, 2), PermissionSet: 8},
	}

	res, err := im.load(t, Options{})
	require.NoError(t, err)
	derived, _ := res.Registry.TypeDefs.Get(tok(tables.TypeDef, 2))
	sec := derived.Security.Items()
	require.Len(t, sec, 2)
	assert.Equal(t, uint16(2), sec[0].Action)
	assert.Equal(t, uint16(6), sec[1].Action)
	assert.Same(t, derived, sec[0].Parent)
}

func TestLoadRepeatedAssemblyOSKeepsFirst(t *testing.T) {
	im := baseImage()
	im.rows[tables.Assembly] = []tables.Row{&tables.AssemblyRaw{MajorVersion: 1, Name: im.s.at["test.dll"]}}
	im.rows[tables.AssemblyOS] = []tables.Row{
		&tables.AssemblyOSRaw{OSPlatformID: 2, OSMajorVersion: 5},
		&tables.AssemblyOSRaw{OSPlatformID: 1, OSMajorVersion: 4},
	}
	im.rows[tables.AssemblyProcessor] = []tables.Row{
		&tables.AssemblyProcessorRaw{Processor: 0x14c},
		&tables.AssemblyProcessorRaw{Processor: 0x8664},
	}

	res, err := im.load(t, Options{})
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	asm, ok := res.Registry.Assemblies.Get(tok(tables.Assembly, 1))
	require.True(t, ok)
	assert.Equal(t, uint32(2), asm.OS.Value().PlatformID)
	assert.Equal(t, uint32(0x14c), asm.Processor.Value())
}
