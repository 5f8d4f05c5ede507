// Package testimage assembles small metadata roots for tests.
package testimage

import (
	"github.com/google/uuid"

	"github.com/wippyai/cilmeta/heaps"
	"github.com/wippyai/cilmeta/root"
	"github.com/wippyai/cilmeta/tables"
)

// Version is the runtime version written into every root.
const Version = "v4.0.30319"

// Image accumulates heaps and rows. Zero values are not usable; call New.
type Image struct {
	Rows map[tables.TableID][]tables.Row

	strings     []byte
	stringAt    map[string]uint32
	blob        []byte
	guids       []uuid.UUID
	userStrings []byte
}

func New() *Image {
	return &Image{
		Rows:        make(map[tables.TableID][]tables.Row),
		strings:     []byte{0},
		stringAt:    map[string]uint32{"": 0},
		blob:        []byte{0},
		userStrings: []byte{0},
	}
}

// Str interns s in #Strings.
func (im *Image) Str(s string) uint32 {
	if idx, ok := im.stringAt[s]; ok {
		return idx
	}
	idx := uint32(len(im.strings))
	im.strings = append(append(im.strings, s...), 0)
	im.stringAt[s] = idx
	return idx
}

// Blob appends b to #Blob.
func (im *Image) Blob(b []byte) uint32 {
	idx := uint32(len(im.blob))
	entry, err := heaps.EncodeBlob(b)
	if err != nil {
		panic(err)
	}
	im.blob = append(im.blob, entry...)
	return idx
}

// GUID appends g to #GUID and returns its slot.
func (im *Image) GUID(g uuid.UUID) uint32 {
	im.guids = append(im.guids, g)
	return uint32(len(im.guids))
}

// UserString appends s to #US.
func (im *Image) UserString(s string) uint32 {
	idx := uint32(len(im.userStrings))
	entry, err := heaps.EncodeUserString(s)
	if err != nil {
		panic(err)
	}
	im.userStrings = append(im.userStrings, entry...)
	return idx
}

// Add appends row to its table and returns the RID it gets.
func (im *Image) Add(row tables.Row) uint32 {
	id := row.TableID()
	im.Rows[id] = append(im.Rows[id], row)
	return uint32(len(im.Rows[id]))
}

// TablesStream encodes the #~ stream.
func (im *Image) TablesStream() ([]byte, error) {
	counts := make(map[tables.TableID]uint32, len(im.Rows))
	for id, list := range im.Rows {
		counts[id] = uint32(len(list))
	}
	var heapSizes uint8
	if tables.HeapLargeForSize(uint64(len(im.strings))) {
		heapSizes |= tables.HeapStringsLarge
	}
	if tables.HeapLargeForSize(uint64(len(im.blob))) {
		heapSizes |= tables.HeapBlobLarge
	}
	if tables.HeapLargeForSize(uint64(len(im.guids))) {
		heapSizes |= tables.HeapGUIDLarge
	}
	hdr := tables.Header{MajorVersion: 2, Reserved2: 1}
	return tables.Encode(hdr, tables.NewTableInfo(counts, heapSizes), im.Rows, nil)
}

// Bytes emits a complete metadata root.
func (im *Image) Bytes() ([]byte, error) {
	ts, err := im.TablesStream()
	if err != nil {
		return nil, err
	}
	guid := make([]byte, 0, 16*len(im.guids))
	for _, g := range im.guids {
		guid = append(guid, g[:]...)
	}
	streams := []root.Stream{
		{Name: root.StreamTables, Data: ts},
		{Name: root.StreamStrings, Data: pad4(im.strings)},
		{Name: root.StreamUserStrings, Data: pad4(im.userStrings)},
		{Name: root.StreamGUID, Data: guid},
		{Name: root.StreamBlob, Data: pad4(im.blob)},
	}
	data, _, err := root.New(Version).Emit(streams)
	return data, err
}

// MustBytes is Bytes that panics on error.
func (im *Image) MustBytes() []byte {
	data, err := im.Bytes()
	if err != nil {
		panic(err)
	}
	return data
}

func pad4(b []byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

// Signatures used by Sample.
var (
	FieldSigInt32    = []byte{0x06, 0x08}
	MethodSigVoid    = []byte{0x20, 0x00, 0x01}
	AttributeValue   = []byte{0x01, 0x00, 0x00, 0x00}
	PublicKeyToken   = []byte{0xb0, 0x3f, 0x5f, 0x7f, 0x11, 0xd5, 0x0a, 0x3a}
	SampleMvid       = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	SampleUserString = "hello"
)

// Sample returns a small library image:
//
//	AssemblyRef 1  System.Runtime 8.0.0.0
//	TypeRef 1      System.Object
//	TypeRef 2      System.Attribute
//	TypeDef 1      <Module>
//	TypeDef 2      Sample.Widget : Object   fields 1-2, method 1
//	TypeDef 3      Sample.Gadget : Widget   field 3, method 2
//	MemberRef 1    Attribute::.ctor
//	CustomAttribute 1 on TypeDef 2
func Sample() *Image {
	im := New()
	sig := im.Blob(FieldSigInt32)
	msig := im.Blob(MethodSigVoid)
	token := im.Blob(PublicKeyToken)
	value := im.Blob(AttributeValue)

	im.Add(&tables.ModuleRaw{Name: im.Str("sample.dll"), Mvid: im.GUID(SampleMvid)})
	im.Add(&tables.AssemblyRefRaw{
		MajorVersion:     8,
		PublicKeyOrToken: token,
		Name:             im.Str("System.Runtime"),
	})
	runtime := tables.NewCodedIndex(tables.ResolutionScope, tables.AssemblyRef, 1)
	im.Add(&tables.TypeRefRaw{ResolutionScope: runtime, TypeName: im.Str("Object"), TypeNamespace: im.Str("System")})
	im.Add(&tables.TypeRefRaw{ResolutionScope: runtime, TypeName: im.Str("Attribute"), TypeNamespace: im.Str("System")})

	im.Add(&tables.TypeDefRaw{TypeName: im.Str("<Module>"), FieldList: 1, MethodList: 1})
	im.Add(&tables.TypeDefRaw{
		Flags:         0x00100001,
		TypeName:      im.Str("Widget"),
		TypeNamespace: im.Str("Sample"),
		Extends:       tables.NewCodedIndex(tables.TypeDefOrRef, tables.TypeRef, 1),
		FieldList:     1,
		MethodList:    1,
	})
	im.Add(&tables.TypeDefRaw{
		Flags:         0x00100001,
		TypeName:      im.Str("Gadget"),
		TypeNamespace: im.Str("Sample"),
		Extends:       tables.NewCodedIndex(tables.TypeDefOrRef, tables.TypeDef, 2),
		FieldList:     3,
		MethodList:    2,
	})

	im.Add(&tables.FieldRaw{Flags: 0x0001, Name: im.Str("_count"), Signature: sig})
	im.Add(&tables.FieldRaw{Flags: 0x0001, Name: im.Str("_name"), Signature: sig})
	im.Add(&tables.FieldRaw{Flags: 0x0001, Name: im.Str("_size"), Signature: sig})

	im.Add(&tables.MethodDefRaw{Flags: 0x0086, Name: im.Str("Run"), Signature: msig, ParamList: 1})
	im.Add(&tables.MethodDefRaw{Flags: 0x1886, Name: im.Str(".ctor"), Signature: msig, ParamList: 2})
	im.Add(&tables.ParamRaw{Sequence: 1, Name: im.Str("value")})

	im.Add(&tables.MemberRefRaw{
		Class:     tables.NewCodedIndex(tables.MemberRefParent, tables.TypeRef, 2),
		Name:      im.Str(".ctor"),
		Signature: msig,
	})
	im.Add(&tables.CustomAttributeRaw{
		Parent: tables.NewCodedIndex(tables.HasCustomAttribute, tables.TypeDef, 2),
		Type:   tables.NewCodedIndex(tables.CustomAttributeType, tables.MemberRef, 1),
		Value:  value,
	})
	im.Add(&tables.AssemblyRaw{HashAlgID: 0x8004, MajorVersion: 1, Name: im.Str("sample")})
	im.UserString(SampleUserString)
	return im
}
