package tables

import "fmt"

// TableID identifies a metadata table. Values 0x00-0x2C are the ECMA-335
// tables, 0x30-0x37 the Portable PDB tables.
type TableID uint8

const (
	Module                 TableID = 0x00
	TypeRef                TableID = 0x01
	TypeDef                TableID = 0x02
	FieldPtr               TableID = 0x03
	Field                  TableID = 0x04
	MethodPtr              TableID = 0x05
	MethodDef              TableID = 0x06
	ParamPtr               TableID = 0x07
	Param                  TableID = 0x08
	InterfaceImpl          TableID = 0x09
	MemberRef              TableID = 0x0A
	Constant               TableID = 0x0B
	CustomAttribute        TableID = 0x0C
	FieldMarshal           TableID = 0x0D
	DeclSecurity           TableID = 0x0E
	ClassLayout            TableID = 0x0F
	FieldLayout            TableID = 0x10
	StandAloneSig          TableID = 0x11
	EventMap               TableID = 0x12
	EventPtr               TableID = 0x13
	Event                  TableID = 0x14
	PropertyMap            TableID = 0x15
	PropertyPtr            TableID = 0x16
	Property               TableID = 0x17
	MethodSemantics        TableID = 0x18
	MethodImpl             TableID = 0x19
	ModuleRef              TableID = 0x1A
	TypeSpec               TableID = 0x1B
	ImplMap                TableID = 0x1C
	FieldRVA               TableID = 0x1D
	EncLog                 TableID = 0x1E
	EncMap                 TableID = 0x1F
	Assembly               TableID = 0x20
	AssemblyProcessor      TableID = 0x21
	AssemblyOS             TableID = 0x22
	AssemblyRef            TableID = 0x23
	AssemblyRefProcessor   TableID = 0x24
	AssemblyRefOS          TableID = 0x25
	File                   TableID = 0x26
	ExportedType           TableID = 0x27
	ManifestResource       TableID = 0x28
	NestedClass            TableID = 0x29
	GenericParam           TableID = 0x2A
	MethodSpec             TableID = 0x2B
	GenericParamConstraint TableID = 0x2C

	Document               TableID = 0x30
	MethodDebugInformation TableID = 0x31
	LocalScope             TableID = 0x32
	LocalVariable          TableID = 0x33
	LocalConstant          TableID = 0x34
	ImportScope            TableID = 0x35
	StateMachineMethod     TableID = 0x36
	CustomDebugInformation TableID = 0x37
)

// MaxTables is the number of bits in the tables-stream valid mask.
const MaxTables = 64

var tableNames = map[TableID]string{
	Module:                 "Module",
	TypeRef:                "TypeRef",
	TypeDef:                "TypeDef",
	FieldPtr:               "FieldPtr",
	Field:                  "Field",
	MethodPtr:              "MethodPtr",
	MethodDef:              "MethodDef",
	ParamPtr:               "ParamPtr",
	Param:                  "Param",
	InterfaceImpl:          "InterfaceImpl",
	MemberRef:              "MemberRef",
	Constant:               "Constant",
	CustomAttribute:        "CustomAttribute",
	FieldMarshal:           "FieldMarshal",
	DeclSecurity:           "DeclSecurity",
	ClassLayout:            "ClassLayout",
	FieldLayout:            "FieldLayout",
	StandAloneSig:          "StandAloneSig",
	EventMap:               "EventMap",
	EventPtr:               "EventPtr",
	Event:                  "Event",
	PropertyMap:            "PropertyMap",
	PropertyPtr:            "PropertyPtr",
	Property:               "Property",
	MethodSemantics:        "MethodSemantics",
	MethodImpl:             "MethodImpl",
	ModuleRef:              "ModuleRef",
	TypeSpec:               "TypeSpec",
	ImplMap:                "ImplMap",
	FieldRVA:               "FieldRVA",
	EncLog:                 "EncLog",
	EncMap:                 "EncMap",
	Assembly:               "Assembly",
	AssemblyProcessor:      "AssemblyProcessor",
	AssemblyOS:             "AssemblyOS",
	AssemblyRef:            "AssemblyRef",
	AssemblyRefProcessor:   "AssemblyRefProcessor",
	AssemblyRefOS:          "AssemblyRefOS",
	File:                   "File",
	ExportedType:           "ExportedType",
	ManifestResource:       "ManifestResource",
	NestedClass:            "NestedClass",
	GenericParam:           "GenericParam",
	MethodSpec:             "MethodSpec",
	GenericParamConstraint: "GenericParamConstraint",
	Document:               "Document",
	MethodDebugInformation: "MethodDebugInformation",
	LocalScope:             "LocalScope",
	LocalVariable:          "LocalVariable",
	LocalConstant:          "LocalConstant",
	ImportScope:            "ImportScope",
	StateMachineMethod:     "StateMachineMethod",
	CustomDebugInformation: "CustomDebugInformation",
}

// String returns the table name.
func (id TableID) String() string {
	if name, ok := tableNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Table(0x%02x)", uint8(id))
}

// Known reports whether the row layout of id is known.
func (id TableID) Known() bool {
	_, ok := tableNames[id]
	return ok
}

// AllTables lists every known table in ascending id order, which is also
// the order rows appear in the tables stream.
func AllTables() []TableID {
	ids := make([]TableID, 0, len(tableNames))
	for id := TableID(0); id < MaxTables; id++ {
		if id.Known() {
			ids = append(ids, id)
		}
	}
	return ids
}

// TableByName returns the table with the given name.
func TableByName(name string) (TableID, bool) {
	for id, n := range tableNames {
		if n == name {
			return id, true
		}
	}
	return 0, false
}
