package resolve

import (
	"sync"

	"github.com/google/uuid"

	"github.com/wippyai/cilmeta/tables"
)

// Entity is any owned metadata object identified by a token.
type Entity interface {
	Token() tables.Token
	CustomAttributes() []*CustomAttribute
	addAttribute(ca *CustomAttribute)
}

type entity struct {
	token tables.Token
	mu    sync.Mutex
	attrs []*CustomAttribute
}

func (e *entity) Token() tables.Token { return e.token }

// CustomAttributes returns the attributes applied to the entity in token order.
func (e *entity) CustomAttributes() []*CustomAttribute {
	e.mu.Lock()
	out := make([]*CustomAttribute, len(e.attrs))
	copy(out, e.attrs)
	e.mu.Unlock()
	sortByToken(out)
	return out
}

func (e *entity) addAttribute(ca *CustomAttribute) {
	e.mu.Lock()
	e.attrs = append(e.attrs, ca)
	e.mu.Unlock()
}

// RowRef stands in for a referenced row of a table that has no owned form,
// such as the PDB tables.
type RowRef struct {
	entity
}

// Version is a four-part assembly version.
type Version struct {
	Major, Minor, Build, Revision uint16
}

// OSInfo is a decoded AssemblyOS or AssemblyRefOS row.
type OSInfo struct {
	PlatformID   uint32
	MajorVersion uint32
	MinorVersion uint32
}

// Security is a decoded DeclSecurity row.
type Security struct {
	entity
	Action        uint16
	Parent        Entity
	PermissionSet []byte
}

// Constant is a decoded Constant row.
type Constant struct {
	Type  uint8
	Value []byte
}

type Module struct {
	entity
	Generation uint16
	Name       string
	Mvid       uuid.UUID
	EncID      uuid.UUID
	EncBaseID  uuid.UUID
}

type ModuleRef struct {
	entity
	Name string
}

type TypeRef struct {
	entity
	Name      string
	Namespace string
	// Scope is set in pass 1 unless it names another TypeRef.
	Scope Once[Entity]
}

// FullName returns Namespace.Name.
func (t *TypeRef) FullName() string {
	return fullName(t.Namespace, t.Name)
}

type TypeDef struct {
	entity
	Flags     uint32
	Name      string
	Namespace string
	Extends   Once[Entity]
	Fields    []*Field
	Methods   []*MethodDef

	ClassSize     Once[uint32]
	PackingSize   Once[uint16]
	EnclosingType Once[*TypeDef]
	Security      List[*Security]

	Nested        List[*TypeDef]
	Interfaces    List[*InterfaceImpl]
	GenericParams List[*GenericParam]
	Properties    List[*Property]
	Events        List[*Event]
	MethodImpls   List[*MethodImpl]
}

// FullName returns Namespace.Name, or Outer/Name for nested types.
func (t *TypeDef) FullName() string {
	if outer, ok := t.EnclosingType.Get(); ok {
		return outer.FullName() + "/" + t.Name
	}
	return fullName(t.Namespace, t.Name)
}

type Field struct {
	entity
	Flags     uint16
	Name      string
	Signature []byte

	DeclaringType Once[*TypeDef]
	Offset        Once[uint32]
	RVA           Once[uint32]
	Default       Once[Constant]
	Marshal       Once[[]byte]
}

type MethodDef struct {
	entity
	RVA       uint32
	ImplFlags uint16
	Flags     uint16
	Name      string
	Signature []byte
	Params    []*Param

	DeclaringType Once[*TypeDef]
	Security      List[*Security]
	ImplMap       Once[*ImplMap]
	GenericParams List[*GenericParam]
}

type Param struct {
	entity
	Flags    uint16
	Sequence uint16
	Name     string

	Default Once[Constant]
	Marshal Once[[]byte]
}

type InterfaceImpl struct {
	entity
	Class     *TypeDef
	Interface Entity
}

type MemberRef struct {
	entity
	Parent    Entity
	Name      string
	Signature []byte
}

type TypeSpec struct {
	entity
	Signature []byte
}

type StandAloneSig struct {
	entity
	Signature []byte
}

type Property struct {
	entity
	Flags     uint16
	Name      string
	Signature []byte

	Default Once[Constant]
	Methods List[*MethodSemantics]
}

type Event struct {
	entity
	Flags     uint16
	Name      string
	EventType Entity

	Methods List[*MethodSemantics]
}

// MethodSemantics binds a method to a property or event.
type MethodSemantics struct {
	entity
	Semantics   uint16
	Method      *MethodDef
	Association Entity
}

type MethodImpl struct {
	entity
	Class       *TypeDef
	Body        Entity
	Declaration Entity
}

type ImplMap struct {
	entity
	MappingFlags uint16
	ImportName   string
	Scope        *ModuleRef
}

type Assembly struct {
	entity
	HashAlgID uint32
	Version   Version
	Flags     uint32
	PublicKey []byte
	Name      string
	Culture   string

	OS        Once[OSInfo]
	Processor Once[uint32]
	Security  List[*Security]
}

type AssemblyRef struct {
	entity
	Version          Version
	Flags            uint32
	PublicKeyOrToken []byte
	Name             string
	Culture          string
	HashValue        []byte

	OS        Once[OSInfo]
	Processor Once[uint32]
}

type File struct {
	entity
	Flags     uint32
	Name      string
	HashValue []byte
}

type ExportedType struct {
	entity
	Flags     uint32
	TypeDefID uint32
	Name      string
	Namespace string
	// Implementation is set in pass 1 unless it names another ExportedType.
	Implementation Once[Entity]
}

// FullName returns Namespace.Name, or Outer/Name for nested forwarders.
func (e *ExportedType) FullName() string {
	if impl, ok := e.Implementation.Get(); ok {
		if outer, ok := impl.(*ExportedType); ok {
			return outer.FullName() + "/" + e.Name
		}
	}
	return fullName(e.Namespace, e.Name)
}

type ManifestResource struct {
	entity
	Offset         uint32
	Flags          uint32
	Name           string
	Implementation Entity
}

type GenericParam struct {
	entity
	Number      uint16
	Flags       uint16
	Name        string
	Owner       Entity
	Constraints List[*GenericParamConstraint]
}

type GenericParamConstraint struct {
	entity
	Owner      *GenericParam
	Constraint Entity
}

type MethodSpec struct {
	entity
	Method        Entity
	Instantiation []byte
}

type CustomAttribute struct {
	entity
	Parent      Entity
	Constructor Entity
	Value       []byte
}

func fullName(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "." + name
}
