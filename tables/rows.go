package tables

// ModuleRaw is a row of the Module table (ECMA-335 II.22.30).
type ModuleRaw struct {
	RowHeader

	Generation uint16
	Name       uint32
	Mvid       uint32
	EncID      uint32
	EncBaseID  uint32
}

func (*ModuleRaw) TableID() TableID { return Module }

func (r *ModuleRaw) bind(s *schema) {
	s.u16("Generation", &r.Generation)
	s.str("Name", &r.Name)
	s.guid("Mvid", &r.Mvid)
	s.guid("EncID", &r.EncID)
	s.guid("EncBaseID", &r.EncBaseID)
}

// TypeRefRaw is a row of the TypeRef table.
type TypeRefRaw struct {
	RowHeader

	ResolutionScope CodedIndex
	TypeName        uint32
	TypeNamespace   uint32
}

func (*TypeRefRaw) TableID() TableID { return TypeRef }

func (r *TypeRefRaw) bind(s *schema) {
	s.coded("ResolutionScope", ResolutionScope, &r.ResolutionScope)
	s.str("TypeName", &r.TypeName)
	s.str("TypeNamespace", &r.TypeNamespace)
}

// TypeDefRaw is a row of the TypeDef table. FieldList and MethodList
// start runs that end where the next row's run begins.
type TypeDefRaw struct {
	RowHeader

	Flags         uint32
	TypeName      uint32
	TypeNamespace uint32
	Extends       CodedIndex
	FieldList     uint32
	MethodList    uint32
}

func (*TypeDefRaw) TableID() TableID { return TypeDef }

func (r *TypeDefRaw) bind(s *schema) {
	s.u32("Flags", &r.Flags)
	s.str("TypeName", &r.TypeName)
	s.str("TypeNamespace", &r.TypeNamespace)
	s.coded("Extends", TypeDefOrRef, &r.Extends)
	s.list("FieldList", Field, &r.FieldList)
	s.list("MethodList", MethodDef, &r.MethodList)
}

type FieldPtrRaw struct {
	RowHeader

	Field uint32
}

func (*FieldPtrRaw) TableID() TableID { return FieldPtr }

func (r *FieldPtrRaw) bind(s *schema) {
	s.index("Field", Field, &r.Field)
}

type FieldRaw struct {
	RowHeader

	Flags     uint16
	Name      uint32
	Signature uint32
}

func (*FieldRaw) TableID() TableID { return Field }

func (r *FieldRaw) bind(s *schema) {
	s.u16("Flags", &r.Flags)
	s.str("Name", &r.Name)
	s.blob("Signature", &r.Signature)
}

type MethodPtrRaw struct {
	RowHeader

	Method uint32
}

func (*MethodPtrRaw) TableID() TableID { return MethodPtr }

func (r *MethodPtrRaw) bind(s *schema) {
	s.index("Method", MethodDef, &r.Method)
}

type MethodDefRaw struct {
	RowHeader

	RVA       uint32
	ImplFlags uint16
	Flags     uint16
	Name      uint32
	Signature uint32
	ParamList uint32
}

func (*MethodDefRaw) TableID() TableID { return MethodDef }

func (r *MethodDefRaw) bind(s *schema) {
	s.u32("RVA", &r.RVA)
	s.u16("ImplFlags", &r.ImplFlags)
	s.u16("Flags", &r.Flags)
	s.str("Name", &r.Name)
	s.blob("Signature", &r.Signature)
	s.list("ParamList", Param, &r.ParamList)
}

type ParamPtrRaw struct {
	RowHeader

	Param uint32
}

func (*ParamPtrRaw) TableID() TableID { return ParamPtr }

func (r *ParamPtrRaw) bind(s *schema) {
	s.index("Param", Param, &r.Param)
}

type ParamRaw struct {
	RowHeader

	Flags    uint16
	Sequence uint16
	Name     uint32
}

func (*ParamRaw) TableID() TableID { return Param }

func (r *ParamRaw) bind(s *schema) {
	s.u16("Flags", &r.Flags)
	s.u16("Sequence", &r.Sequence)
	s.str("Name", &r.Name)
}

type InterfaceImplRaw struct {
	RowHeader

	Class     uint32
	Interface CodedIndex
}

func (*InterfaceImplRaw) TableID() TableID { return InterfaceImpl }

func (r *InterfaceImplRaw) bind(s *schema) {
	s.index("Class", TypeDef, &r.Class)
	s.coded("Interface", TypeDefOrRef, &r.Interface)
}

type MemberRefRaw struct {
	RowHeader

	Class     CodedIndex
	Name      uint32
	Signature uint32
}

func (*MemberRefRaw) TableID() TableID { return MemberRef }

func (r *MemberRefRaw) bind(s *schema) {
	s.coded("Class", MemberRefParent, &r.Class)
	s.str("Name", &r.Name)
	s.blob("Signature", &r.Signature)
}

// ConstantRaw is a row of the Constant table. Padding is the reserved
// byte after Type and is kept for byte-exact rewrites.
type ConstantRaw struct {
	RowHeader

	Type    uint8
	Padding uint8
	Parent  CodedIndex
	Value   uint32
}

func (*ConstantRaw) TableID() TableID { return Constant }

func (r *ConstantRaw) bind(s *schema) {
	s.u8("Type", &r.Type)
	s.u8("Padding", &r.Padding)
	s.coded("Parent", HasConstant, &r.Parent)
	s.blob("Value", &r.Value)
}

type CustomAttributeRaw struct {
	RowHeader

	Parent CodedIndex
	Type   CodedIndex
	Value  uint32
}

func (*CustomAttributeRaw) TableID() TableID { return CustomAttribute }

func (r *CustomAttributeRaw) bind(s *schema) {
	s.coded("Parent", HasCustomAttribute, &r.Parent)
	s.coded("Type", CustomAttributeType, &r.Type)
	s.blob("Value", &r.Value)
}

type FieldMarshalRaw struct {
	RowHeader

	Parent     CodedIndex
	NativeType uint32
}

func (*FieldMarshalRaw) TableID() TableID { return FieldMarshal }

func (r *FieldMarshalRaw) bind(s *schema) {
	s.coded("Parent", HasFieldMarshal, &r.Parent)
	s.blob("NativeType", &r.NativeType)
}

type DeclSecurityRaw struct {
	RowHeader

	Action        uint16
	Parent        CodedIndex
	PermissionSet uint32
}

func (*DeclSecurityRaw) TableID() TableID { return DeclSecurity }

func (r *DeclSecurityRaw) bind(s *schema) {
	s.u16("Action", &r.Action)
	s.coded("Parent", HasDeclSecurity, &r.Parent)
	s.blob("PermissionSet", &r.PermissionSet)
}

type ClassLayoutRaw struct {
	RowHeader

	PackingSize uint16
	ClassSize   uint32
	Parent      uint32
}

func (*ClassLayoutRaw) TableID() TableID { return ClassLayout }

func (r *ClassLayoutRaw) bind(s *schema) {
	s.u16("PackingSize", &r.PackingSize)
	s.u32("ClassSize", &r.ClassSize)
	s.index("Parent", TypeDef, &r.Parent)
}

type FieldLayoutRaw struct {
	RowHeader

	FieldOffset uint32
	Field       uint32
}

func (*FieldLayoutRaw) TableID() TableID { return FieldLayout }

func (r *FieldLayoutRaw) bind(s *schema) {
	s.u32("FieldOffset", &r.FieldOffset)
	s.index("Field", Field, &r.Field)
}

type StandAloneSigRaw struct {
	RowHeader

	Signature uint32
}

func (*StandAloneSigRaw) TableID() TableID { return StandAloneSig }

func (r *StandAloneSigRaw) bind(s *schema) {
	s.blob("Signature", &r.Signature)
}

type EventMapRaw struct {
	RowHeader

	Parent    uint32
	EventList uint32
}

func (*EventMapRaw) TableID() TableID { return EventMap }

func (r *EventMapRaw) bind(s *schema) {
	s.index("Parent", TypeDef, &r.Parent)
	s.list("EventList", Event, &r.EventList)
}

type EventPtrRaw struct {
	RowHeader

	Event uint32
}

func (*EventPtrRaw) TableID() TableID { return EventPtr }

func (r *EventPtrRaw) bind(s *schema) {
	s.index("Event", Event, &r.Event)
}

type EventRaw struct {
	RowHeader

	EventFlags uint16
	Name       uint32
	EventType  CodedIndex
}

func (*EventRaw) TableID() TableID { return Event }

func (r *EventRaw) bind(s *schema) {
	s.u16("EventFlags", &r.EventFlags)
	s.str("Name", &r.Name)
	s.coded("EventType", TypeDefOrRef, &r.EventType)
}

type PropertyMapRaw struct {
	RowHeader

	Parent       uint32
	PropertyList uint32
}

func (*PropertyMapRaw) TableID() TableID { return PropertyMap }

func (r *PropertyMapRaw) bind(s *schema) {
	s.index("Parent", TypeDef, &r.Parent)
	s.list("PropertyList", Property, &r.PropertyList)
}

type PropertyPtrRaw struct {
	RowHeader

	Property uint32
}

func (*PropertyPtrRaw) TableID() TableID { return PropertyPtr }

func (r *PropertyPtrRaw) bind(s *schema) {
	s.index("Property", Property, &r.Property)
}

type PropertyRaw struct {
	RowHeader

	Flags     uint16
	Name      uint32
	Signature uint32
}

func (*PropertyRaw) TableID() TableID { return Property }

func (r *PropertyRaw) bind(s *schema) {
	s.u16("Flags", &r.Flags)
	s.str("Name", &r.Name)
	s.blob("Signature", &r.Signature)
}

type MethodSemanticsRaw struct {
	RowHeader

	Semantics   uint16
	Method      uint32
	Association CodedIndex
}

func (*MethodSemanticsRaw) TableID() TableID { return MethodSemantics }

func (r *MethodSemanticsRaw) bind(s *schema) {
	s.u16("Semantics", &r.Semantics)
	s.index("Method", MethodDef, &r.Method)
	s.coded("Association", HasSemantics, &r.Association)
}

type MethodImplRaw struct {
	RowHeader

	Class             uint32
	MethodBody        CodedIndex
	MethodDeclaration CodedIndex
}

func (*MethodImplRaw) TableID() TableID { return MethodImpl }

func (r *MethodImplRaw) bind(s *schema) {
	s.index("Class", TypeDef, &r.Class)
	s.coded("MethodBody", MethodDefOrRef, &r.MethodBody)
	s.coded("MethodDeclaration", MethodDefOrRef, &r.MethodDeclaration)
}

type ModuleRefRaw struct {
	RowHeader

	Name uint32
}

func (*ModuleRefRaw) TableID() TableID { return ModuleRef }

func (r *ModuleRefRaw) bind(s *schema) {
	s.str("Name", &r.Name)
}

type TypeSpecRaw struct {
	RowHeader

	Signature uint32
}

func (*TypeSpecRaw) TableID() TableID { return TypeSpec }

func (r *TypeSpecRaw) bind(s *schema) {
	s.blob("Signature", &r.Signature)
}

type ImplMapRaw struct {
	RowHeader

	MappingFlags    uint16
	MemberForwarded CodedIndex
	ImportName      uint32
	ImportScope     uint32
}

func (*ImplMapRaw) TableID() TableID { return ImplMap }

func (r *ImplMapRaw) bind(s *schema) {
	s.u16("MappingFlags", &r.MappingFlags)
	s.coded("MemberForwarded", MemberForwarded, &r.MemberForwarded)
	s.str("ImportName", &r.ImportName)
	s.index("ImportScope", ModuleRef, &r.ImportScope)
}

type FieldRVARaw struct {
	RowHeader

	RVA   uint32
	Field uint32
}

func (*FieldRVARaw) TableID() TableID { return FieldRVA }

func (r *FieldRVARaw) bind(s *schema) {
	s.u32("RVA", &r.RVA)
	s.index("Field", Field, &r.Field)
}

type EncLogRaw struct {
	RowHeader

	EncToken uint32
	FuncCode uint32
}

func (*EncLogRaw) TableID() TableID { return EncLog }

func (r *EncLogRaw) bind(s *schema) {
	s.u32("Token", &r.EncToken)
	s.u32("FuncCode", &r.FuncCode)
}

type EncMapRaw struct {
	RowHeader

	EncToken uint32
}

func (*EncMapRaw) TableID() TableID { return EncMap }

func (r *EncMapRaw) bind(s *schema) {
	s.u32("Token", &r.EncToken)
}

type NestedClassRaw struct {
	RowHeader

	NestedClass    uint32
	EnclosingClass uint32
}

func (*NestedClassRaw) TableID() TableID { return NestedClass }

func (r *NestedClassRaw) bind(s *schema) {
	s.index("NestedClass", TypeDef, &r.NestedClass)
	s.index("EnclosingClass", TypeDef, &r.EnclosingClass)
}

type GenericParamRaw struct {
	RowHeader

	Number uint16
	Flags  uint16
	Owner  CodedIndex
	Name   uint32
}

func (*GenericParamRaw) TableID() TableID { return GenericParam }

func (r *GenericParamRaw) bind(s *schema) {
	s.u16("Number", &r.Number)
	s.u16("Flags", &r.Flags)
	s.coded("Owner", TypeOrMethodDef, &r.Owner)
	s.str("Name", &r.Name)
}

type MethodSpecRaw struct {
	RowHeader

	Method        CodedIndex
	Instantiation uint32
}

func (*MethodSpecRaw) TableID() TableID { return MethodSpec }

func (r *MethodSpecRaw) bind(s *schema) {
	s.coded("Method", MethodDefOrRef, &r.Method)
	s.blob("Instantiation", &r.Instantiation)
}

type GenericParamConstraintRaw struct {
	RowHeader

	Owner      uint32
	Constraint CodedIndex
}

func (*GenericParamConstraintRaw) TableID() TableID { return GenericParamConstraint }

func (r *GenericParamConstraintRaw) bind(s *schema) {
	s.index("Owner", GenericParam, &r.Owner)
	s.coded("Constraint", TypeDefOrRef, &r.Constraint)
}
