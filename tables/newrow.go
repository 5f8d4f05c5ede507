package tables

// NewRow returns a zero row of table, or nil when its layout is unknown.
func NewRow(table TableID) Row {
	switch table {
	case Module:
		return &ModuleRaw{}
	case TypeRef:
		return &TypeRefRaw{}
	case TypeDef:
		return &TypeDefRaw{}
	case FieldPtr:
		return &FieldPtrRaw{}
	case Field:
		return &FieldRaw{}
	case MethodPtr:
		return &MethodPtrRaw{}
	case MethodDef:
		return &MethodDefRaw{}
	case ParamPtr:
		return &ParamPtrRaw{}
	case Param:
		return &ParamRaw{}
	case InterfaceImpl:
		return &InterfaceImplRaw{}
	case MemberRef:
		return &MemberRefRaw{}
	case Constant:
		return &ConstantRaw{}
	case CustomAttribute:
		return &CustomAttributeRaw{}
	case FieldMarshal:
		return &FieldMarshalRaw{}
	case DeclSecurity:
		return &DeclSecurityRaw{}
	case ClassLayout:
		return &ClassLayoutRaw{}
	case FieldLayout:
		return &FieldLayoutRaw{}
	case StandAloneSig:
		return &StandAloneSigRaw{}
	case EventMap:
		return &EventMapRaw{}
	case EventPtr:
		return &EventPtrRaw{}
	case Event:
		return &EventRaw{}
	case PropertyMap:
		return &PropertyMapRaw{}
	case PropertyPtr:
		return &PropertyPtrRaw{}
	case Property:
		return &PropertyRaw{}
	case MethodSemantics:
		return &MethodSemanticsRaw{}
	case MethodImpl:
		return &MethodImplRaw{}
	case ModuleRef:
		return &ModuleRefRaw{}
	case TypeSpec:
		return &TypeSpecRaw{}
	case ImplMap:
		return &ImplMapRaw{}
	case FieldRVA:
		return &FieldRVARaw{}
	case EncLog:
		return &EncLogRaw{}
	case EncMap:
		return &EncMapRaw{}
	case Assembly:
		return &AssemblyRaw{}
	case AssemblyProcessor:
		return &AssemblyProcessorRaw{}
	case AssemblyOS:
		return &AssemblyOSRaw{}
	case AssemblyRef:
		return &AssemblyRefRaw{}
	case AssemblyRefProcessor:
		return &AssemblyRefProcessorRaw{}
	case AssemblyRefOS:
		return &AssemblyRefOSRaw{}
	case File:
		return &FileRaw{}
	case ExportedType:
		return &ExportedTypeRaw{}
	case ManifestResource:
		return &ManifestResourceRaw{}
	case NestedClass:
		return &NestedClassRaw{}
	case GenericParam:
		return &GenericParamRaw{}
	case MethodSpec:
		return &MethodSpecRaw{}
	case GenericParamConstraint:
		return &GenericParamConstraintRaw{}
	case Document:
		return &DocumentRaw{}
	case MethodDebugInformation:
		return &MethodDebugInformationRaw{}
	case LocalScope:
		return &LocalScopeRaw{}
	case LocalVariable:
		return &LocalVariableRaw{}
	case LocalConstant:
		return &LocalConstantRaw{}
	case ImportScope:
		return &ImportScopeRaw{}
	case StateMachineMethod:
		return &StateMachineMethodRaw{}
	case CustomDebugInformation:
		return &CustomDebugInformationRaw{}
	}
	return nil
}
