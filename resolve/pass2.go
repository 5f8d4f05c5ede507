package resolve

import (
	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/tables"
)

func (l *loader) typeRefScope(r *tables.TypeRefRaw) error {
	if r.ResolutionScope.Tag != tables.TypeRef || r.ResolutionScope.IsNull() {
		return nil
	}
	t, err := lookupAs(l.reg.TypeRefs, r.Token, "ResolutionScope", r.Token)
	if err != nil {
		return err
	}
	outer, err := lookupAs(l.reg.TypeRefs, r.Token, "ResolutionScope", r.ResolutionScope.Token())
	if err != nil {
		return err
	}
	return setOnce[Entity](&t.Scope, outer, r.Token, "ResolutionScope")
}

func (l *loader) typeDefExtends(r *tables.TypeDefRaw) error {
	if r.Extends.Tag != tables.TypeDef || r.Extends.IsNull() {
		return nil
	}
	t, err := lookupAs(l.reg.TypeDefs, r.Token, "Extends", r.Token)
	if err != nil {
		return err
	}
	base, err := lookupAs(l.reg.TypeDefs, r.Token, "Extends", r.Extends.Token())
	if err != nil {
		return err
	}
	return setOnce[Entity](&t.Extends, base, r.Token, "Extends")
}

func (l *loader) exportedTypeImplementation(r *tables.ExportedTypeRaw) error {
	if r.Implementation.Tag != tables.ExportedType || r.Implementation.IsNull() {
		return nil
	}
	e, err := lookupAs(l.reg.ExportedTypes, r.Token, "Implementation", r.Token)
	if err != nil {
		return err
	}
	outer, err := lookupAs(l.reg.ExportedTypes, r.Token, "Implementation", r.Implementation.Token())
	if err != nil {
		return err
	}
	return setOnce[Entity](&e.Implementation, outer, r.Token, "Implementation")
}

func (l *loader) classLayout(r *tables.ClassLayoutRaw) error {
	if err := tables.ValidateRow(r, errors.PhaseResolve); err != nil {
		return err
	}
	t, err := lookupAs(l.reg.TypeDefs, r.Token, "Parent", tables.NewToken(tables.TypeDef, r.Parent))
	if err != nil {
		return err
	}
	if err := setOnce(&t.ClassSize, r.ClassSize, r.Token, "ClassSize"); err != nil {
		return err
	}
	return setOnce(&t.PackingSize, r.PackingSize, r.Token, "PackingSize")
}

func (l *loader) fieldLayout(r *tables.FieldLayoutRaw) error {
	f, err := lookupAs(l.reg.Fields, r.Token, "Field", tables.NewToken(tables.Field, r.Field))
	if err != nil {
		return err
	}
	return setOnce(&f.Offset, r.FieldOffset, r.Token, "FieldOffset")
}

func (l *loader) fieldRVA(r *tables.FieldRVARaw) error {
	f, err := lookupAs(l.reg.Fields, r.Token, "Field", tables.NewToken(tables.Field, r.Field))
	if err != nil {
		return err
	}
	return setOnce(&f.RVA, r.RVA, r.Token, "RVA")
}

func (l *loader) nestedClass(r *tables.NestedClassRaw) error {
	if err := tables.ValidateRow(r, errors.PhaseResolve); err != nil {
		return err
	}
	inner, err := lookupAs(l.reg.TypeDefs, r.Token, "NestedClass", tables.NewToken(tables.TypeDef, r.NestedClass))
	if err != nil {
		return err
	}
	outer, err := lookupAs(l.reg.TypeDefs, r.Token, "EnclosingClass", tables.NewToken(tables.TypeDef, r.EnclosingClass))
	if err != nil {
		return err
	}
	if err := setOnce(&inner.EnclosingType, outer, r.Token, "EnclosingClass"); err != nil {
		return err
	}
	outer.Nested.Append(inner)
	return nil
}

func (l *loader) interfaceImpl(r *tables.InterfaceImplRaw) error {
	class, err := lookupAs(l.reg.TypeDefs, r.Token, "Class", tables.NewToken(tables.TypeDef, r.Class))
	if err != nil {
		return err
	}
	iface, err := l.need(r.Token, "Interface", r.Interface.Token())
	if err != nil {
		return err
	}
	impl := &InterfaceImpl{entity: entity{token: r.Token}, Class: class, Interface: iface}
	l.reg.InterfaceImpls.insert(impl)
	class.Interfaces.Append(impl)
	return nil
}

func (l *loader) declSecurity(r *tables.DeclSecurityRaw) error {
	parent, err := l.need(r.Token, "Parent", r.Parent.Token())
	if err != nil {
		return err
	}
	perm, err := l.blob(r.Token, "PermissionSet", r.PermissionSet)
	if err != nil {
		return err
	}
	s := &Security{entity: entity{token: r.Token}, Action: r.Action, Parent: parent, PermissionSet: perm}
	l.reg.Securities.insert(s)
	switch p := parent.(type) {
	case *TypeDef:
		p.Security.Append(s)
	case *MethodDef:
		p.Security.Append(s)
	case *Assembly:
		p.Security.Append(s)
	default:
		return malformed(r.Token, "Parent", "unexpected owner %s", parent.Token())
	}
	return nil
}

func (l *loader) constant(r *tables.ConstantRaw) error {
	parent, err := l.need(r.Token, "Parent", r.Parent.Token())
	if err != nil {
		return err
	}
	value, err := l.blob(r.Token, "Value", r.Value)
	if err != nil {
		return err
	}
	c := Constant{Type: r.Type, Value: value}
	switch p := parent.(type) {
	case *Field:
		return setOnce(&p.Default, c, r.Token, "Parent")
	case *Param:
		return setOnce(&p.Default, c, r.Token, "Parent")
	case *Property:
		return setOnce(&p.Default, c, r.Token, "Parent")
	}
	return malformed(r.Token, "Parent", "unexpected owner %s", parent.Token())
}

func (l *loader) fieldMarshal(r *tables.FieldMarshalRaw) error {
	parent, err := l.need(r.Token, "Parent", r.Parent.Token())
	if err != nil {
		return err
	}
	native, err := l.blob(r.Token, "NativeType", r.NativeType)
	if err != nil {
		return err
	}
	switch p := parent.(type) {
	case *Field:
		return setOnce(&p.Marshal, native, r.Token, "Parent")
	case *Param:
		return setOnce(&p.Marshal, native, r.Token, "Parent")
	}
	return malformed(r.Token, "Parent", "unexpected owner %s", parent.Token())
}

func (l *loader) genericParamConstraint(r *tables.GenericParamConstraintRaw) error {
	owner, err := lookupAs(l.reg.GenericParams, r.Token, "Owner", tables.NewToken(tables.GenericParam, r.Owner))
	if err != nil {
		return err
	}
	constraint, err := l.need(r.Token, "Constraint", r.Constraint.Token())
	if err != nil {
		return err
	}
	c := &GenericParamConstraint{entity: entity{token: r.Token}, Owner: owner, Constraint: constraint}
	l.reg.GenericParamConstraints.insert(c)
	owner.Constraints.Append(c)
	return nil
}

// The OS and processor tables are deprecated and may repeat. The first row
// is kept.
func (l *loader) assemblyOS(r *tables.AssemblyOSRaw) error {
	a, err := lookupAs(l.reg.Assemblies, r.Token, "Assembly", tables.NewToken(tables.Assembly, 1))
	if err != nil {
		return err
	}
	a.OS.Set(OSInfo{r.OSPlatformID, r.OSMajorVersion, r.OSMinorVersion})
	return nil
}

func (l *loader) assemblyProcessor(r *tables.AssemblyProcessorRaw) error {
	a, err := lookupAs(l.reg.Assemblies, r.Token, "Assembly", tables.NewToken(tables.Assembly, 1))
	if err != nil {
		return err
	}
	a.Processor.Set(r.Processor)
	return nil
}

func (l *loader) assemblyRefOS(r *tables.AssemblyRefOSRaw) error {
	a, err := lookupAs(l.reg.AssemblyRefs, r.Token, "AssemblyRef", tables.NewToken(tables.AssemblyRef, r.AssemblyRef))
	if err != nil {
		return err
	}
	a.OS.Set(OSInfo{r.OSPlatformID, r.OSMajorVersion, r.OSMinorVersion})
	return nil
}

func (l *loader) assemblyRefProcessor(r *tables.AssemblyRefProcessorRaw) error {
	a, err := lookupAs(l.reg.AssemblyRefs, r.Token, "AssemblyRef", tables.NewToken(tables.AssemblyRef, r.AssemblyRef))
	if err != nil {
		return err
	}
	a.Processor.Set(r.Processor)
	return nil
}

func (l *loader) eventMap(r *tables.EventMapRaw) error {
	t, err := lookupAs(l.reg.TypeDefs, r.Token, "Parent", tables.NewToken(tables.TypeDef, r.Parent))
	if err != nil {
		return err
	}
	next := nextStart(l, r.RID, func(n *tables.EventMapRaw) uint32 { return n.EventList })
	events, err := members(l, l.reg.Events, tables.Event, tables.EventPtr, r.Token, "EventList", r.EventList, next)
	if err != nil {
		return err
	}
	for _, e := range events {
		t.Events.Append(e)
	}
	return nil
}

func (l *loader) propertyMap(r *tables.PropertyMapRaw) error {
	t, err := lookupAs(l.reg.TypeDefs, r.Token, "Parent", tables.NewToken(tables.TypeDef, r.Parent))
	if err != nil {
		return err
	}
	next := nextStart(l, r.RID, func(n *tables.PropertyMapRaw) uint32 { return n.PropertyList })
	props, err := members(l, l.reg.Properties, tables.Property, tables.PropertyPtr, r.Token, "PropertyList", r.PropertyList, next)
	if err != nil {
		return err
	}
	for _, p := range props {
		t.Properties.Append(p)
	}
	return nil
}

func (l *loader) methodSemantics(r *tables.MethodSemanticsRaw) error {
	method, err := lookupAs(l.reg.Methods, r.Token, "Method", tables.NewToken(tables.MethodDef, r.Method))
	if err != nil {
		return err
	}
	assoc, err := l.need(r.Token, "Association", r.Association.Token())
	if err != nil {
		return err
	}
	s := &MethodSemantics{entity: entity{token: r.Token}, Semantics: r.Semantics, Method: method, Association: assoc}
	l.reg.MethodSemantics.insert(s)
	switch a := assoc.(type) {
	case *Property:
		a.Methods.Append(s)
	case *Event:
		a.Methods.Append(s)
	}
	return nil
}

func (l *loader) methodImpl(r *tables.MethodImplRaw) error {
	class, err := lookupAs(l.reg.TypeDefs, r.Token, "Class", tables.NewToken(tables.TypeDef, r.Class))
	if err != nil {
		return err
	}
	body, err := l.need(r.Token, "MethodBody", r.MethodBody.Token())
	if err != nil {
		return err
	}
	decl, err := l.need(r.Token, "MethodDeclaration", r.MethodDeclaration.Token())
	if err != nil {
		return err
	}
	m := &MethodImpl{entity: entity{token: r.Token}, Class: class, Body: body, Declaration: decl}
	l.reg.MethodImpls.insert(m)
	class.MethodImpls.Append(m)
	return nil
}

func (l *loader) implMap(r *tables.ImplMapRaw) error {
	member, err := l.need(r.Token, "MemberForwarded", r.MemberForwarded.Token())
	if err != nil {
		return err
	}
	name, err := l.str(r.Token, "ImportName", r.ImportName)
	if err != nil {
		return err
	}
	scope, err := lookupAs(l.reg.ModuleRefs, r.Token, "ImportScope", tables.NewToken(tables.ModuleRef, r.ImportScope))
	if err != nil {
		return err
	}
	m := &ImplMap{entity: entity{token: r.Token}, MappingFlags: r.MappingFlags, ImportName: name, Scope: scope}
	l.reg.ImplMaps.insert(m)
	if method, ok := member.(*MethodDef); ok {
		return setOnce(&method.ImplMap, m, r.Token, "MemberForwarded")
	}
	return nil
}

func (l *loader) customAttribute(r *tables.CustomAttributeRaw) error {
	parent, err := l.need(r.Token, "Parent", r.Parent.Token())
	if err != nil {
		return err
	}
	ctor, err := l.need(r.Token, "Type", r.Type.Token())
	if err != nil {
		return err
	}
	value, err := l.blob(r.Token, "Value", r.Value)
	if err != nil {
		return err
	}
	ca := &CustomAttribute{entity: entity{token: r.Token}, Parent: parent, Constructor: ctor, Value: value}
	l.reg.CustomAttributes.insert(ca)
	parent.addAttribute(ca)
	return nil
}
