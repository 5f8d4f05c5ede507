package resolve

import (
	"github.com/wippyai/cilmeta/tables"
)

func (l *loader) module(r *tables.ModuleRaw) error {
	tok := r.Token
	m := &Module{entity: entity{token: tok}, Generation: r.Generation}
	var err error
	if m.Name, err = l.str(tok, "Name", r.Name); err != nil {
		return err
	}
	if m.Mvid, err = l.guid(tok, "Mvid", r.Mvid); err != nil {
		return err
	}
	if m.EncID, err = l.guid(tok, "EncID", r.EncID); err != nil {
		return err
	}
	if m.EncBaseID, err = l.guid(tok, "EncBaseID", r.EncBaseID); err != nil {
		return err
	}
	l.reg.Modules.insert(m)
	return nil
}

func (l *loader) moduleRef(r *tables.ModuleRefRaw) error {
	name, err := l.str(r.Token, "Name", r.Name)
	if err != nil {
		return err
	}
	l.reg.ModuleRefs.insert(&ModuleRef{entity: entity{token: r.Token}, Name: name})
	return nil
}

func (l *loader) assemblyRef(r *tables.AssemblyRefRaw) error {
	tok := r.Token
	a := &AssemblyRef{
		entity:  entity{token: tok},
		Version: Version{r.MajorVersion, r.MinorVersion, r.BuildNumber, r.RevisionNumber},
		Flags:   r.Flags,
	}
	var err error
	if a.PublicKeyOrToken, err = l.blob(tok, "PublicKeyOrToken", r.PublicKeyOrToken); err != nil {
		return err
	}
	if a.Name, err = l.str(tok, "Name", r.Name); err != nil {
		return err
	}
	if a.Culture, err = l.str(tok, "Culture", r.Culture); err != nil {
		return err
	}
	if a.HashValue, err = l.blob(tok, "HashValue", r.HashValue); err != nil {
		return err
	}
	l.reg.AssemblyRefs.insert(a)
	return nil
}

func (l *loader) assembly(r *tables.AssemblyRaw) error {
	tok := r.Token
	a := &Assembly{
		entity:    entity{token: tok},
		HashAlgID: r.HashAlgID,
		Version:   Version{r.MajorVersion, r.MinorVersion, r.BuildNumber, r.RevisionNumber},
		Flags:     r.Flags,
	}
	var err error
	if a.PublicKey, err = l.blob(tok, "PublicKey", r.PublicKey); err != nil {
		return err
	}
	if a.Name, err = l.str(tok, "Name", r.Name); err != nil {
		return err
	}
	if a.Culture, err = l.str(tok, "Culture", r.Culture); err != nil {
		return err
	}
	l.reg.Assemblies.insert(a)
	return nil
}

func (l *loader) file(r *tables.FileRaw) error {
	tok := r.Token
	f := &File{entity: entity{token: tok}, Flags: r.Flags}
	var err error
	if f.Name, err = l.str(tok, "Name", r.Name); err != nil {
		return err
	}
	if f.HashValue, err = l.blob(tok, "HashValue", r.HashValue); err != nil {
		return err
	}
	l.reg.Files.insert(f)
	return nil
}

func (l *loader) typeSpec(r *tables.TypeSpecRaw) error {
	sig, err := l.blob(r.Token, "Signature", r.Signature)
	if err != nil {
		return err
	}
	l.reg.TypeSpecs.insert(&TypeSpec{entity: entity{token: r.Token}, Signature: sig})
	return nil
}

func (l *loader) standAloneSig(r *tables.StandAloneSigRaw) error {
	sig, err := l.blob(r.Token, "Signature", r.Signature)
	if err != nil {
		return err
	}
	l.reg.StandAloneSigs.insert(&StandAloneSig{entity: entity{token: r.Token}, Signature: sig})
	return nil
}

func (l *loader) typeRef(r *tables.TypeRefRaw) error {
	tok := r.Token
	t := &TypeRef{entity: entity{token: tok}}
	var err error
	if t.Name, err = l.str(tok, "TypeName", r.TypeName); err != nil {
		return err
	}
	if t.Namespace, err = l.str(tok, "TypeNamespace", r.TypeNamespace); err != nil {
		return err
	}
	if r.ResolutionScope.Tag != tables.TypeRef && !r.ResolutionScope.IsNull() {
		scope, err := l.ref(tok, "ResolutionScope", r.ResolutionScope.Token())
		if err != nil {
			return err
		}
		t.Scope.Set(scope)
	}
	l.reg.TypeRefs.insert(t)
	return nil
}

func (l *loader) param(r *tables.ParamRaw) error {
	name, err := l.str(r.Token, "Name", r.Name)
	if err != nil {
		return err
	}
	l.reg.Params.insert(&Param{entity: entity{token: r.Token}, Flags: r.Flags, Sequence: r.Sequence, Name: name})
	return nil
}

func (l *loader) field(r *tables.FieldRaw) error {
	tok := r.Token
	f := &Field{entity: entity{token: tok}, Flags: r.Flags}
	var err error
	if f.Name, err = l.str(tok, "Name", r.Name); err != nil {
		return err
	}
	if f.Signature, err = l.blob(tok, "Signature", r.Signature); err != nil {
		return err
	}
	l.reg.Fields.insert(f)
	return nil
}

func (l *loader) methodDef(r *tables.MethodDefRaw) error {
	tok := r.Token
	m := &MethodDef{entity: entity{token: tok}, RVA: r.RVA, ImplFlags: r.ImplFlags, Flags: r.Flags}
	var err error
	if m.Name, err = l.str(tok, "Name", r.Name); err != nil {
		return err
	}
	if m.Signature, err = l.blob(tok, "Signature", r.Signature); err != nil {
		return err
	}
	next := nextStart(l, r.RID, func(n *tables.MethodDefRaw) uint32 { return n.ParamList })
	if m.Params, err = members(l, l.reg.Params, tables.Param, tables.ParamPtr, tok, "ParamList", r.ParamList, next); err != nil {
		return err
	}
	l.reg.Methods.insert(m)
	return nil
}

func (l *loader) typeDef(r *tables.TypeDefRaw) error {
	tok := r.Token
	t := &TypeDef{entity: entity{token: tok}, Flags: r.Flags}
	var err error
	if t.Name, err = l.str(tok, "TypeName", r.TypeName); err != nil {
		return err
	}
	if t.Namespace, err = l.str(tok, "TypeNamespace", r.TypeNamespace); err != nil {
		return err
	}

	nextFields := nextStart(l, r.RID, func(n *tables.TypeDefRaw) uint32 { return n.FieldList })
	if t.Fields, err = members(l, l.reg.Fields, tables.Field, tables.FieldPtr, tok, "FieldList", r.FieldList, nextFields); err != nil {
		return err
	}
	nextMethods := nextStart(l, r.RID, func(n *tables.TypeDefRaw) uint32 { return n.MethodList })
	if t.Methods, err = members(l, l.reg.Methods, tables.MethodDef, tables.MethodPtr, tok, "MethodList", r.MethodList, nextMethods); err != nil {
		return err
	}
	for _, f := range t.Fields {
		if err := setOnce(&f.DeclaringType, t, f.Token(), "DeclaringType"); err != nil {
			return err
		}
	}
	for _, m := range t.Methods {
		if err := setOnce(&m.DeclaringType, t, m.Token(), "DeclaringType"); err != nil {
			return err
		}
	}

	if r.Extends.Tag != tables.TypeDef && !r.Extends.IsNull() {
		base, err := l.ref(tok, "Extends", r.Extends.Token())
		if err != nil {
			return err
		}
		t.Extends.Set(base)
	}
	l.reg.TypeDefs.insert(t)
	return nil
}

func (l *loader) memberRef(r *tables.MemberRefRaw) error {
	tok := r.Token
	m := &MemberRef{entity: entity{token: tok}}
	var err error
	if m.Parent, err = l.need(tok, "Class", r.Class.Token()); err != nil {
		return err
	}
	if m.Name, err = l.str(tok, "Name", r.Name); err != nil {
		return err
	}
	if m.Signature, err = l.blob(tok, "Signature", r.Signature); err != nil {
		return err
	}
	l.reg.MemberRefs.insert(m)
	return nil
}

func (l *loader) property(r *tables.PropertyRaw) error {
	tok := r.Token
	p := &Property{entity: entity{token: tok}, Flags: r.Flags}
	var err error
	if p.Name, err = l.str(tok, "Name", r.Name); err != nil {
		return err
	}
	if p.Signature, err = l.blob(tok, "Signature", r.Signature); err != nil {
		return err
	}
	l.reg.Properties.insert(p)
	return nil
}

func (l *loader) event(r *tables.EventRaw) error {
	tok := r.Token
	e := &Event{entity: entity{token: tok}, Flags: r.EventFlags}
	var err error
	if e.Name, err = l.str(tok, "Name", r.Name); err != nil {
		return err
	}
	if e.EventType, err = l.ref(tok, "EventType", r.EventType.Token()); err != nil {
		return err
	}
	l.reg.Events.insert(e)
	return nil
}

func (l *loader) exportedType(r *tables.ExportedTypeRaw) error {
	tok := r.Token
	e := &ExportedType{entity: entity{token: tok}, Flags: r.Flags, TypeDefID: r.TypeDefID}
	var err error
	if e.Name, err = l.str(tok, "TypeName", r.TypeName); err != nil {
		return err
	}
	if e.Namespace, err = l.str(tok, "TypeNamespace", r.TypeNamespace); err != nil {
		return err
	}
	if r.Implementation.Tag != tables.ExportedType && !r.Implementation.IsNull() {
		impl, err := l.ref(tok, "Implementation", r.Implementation.Token())
		if err != nil {
			return err
		}
		e.Implementation.Set(impl)
	}
	l.reg.ExportedTypes.insert(e)
	return nil
}

func (l *loader) manifestResource(r *tables.ManifestResourceRaw) error {
	tok := r.Token
	m := &ManifestResource{entity: entity{token: tok}, Offset: r.DataOffset, Flags: r.Flags}
	var err error
	if m.Name, err = l.str(tok, "Name", r.Name); err != nil {
		return err
	}
	if m.Implementation, err = l.ref(tok, "Implementation", r.Implementation.Token()); err != nil {
		return err
	}
	l.reg.ManifestResources.insert(m)
	return nil
}

func (l *loader) genericParam(r *tables.GenericParamRaw) error {
	tok := r.Token
	g := &GenericParam{entity: entity{token: tok}, Number: r.Number, Flags: r.Flags}
	var err error
	if g.Name, err = l.str(tok, "Name", r.Name); err != nil {
		return err
	}
	if g.Owner, err = l.need(tok, "Owner", r.Owner.Token()); err != nil {
		return err
	}
	switch owner := g.Owner.(type) {
	case *TypeDef:
		owner.GenericParams.Append(g)
	case *MethodDef:
		owner.GenericParams.Append(g)
	}
	l.reg.GenericParams.insert(g)
	return nil
}

func (l *loader) methodSpec(r *tables.MethodSpecRaw) error {
	tok := r.Token
	m := &MethodSpec{entity: entity{token: tok}}
	var err error
	if m.Method, err = l.need(tok, "Method", r.Method.Token()); err != nil {
		return err
	}
	if m.Instantiation, err = l.blob(tok, "Instantiation", r.Instantiation); err != nil {
		return err
	}
	l.reg.MethodSpecs.insert(m)
	return nil
}
