package resolve

import (
	"github.com/zhangyunhao116/skipmap"

	"github.com/wippyai/cilmeta/tables"
)

// Store holds the owned entities of one table, ordered by token.
type Store[T Entity] struct {
	m *skipmap.OrderedMap[uint32, T]
}

func newStore[T Entity]() *Store[T] {
	return &Store[T]{m: skipmap.New[uint32, T]()}
}

// Get returns the entity for tok.
func (s *Store[T]) Get(tok tables.Token) (T, bool) {
	return s.m.Load(uint32(tok))
}

// Len returns the number of entities.
func (s *Store[T]) Len() int {
	return s.m.Len()
}

// All yields entities in token order.
func (s *Store[T]) All() func(yield func(T) bool) {
	return func(yield func(T) bool) {
		s.m.Range(func(_ uint32, v T) bool {
			return yield(v)
		})
	}
}

// insert stores v, reporting false when the token was already taken.
func (s *Store[T]) insert(v T) bool {
	_, loaded := s.m.LoadOrStore(uint32(v.Token()), v)
	return !loaded
}

// Registry indexes every owned entity of one load by token. Reads are
// lock-free and safe while the loader is still writing.
type Registry struct {
	Modules                 *Store[*Module]
	TypeRefs                *Store[*TypeRef]
	TypeDefs                *Store[*TypeDef]
	Fields                  *Store[*Field]
	Methods                 *Store[*MethodDef]
	Params                  *Store[*Param]
	InterfaceImpls          *Store[*InterfaceImpl]
	MemberRefs              *Store[*MemberRef]
	Securities              *Store[*Security]
	StandAloneSigs          *Store[*StandAloneSig]
	Events                  *Store[*Event]
	Properties              *Store[*Property]
	MethodSemantics         *Store[*MethodSemantics]
	MethodImpls             *Store[*MethodImpl]
	ModuleRefs              *Store[*ModuleRef]
	TypeSpecs               *Store[*TypeSpec]
	ImplMaps                *Store[*ImplMap]
	Assemblies              *Store[*Assembly]
	AssemblyRefs            *Store[*AssemblyRef]
	Files                   *Store[*File]
	ExportedTypes           *Store[*ExportedType]
	ManifestResources       *Store[*ManifestResource]
	GenericParams           *Store[*GenericParam]
	MethodSpecs             *Store[*MethodSpec]
	GenericParamConstraints *Store[*GenericParamConstraint]
	CustomAttributes        *Store[*CustomAttribute]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Modules:                 newStore[*Module](),
		TypeRefs:                newStore[*TypeRef](),
		TypeDefs:                newStore[*TypeDef](),
		Fields:                  newStore[*Field](),
		Methods:                 newStore[*MethodDef](),
		Params:                  newStore[*Param](),
		InterfaceImpls:          newStore[*InterfaceImpl](),
		MemberRefs:              newStore[*MemberRef](),
		Securities:              newStore[*Security](),
		StandAloneSigs:          newStore[*StandAloneSig](),
		Events:                  newStore[*Event](),
		Properties:              newStore[*Property](),
		MethodSemantics:         newStore[*MethodSemantics](),
		MethodImpls:             newStore[*MethodImpl](),
		ModuleRefs:              newStore[*ModuleRef](),
		TypeSpecs:               newStore[*TypeSpec](),
		ImplMaps:                newStore[*ImplMap](),
		Assemblies:              newStore[*Assembly](),
		AssemblyRefs:            newStore[*AssemblyRef](),
		Files:                   newStore[*File](),
		ExportedTypes:           newStore[*ExportedType](),
		ManifestResources:       newStore[*ManifestResource](),
		GenericParams:           newStore[*GenericParam](),
		MethodSpecs:             newStore[*MethodSpec](),
		GenericParamConstraints: newStore[*GenericParamConstraint](),
		CustomAttributes:        newStore[*CustomAttribute](),
	}
}

func get[T Entity](s *Store[T], tok tables.Token) (Entity, bool) {
	v, ok := s.Get(tok)
	if !ok {
		return nil, false
	}
	return v, true
}

// Lookup returns the entity for any token with an owned form.
func (r *Registry) Lookup(tok tables.Token) (Entity, bool) {
	switch tok.Table() {
	case tables.Module:
		return get(r.Modules, tok)
	case tables.TypeRef:
		return get(r.TypeRefs, tok)
	case tables.TypeDef:
		return get(r.TypeDefs, tok)
	case tables.Field:
		return get(r.Fields, tok)
	case tables.MethodDef:
		return get(r.Methods, tok)
	case tables.Param:
		return get(r.Params, tok)
	case tables.InterfaceImpl:
		return get(r.InterfaceImpls, tok)
	case tables.MemberRef:
		return get(r.MemberRefs, tok)
	case tables.DeclSecurity:
		return get(r.Securities, tok)
	case tables.StandAloneSig:
		return get(r.StandAloneSigs, tok)
	case tables.Event:
		return get(r.Events, tok)
	case tables.Property:
		return get(r.Properties, tok)
	case tables.MethodSemantics:
		return get(r.MethodSemantics, tok)
	case tables.MethodImpl:
		return get(r.MethodImpls, tok)
	case tables.ModuleRef:
		return get(r.ModuleRefs, tok)
	case tables.TypeSpec:
		return get(r.TypeSpecs, tok)
	case tables.ImplMap:
		return get(r.ImplMaps, tok)
	case tables.Assembly:
		return get(r.Assemblies, tok)
	case tables.AssemblyRef:
		return get(r.AssemblyRefs, tok)
	case tables.File:
		return get(r.Files, tok)
	case tables.ExportedType:
		return get(r.ExportedTypes, tok)
	case tables.ManifestResource:
		return get(r.ManifestResources, tok)
	case tables.GenericParam:
		return get(r.GenericParams, tok)
	case tables.MethodSpec:
		return get(r.MethodSpecs, tok)
	case tables.GenericParamConstraint:
		return get(r.GenericParamConstraints, tok)
	case tables.CustomAttribute:
		return get(r.CustomAttributes, tok)
	}
	return nil, false
}

// FindTypeDef returns the first TypeDef with the given namespace and name.
func (r *Registry) FindTypeDef(namespace, name string) (*TypeDef, bool) {
	for t := range r.TypeDefs.All() {
		if t.Namespace == namespace && t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// FindTypeRef returns the first TypeRef with the given namespace and name.
func (r *Registry) FindTypeRef(namespace, name string) (*TypeRef, bool) {
	for t := range r.TypeRefs.All() {
		if t.Namespace == namespace && t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Module returns the single Module row, if present.
func (r *Registry) Module() (*Module, bool) {
	return r.Modules.Get(tables.NewToken(tables.Module, 1))
}

// Assembly returns the Assembly row, if present.
func (r *Registry) Assembly() (*Assembly, bool) {
	return r.Assemblies.Get(tables.NewToken(tables.Assembly, 1))
}
