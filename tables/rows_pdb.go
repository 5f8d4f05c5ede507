package tables

// DocumentRaw is a row of the Portable PDB Document table.
type DocumentRaw struct {
	RowHeader

	Name          uint32
	HashAlgorithm uint32
	Hash          uint32
	Language      uint32
}

func (*DocumentRaw) TableID() TableID { return Document }

func (r *DocumentRaw) bind(s *schema) {
	s.blob("Name", &r.Name)
	s.guid("HashAlgorithm", &r.HashAlgorithm)
	s.blob("Hash", &r.Hash)
	s.guid("Language", &r.Language)
}

type MethodDebugInformationRaw struct {
	RowHeader

	Document       uint32
	SequencePoints uint32
}

func (*MethodDebugInformationRaw) TableID() TableID { return MethodDebugInformation }

func (r *MethodDebugInformationRaw) bind(s *schema) {
	s.index("Document", Document, &r.Document)
	s.blob("SequencePoints", &r.SequencePoints)
}

type LocalScopeRaw struct {
	RowHeader

	Method       uint32
	ImportScope  uint32
	VariableList uint32
	ConstantList uint32
	StartOffset  uint32
	Length       uint32
}

func (*LocalScopeRaw) TableID() TableID { return LocalScope }

func (r *LocalScopeRaw) bind(s *schema) {
	s.index("Method", MethodDef, &r.Method)
	s.index("ImportScope", ImportScope, &r.ImportScope)
	s.list("VariableList", LocalVariable, &r.VariableList)
	s.list("ConstantList", LocalConstant, &r.ConstantList)
	s.u32("StartOffset", &r.StartOffset)
	s.u32("Length", &r.Length)
}

type LocalVariableRaw struct {
	RowHeader

	Attributes uint16
	Index      uint16
	Name       uint32
}

func (*LocalVariableRaw) TableID() TableID { return LocalVariable }

func (r *LocalVariableRaw) bind(s *schema) {
	s.u16("Attributes", &r.Attributes)
	s.u16("Index", &r.Index)
	s.str("Name", &r.Name)
}

type LocalConstantRaw struct {
	RowHeader

	Name      uint32
	Signature uint32
}

func (*LocalConstantRaw) TableID() TableID { return LocalConstant }

func (r *LocalConstantRaw) bind(s *schema) {
	s.str("Name", &r.Name)
	s.blob("Signature", &r.Signature)
}

type ImportScopeRaw struct {
	RowHeader

	Parent  uint32
	Imports uint32
}

func (*ImportScopeRaw) TableID() TableID { return ImportScope }

func (r *ImportScopeRaw) bind(s *schema) {
	s.index("Parent", ImportScope, &r.Parent)
	s.blob("Imports", &r.Imports)
}

type StateMachineMethodRaw struct {
	RowHeader

	MoveNextMethod uint32
	KickoffMethod  uint32
}

func (*StateMachineMethodRaw) TableID() TableID { return StateMachineMethod }

func (r *StateMachineMethodRaw) bind(s *schema) {
	s.index("MoveNextMethod", MethodDef, &r.MoveNextMethod)
	s.index("KickoffMethod", MethodDef, &r.KickoffMethod)
}

type CustomDebugInformationRaw struct {
	RowHeader

	Parent CodedIndex
	Kind   uint32
	Value  uint32
}

func (*CustomDebugInformationRaw) TableID() TableID { return CustomDebugInformation }

func (r *CustomDebugInformationRaw) bind(s *schema) {
	s.coded("Parent", HasCustomDebugInformation, &r.Parent)
	s.guid("Kind", &r.Kind)
	s.blob("Value", &r.Value)
}
