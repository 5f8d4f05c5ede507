package tables

// AssemblyRaw is the single row of the Assembly table.
type AssemblyRaw struct {
	RowHeader

	HashAlgID      uint32
	MajorVersion   uint16
	MinorVersion   uint16
	BuildNumber    uint16
	RevisionNumber uint16
	Flags          uint32
	PublicKey      uint32
	Name           uint32
	Culture        uint32
}

func (*AssemblyRaw) TableID() TableID { return Assembly }

func (r *AssemblyRaw) bind(s *schema) {
	s.u32("HashAlgID", &r.HashAlgID)
	s.u16("MajorVersion", &r.MajorVersion)
	s.u16("MinorVersion", &r.MinorVersion)
	s.u16("BuildNumber", &r.BuildNumber)
	s.u16("RevisionNumber", &r.RevisionNumber)
	s.u32("Flags", &r.Flags)
	s.blob("PublicKey", &r.PublicKey)
	s.str("Name", &r.Name)
	s.str("Culture", &r.Culture)
}

type AssemblyProcessorRaw struct {
	RowHeader

	Processor uint32
}

func (*AssemblyProcessorRaw) TableID() TableID { return AssemblyProcessor }

func (r *AssemblyProcessorRaw) bind(s *schema) {
	s.u32("Processor", &r.Processor)
}

type AssemblyOSRaw struct {
	RowHeader

	OSPlatformID   uint32
	OSMajorVersion uint32
	OSMinorVersion uint32
}

func (*AssemblyOSRaw) TableID() TableID { return AssemblyOS }

func (r *AssemblyOSRaw) bind(s *schema) {
	s.u32("OSPlatformID", &r.OSPlatformID)
	s.u32("OSMajorVersion", &r.OSMajorVersion)
	s.u32("OSMinorVersion", &r.OSMinorVersion)
}

type AssemblyRefRaw struct {
	RowHeader

	MajorVersion     uint16
	MinorVersion     uint16
	BuildNumber      uint16
	RevisionNumber   uint16
	Flags            uint32
	PublicKeyOrToken uint32
	Name             uint32
	Culture          uint32
	HashValue        uint32
}

func (*AssemblyRefRaw) TableID() TableID { return AssemblyRef }

func (r *AssemblyRefRaw) bind(s *schema) {
	s.u16("MajorVersion", &r.MajorVersion)
	s.u16("MinorVersion", &r.MinorVersion)
	s.u16("BuildNumber", &r.BuildNumber)
	s.u16("RevisionNumber", &r.RevisionNumber)
	s.u32("Flags", &r.Flags)
	s.blob("PublicKeyOrToken", &r.PublicKeyOrToken)
	s.str("Name", &r.Name)
	s.str("Culture", &r.Culture)
	s.blob("HashValue", &r.HashValue)
}

type AssemblyRefProcessorRaw struct {
	RowHeader

	Processor   uint32
	AssemblyRef uint32
}

func (*AssemblyRefProcessorRaw) TableID() TableID { return AssemblyRefProcessor }

func (r *AssemblyRefProcessorRaw) bind(s *schema) {
	s.u32("Processor", &r.Processor)
	s.index("AssemblyRef", AssemblyRef, &r.AssemblyRef)
}

type AssemblyRefOSRaw struct {
	RowHeader

	OSPlatformID   uint32
	OSMajorVersion uint32
	OSMinorVersion uint32
	AssemblyRef    uint32
}

func (*AssemblyRefOSRaw) TableID() TableID { return AssemblyRefOS }

func (r *AssemblyRefOSRaw) bind(s *schema) {
	s.u32("OSPlatformID", &r.OSPlatformID)
	s.u32("OSMajorVersion", &r.OSMajorVersion)
	s.u32("OSMinorVersion", &r.OSMinorVersion)
	s.index("AssemblyRef", AssemblyRef, &r.AssemblyRef)
}

type FileRaw struct {
	RowHeader

	Flags     uint32
	Name      uint32
	HashValue uint32
}

func (*FileRaw) TableID() TableID { return File }

func (r *FileRaw) bind(s *schema) {
	s.u32("Flags", &r.Flags)
	s.str("Name", &r.Name)
	s.blob("HashValue", &r.HashValue)
}

// ExportedTypeRaw is a row of the ExportedType table. Implementation may
// point at another ExportedType row, forming nested export chains.
type ExportedTypeRaw struct {
	RowHeader

	Flags          uint32
	TypeDefID      uint32
	TypeName       uint32
	TypeNamespace  uint32
	Implementation CodedIndex
}

func (*ExportedTypeRaw) TableID() TableID { return ExportedType }

func (r *ExportedTypeRaw) bind(s *schema) {
	s.u32("Flags", &r.Flags)
	s.u32("TypeDefID", &r.TypeDefID)
	s.str("TypeName", &r.TypeName)
	s.str("TypeNamespace", &r.TypeNamespace)
	s.coded("Implementation", Implementation, &r.Implementation)
}

// ManifestResourceRaw is a row of the ManifestResource table. DataOffset is
// the resource offset column; a null Implementation means the resource is embedded.
type ManifestResourceRaw struct {
	RowHeader

	DataOffset     uint32
	Flags          uint32
	Name           uint32
	Implementation CodedIndex
}

func (*ManifestResourceRaw) TableID() TableID { return ManifestResource }

func (r *ManifestResourceRaw) bind(s *schema) {
	s.u32("Offset", &r.DataOffset)
	s.u32("Flags", &r.Flags)
	s.str("Name", &r.Name)
	s.coded("Implementation", Implementation, &r.Implementation)
}
