package tables

import (
	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/internal/binary"
)

// ColumnKind is the storage class of a row column.
type ColumnKind uint8

const (
	ColU8 ColumnKind = iota
	ColU16
	ColU32
	ColString // #Strings offset
	ColGUID   // #GUID slot
	ColBlob   // #Blob offset
	ColTable  // simple index into Target
	ColCoded  // coded index of kind Coded
)

// Column is one bound field of a row. Columns returned by Columns point into
// the row they were taken from, so Set mutates that row.
type Column struct {
	Name   string
	Kind   ColumnKind
	Target TableID
	Coded  CodedIndexType
	// List marks a table index that starts a run of rows (FieldList, ParamList, ...).
	List bool

	u8  *uint8
	u16 *uint16
	u32 *uint32
	ci  *CodedIndex
}

// Size returns the encoded width of the column.
func (c *Column) Size(info *TableInfo) int {
	switch c.Kind {
	case ColU8:
		return 1
	case ColU16:
		return 2
	case ColU32:
		return 4
	case ColString:
		return info.HeapIndexBytes(HeapStrings)
	case ColGUID:
		return info.HeapIndexBytes(HeapGUID)
	case ColBlob:
		return info.HeapIndexBytes(HeapBlob)
	case ColTable:
		return info.TableIndexBytes(c.Target)
	default:
		return info.CodedIndexBytes(c.Coded)
	}
}

// Value returns the numeric value. For coded columns it is the referenced row.
func (c *Column) Value() uint32 {
	switch c.Kind {
	case ColU8:
		return uint32(*c.u8)
	case ColU16:
		return uint32(*c.u16)
	case ColCoded:
		return c.ci.Row
	default:
		return *c.u32
	}
}

// Set stores v. For coded columns it replaces the referenced row.
func (c *Column) Set(v uint32) {
	switch c.Kind {
	case ColU8:
		*c.u8 = uint8(v)
	case ColU16:
		*c.u16 = uint16(v)
	case ColCoded:
		c.ci.Row = v
	default:
		*c.u32 = v
	}
}

// CodedIndex returns the bound coded index, or nil for other kinds.
func (c *Column) CodedIndex() *CodedIndex {
	return c.ci
}

// Heap reports which heap a heap column indexes.
func (c *Column) Heap() (Heap, bool) {
	switch c.Kind {
	case ColString:
		return HeapStrings, true
	case ColGUID:
		return HeapGUID, true
	case ColBlob:
		return HeapBlob, true
	}
	return 0, false
}

// RefTable returns the table referenced by a table or coded column.
func (c *Column) RefTable() (TableID, bool) {
	switch c.Kind {
	case ColTable:
		return c.Target, true
	case ColCoded:
		return c.ci.Tag, true
	}
	return 0, false
}

func (c *Column) read(r *binary.Reader, info *TableInfo) error {
	switch c.Kind {
	case ColU8:
		v, err := r.ReadByte()
		*c.u8 = v
		return err
	case ColU16:
		v, err := r.ReadU16()
		*c.u16 = v
		return err
	case ColU32:
		v, err := r.ReadU32()
		*c.u32 = v
		return err
	case ColCoded:
		v, err := r.ReadIndex(c.Size(info) == 4)
		if err != nil {
			return err
		}
		ci, err := DecodeCodedIndex(c.Coded, v)
		if err != nil {
			return err
		}
		*c.ci = ci
		return nil
	default:
		v, err := r.ReadIndex(c.Size(info) == 4)
		*c.u32 = v
		return err
	}
}

func (c *Column) write(w *binary.Cursor, info *TableInfo) error {
	switch c.Kind {
	case ColU8:
		return w.PutByte(*c.u8)
	case ColU16:
		return w.PutU16(*c.u16)
	case ColU32:
		return w.PutU32(*c.u32)
	case ColCoded:
		v, err := EncodeCodedIndex(c.Coded, c.ci.Tag, c.ci.Row)
		if err != nil {
			return err
		}
		return w.PutIndex(v, c.Size(info) == 4)
	default:
		return w.PutIndex(*c.u32, c.Size(info) == 4)
	}
}

// schema collects column bindings in declared field order.
type schema struct {
	cols []Column
}

func (s *schema) u8(name string, p *uint8) {
	s.cols = append(s.cols, Column{Name: name, Kind: ColU8, u8: p})
}

func (s *schema) u16(name string, p *uint16) {
	s.cols = append(s.cols, Column{Name: name, Kind: ColU16, u16: p})
}

func (s *schema) u32(name string, p *uint32) {
	s.cols = append(s.cols, Column{Name: name, Kind: ColU32, u32: p})
}

func (s *schema) str(name string, p *uint32) {
	s.cols = append(s.cols, Column{Name: name, Kind: ColString, u32: p})
}

func (s *schema) guid(name string, p *uint32) {
	s.cols = append(s.cols, Column{Name: name, Kind: ColGUID, u32: p})
}

func (s *schema) blob(name string, p *uint32) {
	s.cols = append(s.cols, Column{Name: name, Kind: ColBlob, u32: p})
}

func (s *schema) index(name string, target TableID, p *uint32) {
	s.cols = append(s.cols, Column{Name: name, Kind: ColTable, Target: target, u32: p})
}

func (s *schema) list(name string, target TableID, p *uint32) {
	s.cols = append(s.cols, Column{Name: name, Kind: ColTable, Target: target, List: true, u32: p})
}

func (s *schema) coded(name string, kind CodedIndexType, p *CodedIndex) {
	p.Kind = kind
	if p.Row == 0 && !kind.Contains(p.Tag) {
		p.Tag = kind.Tables()[0]
	}
	s.cols = append(s.cols, Column{Name: name, Kind: ColCoded, Coded: kind, ci: p})
}

// Row is a raw, unresolved table row.
type Row interface {
	TableID() TableID
	Header() *RowHeader
	bind(s *schema)
}

// RowPtr constrains a pointer to a raw row struct.
type RowPtr[T any] interface {
	*T
	Row
}

// RowHeader carries the identity of a row within its table.
type RowHeader struct {
	RID    uint32
	Token  Token
	Offset int
}

// Header returns h.
func (h *RowHeader) Header() *RowHeader {
	return h
}

// Columns returns the bound columns of row in declared field order.
func Columns(row Row) []Column {
	var s schema
	row.bind(&s)
	return s.cols
}

// RowSize returns the encoded size of one row of table.
func RowSize(table TableID, info *TableInfo) uint32 {
	row := NewRow(table)
	if row == nil {
		return 0
	}
	var size int
	for _, c := range Columns(row) {
		size += c.Size(info)
	}
	return uint32(size)
}

// DecodeRow fills row from data at *offset and advances *offset.
func DecodeRow(row Row, data []byte, offset *int, rid uint32, info *TableInfo) error {
	start := *offset
	r := binary.NewReaderAt(data, start)
	for _, c := range Columns(row) {
		if err := c.read(r, info); err != nil {
			return errors.New(errors.PhaseRead, errors.KindMalformed).
				Table(row.TableID().String()).
				Field(c.Name).
				Token(uint32(NewToken(row.TableID(), rid))).
				Cause(err).
				Build()
		}
	}
	h := row.Header()
	h.RID = rid
	h.Token = NewToken(row.TableID(), rid)
	h.Offset = start
	*offset = r.Position()
	return nil
}

// ReadRow decodes one row of T from data at *offset.
func ReadRow[T any, P RowPtr[T]](data []byte, offset *int, rid uint32, info *TableInfo) (P, error) {
	row := P(new(T))
	if err := DecodeRow(row, data, offset, rid, info); err != nil {
		return nil, err
	}
	return row, nil
}

// WriteRow encodes row into buf at *offset and advances *offset. A value
// that does not fit its column width is an overflow error; nothing is truncated.
func WriteRow(row Row, buf []byte, offset *int, info *TableInfo) error {
	w := binary.NewCursor(buf, *offset)
	for _, c := range Columns(row) {
		if err := c.write(w, info); err != nil {
			kind := errors.KindWriteLayoutFailed
			var ce *errors.Error
			switch {
			case errors.Is(err, binary.ErrOverflow):
				kind = errors.KindOverflow
			case errors.As(err, &ce):
				kind = ce.Kind
			}
			return errors.New(errors.PhaseBuild, kind).
				Table(row.TableID().String()).
				Field(c.Name).
				Token(uint32(row.Header().Token)).
				Value(c.Value()).
				Cause(err).
				Build()
		}
	}
	*offset = w.Position()
	return nil
}

// CloneRow returns a deep copy of row.
func CloneRow(row Row) Row {
	dst := NewRow(row.TableID())
	*dst.Header() = *row.Header()
	src := Columns(row)
	for i, c := range Columns(dst) {
		if c.Kind == ColCoded {
			*c.ci = *src[i].ci
			continue
		}
		c.Set(src[i].Value())
	}
	return dst
}

// RowsEqual reports whether two rows of the same table hold the same column values.
func RowsEqual(a, b Row) bool {
	if a.TableID() != b.TableID() {
		return false
	}
	ca, cb := Columns(a), Columns(b)
	for i := range ca {
		if ca[i].Value() != cb[i].Value() {
			return false
		}
		if ca[i].Kind == ColCoded && ca[i].ci.Tag != cb[i].ci.Tag {
			return false
		}
	}
	return true
}
