package tables

import (
	"fmt"
	"math/bits"

	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/internal/binary"
)

// HeapExtraData marks a header carrying four extra bytes after the row counts.
const HeapExtraData uint8 = 0x40

// Header is the fixed part of the tables stream (#~ or #-).
type Header struct {
	Reserved     uint32
	MajorVersion uint8
	MinorVersion uint8
	HeapSizes    uint8
	Reserved2    uint8
	Valid        uint64
	Sorted       uint64
	Rows         [MaxTables]uint32
	ExtraData    uint32
}

// Present reports whether table has its bit set in the valid mask.
func (h *Header) Present(table TableID) bool {
	return h.Valid&(1<<table) != 0
}

// Size returns the encoded header length including row counts.
func (h *Header) Size() int {
	n := 24 + 4*bits.OnesCount64(h.Valid)
	if h.HeapSizes&HeapExtraData != 0 {
		n += 4
	}
	return n
}

// ParseHeader decodes the tables-stream header.
func ParseHeader(data []byte) (*Header, error) {
	r := binary.NewReader(data)
	if r.Remaining() < 24 {
		return nil, r.WrapError("#~ header", binary.ErrTruncated)
	}
	h := &Header{}
	h.Reserved, _ = r.ReadU32()
	h.MajorVersion, _ = r.ReadByte()
	h.MinorVersion, _ = r.ReadByte()
	h.HeapSizes, _ = r.ReadByte()
	h.Reserved2, _ = r.ReadByte()
	h.Valid, _ = r.ReadU64()
	h.Sorted, _ = r.ReadU64()

	for id := TableID(0); id < MaxTables; id++ {
		if !h.Present(id) {
			continue
		}
		if !id.Known() {
			return nil, errors.Unsupported(errors.PhaseRead, fmt.Sprintf("tables stream declares unknown table 0x%02x", uint8(id)))
		}
		n, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("#~ row counts", err)
		}
		if n > MaxRID {
			return nil, errors.New(errors.PhaseRead, errors.KindMalformed).
				Table(id.String()).
				Detail("row count %d exceeds token range", n).
				Build()
		}
		h.Rows[id] = n
	}
	if h.HeapSizes&HeapExtraData != 0 {
		var err error
		if h.ExtraData, err = r.ReadU32(); err != nil {
			return nil, r.WrapError("#~ extra data", err)
		}
	}
	return h, nil
}

// Info returns the sizing info described by the header.
func (h *Header) Info() *TableInfo {
	info := &TableInfo{heapSizes: h.HeapSizes}
	info.rows = h.Rows
	return info
}

func (h *Header) write(w *binary.Writer) {
	w.WriteU32(h.Reserved)
	w.Byte(h.MajorVersion)
	w.Byte(h.MinorVersion)
	w.Byte(h.HeapSizes)
	w.Byte(h.Reserved2)
	w.WriteU64(h.Valid)
	w.WriteU64(h.Sorted)
	for id := TableID(0); id < MaxTables; id++ {
		if h.Present(id) {
			w.WriteU32(h.Rows[id])
		}
	}
	if h.HeapSizes&HeapExtraData != 0 {
		w.WriteU32(h.ExtraData)
	}
}

// Tables is a parsed tables stream. Row bytes are kept raw and decoded on demand.
type Tables struct {
	Header  Header
	Info    *TableInfo
	Trailer []byte
	data    [MaxTables][]byte
}

// Parse splits a tables stream into per-table row bytes.
func Parse(data []byte) (*Tables, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	ts := &Tables{Header: *h, Info: h.Info()}
	offset := h.Size()
	for _, id := range AllTables() {
		n := h.Rows[id]
		if n == 0 {
			continue
		}
		size := int(n) * int(RowSize(id, ts.Info))
		if offset+size > len(data) {
			return nil, errors.New(errors.PhaseRead, errors.KindOutOfBounds).
				Table(id.String()).
				Detail("%d rows of %d bytes at offset %d exceed stream length %d", n, RowSize(id, ts.Info), offset, len(data)).
				Build()
		}
		ts.data[id] = data[offset : offset+size]
		offset += size
	}
	ts.Trailer = data[offset:]
	return ts, nil
}

// RowCount returns the number of rows of table.
func (ts *Tables) RowCount(table TableID) uint32 {
	return ts.Header.Rows[table]
}

// Data returns the raw row bytes of table.
func (ts *Tables) Data(table TableID) []byte {
	return ts.data[table]
}

// Present lists tables that have at least one row.
func (ts *Tables) Present() []TableID {
	var ids []TableID
	for _, id := range AllTables() {
		if ts.Header.Rows[id] > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// Row decodes a single row of table.
func (ts *Tables) Row(table TableID, rid uint32) (Row, error) {
	if rid == 0 || rid > ts.Header.Rows[table] {
		return nil, errors.OutOfBounds(errors.PhaseRead, table.String(), int(rid), int(ts.Header.Rows[table]))
	}
	row := NewRow(table)
	offset := int(rid-1) * int(RowSize(table, ts.Info))
	if err := DecodeRow(row, ts.data[table], &offset, rid, ts.Info); err != nil {
		return nil, err
	}
	return row, nil
}

// Rows decodes every row of table in RID order.
func (ts *Tables) Rows(table TableID) ([]Row, error) {
	n := ts.Header.Rows[table]
	rows := make([]Row, 0, n)
	offset := 0
	for rid := uint32(1); rid <= n; rid++ {
		row := NewRow(table)
		if err := DecodeRow(row, ts.data[table], &offset, rid, ts.Info); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Emit re-encodes the stream from its raw parts.
func (ts *Tables) Emit() []byte {
	w := binary.NewWriter()
	ts.Header.write(w)
	for _, id := range AllTables() {
		w.WriteBytes(ts.data[id])
	}
	w.WriteBytes(ts.Trailer)
	return w.Bytes()
}

// StreamSize returns the encoded size of a stream with hdr's valid mask and
// the row counts and widths of info, excluding any trailer.
func StreamSize(hdr Header, info *TableInfo) int {
	hdr.Valid |= validMask(info)
	size := hdr.Size()
	for _, id := range AllTables() {
		size += int(info.RowCount(id)) * int(RowSize(id, info))
	}
	return size
}

func validMask(info *TableInfo) uint64 {
	var mask uint64
	for _, id := range AllTables() {
		if info.RowCount(id) > 0 {
			mask |= 1 << id
		}
	}
	return mask
}

// Encode writes a complete tables stream. Row counts and heap flags come
// from info; tables already present in hdr.Valid stay present even when empty.
// The result is padded with zeros to a 4-byte boundary unless trailer is given.
func Encode(hdr Header, info *TableInfo, rows map[TableID][]Row, trailer []byte) ([]byte, error) {
	hdr.Valid |= validMask(info)
	hdr.HeapSizes = hdr.HeapSizes&^(HeapStringsLarge|HeapGUIDLarge|HeapBlobLarge) | info.HeapSizes()
	for id := TableID(0); id < MaxTables; id++ {
		hdr.Rows[id] = info.RowCount(id)
	}

	total := StreamSize(hdr, info)
	buf := make([]byte, total)
	hw := binary.NewWriterSize(hdr.Size())
	hdr.write(hw)
	copy(buf, hw.Bytes())

	offset := hdr.Size()
	for _, id := range AllTables() {
		list := rows[id]
		if uint32(len(list)) != info.RowCount(id) {
			return nil, errors.WriteLayoutFailed(errors.PhaseBuild,
				fmt.Sprintf("table %s has %d rows, sizing expects %d", id, len(list), info.RowCount(id)), nil)
		}
		for _, row := range list {
			if err := WriteRow(row, buf, &offset, info); err != nil {
				return nil, err
			}
		}
	}
	if offset != total {
		return nil, errors.WriteLayoutFailed(errors.PhaseBuild,
			fmt.Sprintf("tables stream wrote %d bytes, planned %d", offset, total), nil)
	}

	if trailer != nil {
		return append(buf, trailer...), nil
	}
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf, nil
}
