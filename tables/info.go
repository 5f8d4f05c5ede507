package tables

import "math/bits"

// HeapSizes flag bits in the tables-stream header.
const (
	HeapStringsLarge uint8 = 0x01
	HeapGUIDLarge    uint8 = 0x02
	HeapBlobLarge    uint8 = 0x04
)

// Heap identifies one of the index-addressed heaps.
type Heap uint8

const (
	HeapStrings Heap = iota
	HeapGUID
	HeapBlob
)

// TableInfo holds the row counts and heap-size flags that determine every
// dynamic column width.
type TableInfo struct {
	rows      [MaxTables]uint32
	heapSizes uint8
}

// NewTableInfo creates sizing info from row counts indexed by table id.
func NewTableInfo(rows map[TableID]uint32, heapSizes uint8) *TableInfo {
	info := &TableInfo{heapSizes: heapSizes}
	for id, n := range rows {
		info.rows[id] = n
	}
	return info
}

// Clone returns an independent copy.
func (i *TableInfo) Clone() *TableInfo {
	c := *i
	return &c
}

// RowCount returns the number of rows of table.
func (i *TableInfo) RowCount(table TableID) uint32 {
	return i.rows[table]
}

// SetRowCount sets the number of rows of table.
func (i *TableInfo) SetRowCount(table TableID, n uint32) {
	i.rows[table] = n
}

// HeapSizes returns the header heap-size flags.
func (i *TableInfo) HeapSizes() uint8 {
	return i.heapSizes
}

// SetHeapLarge sets or clears the large flag of heap.
func (i *TableInfo) SetHeapLarge(h Heap, large bool) {
	flag := heapFlag(h)
	if large {
		i.heapSizes |= flag
	} else {
		i.heapSizes &^= flag
	}
}

func heapFlag(h Heap) uint8 {
	switch h {
	case HeapStrings:
		return HeapStringsLarge
	case HeapGUID:
		return HeapGUIDLarge
	default:
		return HeapBlobLarge
	}
}

// IsLargeHeap reports whether indexes into h are 4 bytes wide.
func (i *TableInfo) IsLargeHeap(h Heap) bool {
	return i.heapSizes&heapFlag(h) != 0
}

// IsLargeTable reports whether simple indexes into table are 4 bytes wide.
func (i *TableInfo) IsLargeTable(table TableID) bool {
	return i.rows[table] > 0xFFFF
}

// IsLargeCoded reports whether kind needs 4 bytes. The largest participating
// row count plus the tag must fit in 16 bits for the 2-byte form.
func (i *TableInfo) IsLargeCoded(kind CodedIndexType) bool {
	var maxRows uint32
	for _, t := range kind.Tables() {
		maxRows = max(maxRows, i.rows[t])
	}
	return uint(bits.Len32(maxRows))+kind.TagBits() > 16
}

// HeapIndexBytes returns the width of an index into h.
func (i *TableInfo) HeapIndexBytes(h Heap) int {
	return width(i.IsLargeHeap(h))
}

// TableIndexBytes returns the width of a simple index into table.
func (i *TableInfo) TableIndexBytes(table TableID) int {
	return width(i.IsLargeTable(table))
}

// CodedIndexBytes returns the width of a coded index of kind.
func (i *TableInfo) CodedIndexBytes(kind CodedIndexType) int {
	return width(i.IsLargeCoded(kind))
}

// HeapLargeForSize reports whether a heap stream of size bytes needs
// 4-byte indexes.
func HeapLargeForSize(size uint64) bool {
	return size > 0xFFFF
}

func width(large bool) int {
	if large {
		return 4
	}
	return 2
}
