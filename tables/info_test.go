package tables

import "testing"

func TestCodedIndexWidthThreshold(t *testing.T) {
	tests := []struct {
		name  string
		kind  CodedIndexType
		table TableID
		rows  uint32
		want  int
	}{
		{"empty", TypeDefOrRef, TypeDef, 0, 2},
		{"two tag bits below limit", TypeDefOrRef, TypeSpec, 1<<14 - 1, 2},
		{"two tag bits at limit", TypeDefOrRef, TypeSpec, 1 << 14, 4},
		{"five tag bits below limit", HasCustomAttribute, MethodSpec, 1<<11 - 1, 2},
		{"five tag bits at limit", HasCustomAttribute, MethodSpec, 1 << 11, 4},
		{"one tag bit below limit", HasSemantics, Property, 1<<15 - 1, 2},
		{"one tag bit at limit", HasSemantics, Property, 1 << 15, 4},
		{"non participating table", HasSemantics, TypeDef, 1 << 20, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := NewTableInfo(map[TableID]uint32{tt.table: tt.rows}, 0)
			if got := info.CodedIndexBytes(tt.kind); got != tt.want {
				t.Errorf("CodedIndexBytes: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTableIndexWidth(t *testing.T) {
	info := NewTableInfo(map[TableID]uint32{Field: 0xFFFF, MethodDef: 0x10000}, 0)
	if got := info.TableIndexBytes(Field); got != 2 {
		t.Errorf("Field: got %d, want 2", got)
	}
	if got := info.TableIndexBytes(MethodDef); got != 4 {
		t.Errorf("MethodDef: got %d, want 4", got)
	}
}

func TestHeapFlags(t *testing.T) {
	info := NewTableInfo(nil, HeapBlobLarge)
	if info.IsLargeHeap(HeapStrings) || info.IsLargeHeap(HeapGUID) || !info.IsLargeHeap(HeapBlob) {
		t.Errorf("flags 0x%02x decoded wrong", info.HeapSizes())
	}

	info.SetHeapLarge(HeapStrings, true)
	info.SetHeapLarge(HeapBlob, false)
	if info.HeapSizes() != HeapStringsLarge {
		t.Errorf("HeapSizes: got 0x%02x, want 0x%02x", info.HeapSizes(), HeapStringsLarge)
	}
	if info.HeapIndexBytes(HeapStrings) != 4 || info.HeapIndexBytes(HeapBlob) != 2 {
		t.Error("heap index widths do not follow flags")
	}

	if HeapLargeForSize(0xFFFF) || !HeapLargeForSize(0x10000) {
		t.Error("HeapLargeForSize threshold")
	}
}

func TestTableInfoClone(t *testing.T) {
	info := NewTableInfo(map[TableID]uint32{TypeDef: 3}, 0)
	c := info.Clone()
	c.SetRowCount(TypeDef, 5)
	if info.RowCount(TypeDef) != 3 {
		t.Error("Clone shares row counts with original")
	}
}
