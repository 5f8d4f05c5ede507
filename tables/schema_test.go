package tables

import (
	"bytes"
	"testing"

	"github.com/wippyai/cilmeta/errors"
)

func smallInfo() *TableInfo {
	rows := make(map[TableID]uint32)
	for _, id := range AllTables() {
		rows[id] = 10
	}
	return NewTableInfo(rows, 0)
}

func largeInfo() *TableInfo {
	rows := make(map[TableID]uint32)
	for _, id := range AllTables() {
		rows[id] = 0x10000
	}
	return NewTableInfo(rows, HeapStringsLarge|HeapGUIDLarge|HeapBlobLarge)
}

// fillMax sets every column of row to the largest value its width allows.
func fillMax(row Row, info *TableInfo) {
	for _, c := range Columns(row) {
		switch c.Kind {
		case ColU8:
			c.Set(0xFF)
		case ColU16:
			c.Set(0xFFFF)
		case ColU32:
			c.Set(0xFFFFFFFF)
		case ColCoded:
			tables := c.Coded.Tables()
			c.CodedIndex().Tag = tables[len(tables)-1]
			limit := uint32(0xFFFF)
			if c.Size(info) == 4 {
				limit = 0xFFFFFFFF
			}
			c.Set(limit >> c.Coded.TagBits())
		default:
			if c.Size(info) == 4 {
				c.Set(0xFFFFFFFF)
			} else {
				c.Set(0xFFFF)
			}
		}
	}
}

func TestRowRoundTrip(t *testing.T) {
	configs := []struct {
		name string
		info *TableInfo
	}{
		{"small", smallInfo()},
		{"large", largeInfo()},
	}

	for _, cfg := range configs {
		for _, id := range AllTables() {
			for _, boundary := range []string{"zero", "max"} {
				t.Run(cfg.name+"/"+id.String()+"/"+boundary, func(t *testing.T) {
					row := NewRow(id)
					if boundary == "max" {
						fillMax(row, cfg.info)
					}

					size := RowSize(id, cfg.info)
					buf := make([]byte, size)
					offset := 0
					if err := WriteRow(row, buf, &offset, cfg.info); err != nil {
						t.Fatalf("WriteRow: %v", err)
					}
					if uint32(offset) != size {
						t.Fatalf("WriteRow advanced %d bytes, RowSize says %d", offset, size)
					}

					got := NewRow(id)
					offset = 0
					if err := DecodeRow(got, buf, &offset, 7, cfg.info); err != nil {
						t.Fatalf("DecodeRow: %v", err)
					}
					if !RowsEqual(row, got) {
						t.Errorf("row changed across write/read")
					}
					if got.Header().RID != 7 || got.Header().Token != NewToken(id, 7) {
						t.Errorf("header: got rid %d token %s", got.Header().RID, got.Header().Token)
					}

					again := make([]byte, size)
					offset = 0
					if err := WriteRow(got, again, &offset, cfg.info); err != nil {
						t.Fatalf("rewrite: %v", err)
					}
					if !bytes.Equal(buf, again) {
						t.Errorf("rewrite not byte exact: %x vs %x", buf, again)
					}
				})
			}
		}
	}
}

func TestRowSizes(t *testing.T) {
	tests := []struct {
		table TableID
		small uint32
		large uint32
	}{
		{Module, 10, 18},
		{TypeRef, 6, 12},
		{TypeDef, 14, 24},
		{Field, 6, 10},
		{MethodDef, 14, 20},
		{Constant, 6, 10},
		{ClassLayout, 8, 10},
		{Assembly, 22, 28},
		{AssemblyRef, 20, 28},
		{ExportedType, 14, 20},
		{LocalScope, 16, 24},
	}

	small, large := smallInfo(), largeInfo()
	for _, tt := range tests {
		if got := RowSize(tt.table, small); got != tt.small {
			t.Errorf("%s small: got %d, want %d", tt.table, got, tt.small)
		}
		if got := RowSize(tt.table, large); got != tt.large {
			t.Errorf("%s large: got %d, want %d", tt.table, got, tt.large)
		}
	}
}

func TestWriteRowOverflow(t *testing.T) {
	info := smallInfo()
	row := &TypeDefRaw{FieldList: 0x10000}
	row.Token = NewToken(TypeDef, 3)

	buf := make([]byte, RowSize(TypeDef, info))
	offset := 0
	err := WriteRow(row, buf, &offset, info)
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseBuild, Kind: errors.KindOverflow}) {
		t.Fatalf("expected overflow, got %v", err)
	}

	var e *errors.Error
	if !errors.As(err, &e) || e.Field != "FieldList" || e.Token != uint32(NewToken(TypeDef, 3)) {
		t.Errorf("error should name field and token: %v", err)
	}
	if offset != 0 {
		t.Errorf("failed write advanced offset to %d", offset)
	}
}

func TestWriteRowCodedOverflow(t *testing.T) {
	info := smallInfo()
	row := &CustomAttributeRaw{
		Parent: NewCodedIndex(HasCustomAttribute, TypeDef, 1<<11),
		Type:   NewCodedIndex(CustomAttributeType, MethodDef, 1),
	}

	buf := make([]byte, RowSize(CustomAttribute, info))
	offset := 0
	if err := WriteRow(row, buf, &offset, info); err == nil {
		t.Fatal("coded value beyond 16 bits should fail in small layout")
	}
}

func TestValidateRow(t *testing.T) {
	tests := []struct {
		name    string
		row     Row
		wantErr bool
	}{
		{"packing zero", &ClassLayoutRaw{PackingSize: 0, Parent: 1}, false},
		{"packing eight", &ClassLayoutRaw{PackingSize: 8, Parent: 1}, false},
		{"packing 128", &ClassLayoutRaw{PackingSize: 128, Parent: 1}, false},
		{"packing three", &ClassLayoutRaw{PackingSize: 3, Parent: 1}, true},
		{"packing 256", &ClassLayoutRaw{PackingSize: 256, Parent: 1}, true},
		{"class size too large", &ClassLayoutRaw{ClassSize: MaxClassSize + 1, Parent: 1}, true},
		{"self nesting", &NestedClassRaw{NestedClass: 2, EnclosingClass: 2}, true},
		{"nesting", &NestedClassRaw{NestedClass: 2, EnclosingClass: 1}, false},
		{"coded tag outside set", &InterfaceImplRaw{Class: 1, Interface: CodedIndex{Tag: Field, Row: 1, Kind: TypeDefOrRef}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRow(tt.row, errors.PhasePlan)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateRow: got %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, &errors.Error{Phase: errors.PhasePlan, Kind: errors.KindMalformed}) {
				t.Errorf("expected plan/malformed, got %v", err)
			}
		})
	}
}

func TestCloneRow(t *testing.T) {
	orig := &MemberRefRaw{
		Class:     NewCodedIndex(MemberRefParent, TypeRef, 4),
		Name:      12,
		Signature: 30,
	}
	orig.RID = 2

	c := CloneRow(orig).(*MemberRefRaw)
	if !RowsEqual(orig, c) || c.RID != 2 {
		t.Fatalf("clone differs: %+v", c)
	}
	c.Class.Row = 5
	if orig.Class.Row != 4 {
		t.Error("clone shares coded index with original")
	}
}

func BenchmarkDecodeTypeDef(b *testing.B) {
	info := smallInfo()
	size := int(RowSize(TypeDef, info))
	data := make([]byte, size*256)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		offset := 0
		for rid := uint32(1); rid <= 256; rid++ {
			if _, err := ReadRow[TypeDefRaw](data, &offset, rid, info); err != nil {
				b.Fatal(err)
			}
		}
	}
}
