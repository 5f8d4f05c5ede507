package tables

import (
	"testing"

	"github.com/wippyai/cilmeta/errors"
)

func TestCodedIndexTagBits(t *testing.T) {
	tests := []struct {
		kind CodedIndexType
		want uint
	}{
		{TypeDefOrRef, 2},
		{HasConstant, 2},
		{HasCustomAttribute, 5},
		{HasFieldMarshal, 1},
		{HasDeclSecurity, 2},
		{MemberRefParent, 3},
		{HasSemantics, 1},
		{MethodDefOrRef, 1},
		{MemberForwarded, 1},
		{Implementation, 2},
		{CustomAttributeType, 3},
		{ResolutionScope, 2},
		{TypeOrMethodDef, 1},
		{HasCustomDebugInformation, 5},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.TagBits(); got != tt.want {
				t.Errorf("TagBits: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCodedIndexTableLists(t *testing.T) {
	if n := len(HasCustomAttribute.Tables()); n != 22 {
		t.Errorf("HasCustomAttribute: got %d tables, want 22", n)
	}
	if n := len(HasCustomDebugInformation.Tables()); n != 27 {
		t.Errorf("HasCustomDebugInformation: got %d tables, want 27", n)
	}
	if HasCustomAttribute.Tables()[21] != MethodSpec {
		t.Errorf("HasCustomAttribute tag 21: got %s, want MethodSpec", HasCustomAttribute.Tables()[21])
	}
	if HasCustomDebugInformation.Tables()[26] != ImportScope {
		t.Errorf("HasCustomDebugInformation tag 26: got %s, want ImportScope", HasCustomDebugInformation.Tables()[26])
	}
}

func TestCodedIndexRoundTrip(t *testing.T) {
	for _, kind := range CodedIndexTypes() {
		maxRow := uint32(0xFFFFFFFF) >> kind.TagBits()
		for _, table := range kind.Tables() {
			for _, row := range []uint32{0, 1, 0x3FFF, maxRow} {
				enc, err := EncodeCodedIndex(kind, table, row)
				if err != nil {
					t.Fatalf("%s EncodeCodedIndex(%s, %d): %v", kind, table, row, err)
				}
				got, err := DecodeCodedIndex(kind, enc)
				if err != nil {
					t.Fatalf("%s DecodeCodedIndex(0x%x): %v", kind, enc, err)
				}
				if got.Tag != table || got.Row != row || got.Kind != kind {
					t.Errorf("%s: decode(encode(%s, %d)) = %s", kind, table, row, got)
				}
			}
		}
	}
}

func TestCodedIndexEncodeKnownValues(t *testing.T) {
	tests := []struct {
		kind  CodedIndexType
		table TableID
		row   uint32
		want  uint32
	}{
		{TypeDefOrRef, TypeRef, 5, 5<<2 | 1},
		{TypeDefOrRef, TypeSpec, 1, 1<<2 | 2},
		{HasCustomAttribute, Assembly, 1, 1<<5 | 14},
		{CustomAttributeType, MethodDef, 3, 3<<3 | 2},
		{CustomAttributeType, MemberRef, 7, 7<<3 | 3},
		{ResolutionScope, AssemblyRef, 2, 2<<2 | 2},
	}

	for _, tt := range tests {
		got, err := EncodeCodedIndex(tt.kind, tt.table, tt.row)
		if err != nil {
			t.Errorf("EncodeCodedIndex(%s, %s, %d): %v", tt.kind, tt.table, tt.row, err)
			continue
		}
		if got != tt.want {
			t.Errorf("EncodeCodedIndex(%s, %s, %d): got 0x%x, want 0x%x", tt.kind, tt.table, tt.row, got, tt.want)
		}
	}
}

func TestCodedIndexErrors(t *testing.T) {
	t.Run("table outside set", func(t *testing.T) {
		_, err := EncodeCodedIndex(TypeDefOrRef, Field, 1)
		if !errors.Is(err, &errors.Error{Phase: errors.PhaseBuild, Kind: errors.KindMalformed}) {
			t.Errorf("expected malformed, got %v", err)
		}
	})

	t.Run("row overflow", func(t *testing.T) {
		_, err := EncodeCodedIndex(HasCustomAttribute, TypeDef, 1<<27)
		if !errors.Is(err, &errors.Error{Phase: errors.PhaseBuild, Kind: errors.KindOverflow}) {
			t.Errorf("expected overflow, got %v", err)
		}
	})

	t.Run("tag out of range", func(t *testing.T) {
		if _, err := DecodeCodedIndex(TypeDefOrRef, 3); err == nil {
			t.Error("tag 3 of TypeDefOrRef should not decode")
		}
	})

	t.Run("unused custom attribute tag", func(t *testing.T) {
		for _, tag := range []uint32{0, 1, 4} {
			if _, err := DecodeCodedIndex(CustomAttributeType, 1<<3|tag); err == nil {
				t.Errorf("tag %d of CustomAttributeType should not decode", tag)
			}
		}
	})
}

func TestToken(t *testing.T) {
	tok := NewToken(TypeDef, 0x1234)
	if tok.Table() != TypeDef || tok.RID() != 0x1234 {
		t.Errorf("got table %s rid %d", tok.Table(), tok.RID())
	}
	if tok.String() != "0x02001234" {
		t.Errorf("String: got %s, want 0x02001234", tok)
	}
	if !NewToken(Field, 0).IsNull() {
		t.Error("RID 0 should be null")
	}

	ci := CodedFromToken(MemberRefParent, NewToken(TypeSpec, 9))
	if ci.Tag != TypeSpec || ci.Row != 9 || ci.Token() != NewToken(TypeSpec, 9) {
		t.Errorf("CodedFromToken: got %s", ci)
	}
}
