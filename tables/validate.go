package tables

import (
	"fmt"

	"github.com/wippyai/cilmeta/errors"
)

// MaxClassSize is the largest class size a ClassLayout row may declare.
const MaxClassSize = 0x10000000

// MaxPackingSize is the largest packing size a ClassLayout row may declare.
const MaxPackingSize = 128

// ValidPackingSize reports whether p is 0 or a power of two no larger than 128.
func ValidPackingSize(p uint16) bool {
	return p <= MaxPackingSize && p&(p-1) == 0
}

// ValidateRow checks field combinations that cannot be expressed by the
// column types alone. Violations are Malformed errors carrying the row token.
func ValidateRow(row Row, phase errors.Phase) error {
	tok := uint32(row.Header().Token)
	switch r := row.(type) {
	case *ClassLayoutRaw:
		if !ValidPackingSize(r.PackingSize) {
			return malformed(phase, row, tok, "PackingSize",
				fmt.Sprintf("packing size %d is not 0 or a power of two up to %d", r.PackingSize, MaxPackingSize))
		}
		if r.ClassSize > MaxClassSize {
			return malformed(phase, row, tok, "ClassSize",
				fmt.Sprintf("class size 0x%x exceeds 0x%x", r.ClassSize, MaxClassSize))
		}
		if r.Parent == 0 {
			return malformed(phase, row, tok, "Parent", "null parent type")
		}
	case *NestedClassRaw:
		if r.NestedClass == r.EnclosingClass {
			return malformed(phase, row, tok, "EnclosingClass", "type cannot enclose itself")
		}
		if r.NestedClass == 0 || r.EnclosingClass == 0 {
			return malformed(phase, row, tok, "NestedClass", "null type reference")
		}
	case *FieldLayoutRaw:
		if r.Field == 0 {
			return malformed(phase, row, tok, "Field", "null field reference")
		}
	case *FieldRVARaw:
		if r.Field == 0 {
			return malformed(phase, row, tok, "Field", "null field reference")
		}
	case *InterfaceImplRaw:
		if r.Class == 0 {
			return malformed(phase, row, tok, "Class", "null class reference")
		}
	}

	for _, c := range Columns(row) {
		if c.Kind == ColCoded && !c.Coded.Contains(c.ci.Tag) {
			return malformed(phase, row, tok, c.Name,
				fmt.Sprintf("table %s is not part of %s", c.ci.Tag, c.Coded))
		}
	}
	return nil
}

func malformed(phase errors.Phase, row Row, tok uint32, field, detail string) error {
	e := errors.MalformedIn(phase, tok, field, detail)
	e.Table = row.TableID().String()
	return e
}
