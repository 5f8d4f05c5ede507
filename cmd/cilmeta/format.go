package main

import (
	"fmt"
	"strings"

	"github.com/wippyai/cilmeta/assembly"
	"github.com/wippyai/cilmeta/tables"
)

// cell renders one column of a row.
func cell(asm *assembly.Assembly, col *tables.Column) string {
	v := col.Value()
	switch col.Kind {
	case tables.ColString:
		if v == 0 {
			return `""`
		}
		if s, ok := assembly.StringAt(asm, v); ok {
			return fmt.Sprintf("%q", s)
		}
		return fmt.Sprintf("#Strings[0x%x]", v)
	case tables.ColBlob:
		return fmt.Sprintf("#Blob[0x%x]", v)
	case tables.ColGUID:
		return fmt.Sprintf("#GUID[%d]", v)
	case tables.ColTable:
		if v == 0 {
			return "null"
		}
		return tables.NewToken(col.Target, v).String()
	case tables.ColCoded:
		if v == 0 {
			return "null"
		}
		return col.CodedIndex().Token().String()
	}
	return fmt.Sprintf("0x%x", v)
}

// rowCells renders every column of row, with the token first.
func rowCells(asm *assembly.Assembly, row tables.Row) []string {
	cols := tables.Columns(row)
	out := make([]string, 0, len(cols)+1)
	out = append(out, row.Header().Token.String())
	for i := range cols {
		out = append(out, cell(asm, &cols[i]))
	}
	return out
}

// columnNames returns the header of a table listing.
func columnNames(id tables.TableID) ([]string, error) {
	row := tables.NewRow(id)
	if row == nil {
		return nil, fmt.Errorf("unknown table %s", id)
	}
	cols := tables.Columns(row)
	out := make([]string, 0, len(cols)+1)
	out = append(out, "Token")
	for _, c := range cols {
		out = append(out, c.Name)
	}
	return out, nil
}

func formatRow(names, cells []string) string {
	var b strings.Builder
	b.WriteString(cells[0])
	for i := 1; i < len(cells); i++ {
		fmt.Fprintf(&b, " %s=%s", names[i], cells[i])
	}
	return b.String()
}
