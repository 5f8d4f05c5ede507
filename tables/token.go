package tables

import "fmt"

// Token is a table id in the high byte and a 1-based RID in the low 24 bits.
type Token uint32

// MaxRID is the largest row identifier a token can carry.
const MaxRID = 0x00FFFFFF

// NewToken builds a token from a table and row.
func NewToken(table TableID, rid uint32) Token {
	return Token(uint32(table)<<24 | rid&MaxRID)
}

// Table returns the table id.
func (t Token) Table() TableID {
	return TableID(t >> 24)
}

// RID returns the row identifier.
func (t Token) RID() uint32 {
	return uint32(t) & MaxRID
}

// IsNull reports whether the token refers to no row.
func (t Token) IsNull() bool {
	return t.RID() == 0
}

// String renders the token as 0xTTRRRRRR.
func (t Token) String() string {
	return fmt.Sprintf("0x%08x", uint32(t))
}
