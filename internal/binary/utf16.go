package binary

import (
	"encoding/binary"
	"errors"
	"unicode/utf16"
)

// ErrOddUTF16 is returned when a UTF-16LE payload has an odd byte length.
var ErrOddUTF16 = errors.New("metadata: odd UTF-16 byte length")

// EncodeUTF16LE encodes s as UTF-16 little-endian without terminator.
func EncodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[i*2:], u)
	}
	return out
}

// DecodeUTF16LE decodes UTF-16 little-endian bytes.
func DecodeUTF16LE(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", ErrOddUTF16
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(units)), nil
}
