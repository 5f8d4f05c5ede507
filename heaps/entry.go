package heaps

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/internal/binary"
)

// StringEntrySize returns the encoded size of a #Strings entry.
func StringEntrySize(s string) uint32 {
	return uint32(len(s)) + 1
}

// EncodeString returns s followed by its NUL terminator.
func EncodeString(s string) ([]byte, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, errors.InvalidData(errors.PhaseBuild, NameStrings, "string contains an embedded NUL")
	}
	if !utf8.ValidString(s) {
		return nil, errors.InvalidData(errors.PhaseBuild, NameStrings, "string is not valid UTF-8")
	}
	out := make([]byte, len(s)+1)
	copy(out, s)
	return out, nil
}

// BlobEntrySize returns the encoded size of a #Blob entry.
func BlobEntrySize(b []byte) uint32 {
	n, err := binary.CompressedSize(uint32(len(b)))
	if err != nil {
		n = 4
	}
	return uint32(n + len(b))
}

// EncodeBlob returns b with its compressed length prefix.
func EncodeBlob(b []byte) ([]byte, error) {
	if len(b) > binary.MaxCompressed {
		return nil, errors.Overflow(errors.PhaseBuild, NameBlob, len(b), 4)
	}
	out, err := binary.AppendCompressed(make([]byte, 0, len(b)+4), uint32(len(b)))
	if err != nil {
		return nil, err
	}
	return append(out, b...), nil
}

// UserStringEntrySize returns the encoded size of a #US entry.
func UserStringEntrySize(s string) uint32 {
	payload := uint32(len(binary.EncodeUTF16LE(s))) + 1
	n, err := binary.CompressedSize(payload)
	if err != nil {
		n = 4
	}
	return uint32(n) + payload
}

// EncodeUserString returns s as a #US entry: compressed length, UTF-16LE
// code units, and a flag byte that is 1 when any code point is >= 0x80.
func EncodeUserString(s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, errors.InvalidData(errors.PhaseBuild, NameUserStrings, "string is not valid UTF-8")
	}
	units := binary.EncodeUTF16LE(s)
	payload := len(units) + 1
	if payload > binary.MaxCompressed {
		return nil, errors.Overflow(errors.PhaseBuild, NameUserStrings, payload, 4)
	}
	out, err := binary.AppendCompressed(make([]byte, 0, payload+4), uint32(payload))
	if err != nil {
		return nil, err
	}
	out = append(out, units...)
	var flag byte
	for _, r := range s {
		if r >= 0x80 {
			flag = 1
			break
		}
	}
	return append(out, flag), nil
}

// GUIDEntrySize is the index advance of one #GUID append: one slot.
func GUIDEntrySize(uuid.UUID) uint32 {
	return 1
}
