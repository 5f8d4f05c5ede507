package binary

import (
	"errors"
	"fmt"
)

// MaxCompressed is the largest value representable as a compressed unsigned integer.
const MaxCompressed = 0x1FFFFFFF

// ErrInvalidCompressed is returned for a compressed integer with a reserved lead byte.
var ErrInvalidCompressed = errors.New("metadata: invalid compressed integer")

// CompressedSize returns the encoded length of v.
func CompressedSize(v uint32) (int, error) {
	switch {
	case v < 0x80:
		return 1, nil
	case v < 0x4000:
		return 2, nil
	case v <= MaxCompressed:
		return 4, nil
	default:
		return 0, fmt.Errorf("compressed value 0x%x: %w", v, ErrOverflow)
	}
}

// AppendCompressed appends the compressed encoding of v to dst.
func AppendCompressed(dst []byte, v uint32) ([]byte, error) {
	switch {
	case v < 0x80:
		return append(dst, byte(v)), nil
	case v < 0x4000:
		return append(dst, 0x80|byte(v>>8), byte(v)), nil
	case v <= MaxCompressed:
		return append(dst, 0xC0|byte(v>>24), byte(v>>16), byte(v>>8), byte(v)), nil
	default:
		return dst, fmt.Errorf("compressed value 0x%x: %w", v, ErrOverflow)
	}
}

// DecodeCompressed decodes a compressed unsigned integer from the start of
// data and returns the value and the number of bytes consumed.
func DecodeCompressed(data []byte) (uint32, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrTruncated
	}
	b0 := data[0]
	switch {
	case b0&0x80 == 0:
		return uint32(b0), 1, nil
	case b0&0xC0 == 0x80:
		if len(data) < 2 {
			return 0, 0, ErrTruncated
		}
		return uint32(b0&0x3F)<<8 | uint32(data[1]), 2, nil
	case b0&0xE0 == 0xC0:
		if len(data) < 4 {
			return 0, 0, ErrTruncated
		}
		return uint32(b0&0x1F)<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3]), 4, nil
	default:
		return 0, 0, ErrInvalidCompressed
	}
}
