package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when a read runs past the end of the data.
var ErrTruncated = errors.New("metadata: unexpected end of data")

// ErrOverflow is returned when a value does not fit the field width it is written to.
var ErrOverflow = errors.New("metadata: value overflows field width")

// Reader reads little-endian metadata primitives from a byte slice with position tracking.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// NewReaderAt creates a Reader positioned at offset.
func NewReaderAt(data []byte, offset int) *Reader {
	return &Reader{data: data, pos: offset}
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

// Reset seeks to the given position.
func (r *Reader) Reset(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return r.wrapError(ErrTruncated)
	}
	r.pos = pos
	return nil
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, r.wrapError(ErrTruncated)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes. The result aliases the underlying data.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, r.wrapError(ErrTruncated)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	buf, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// ReadIndex reads a 2-byte or 4-byte index depending on large.
func (r *Reader) ReadIndex(large bool) (uint32, error) {
	if large {
		return r.ReadU32()
	}
	v, err := r.ReadU16()
	return uint32(v), err
}

// ReadCompressed reads an ECMA-335 compressed unsigned integer.
func (r *Reader) ReadCompressed() (uint32, error) {
	v, n, err := DecodeCompressed(r.data[min(r.pos, len(r.data)):])
	if err != nil {
		return 0, r.wrapError(err)
	}
	r.pos += n
	return v, nil
}

// ReadCString reads bytes up to a NUL terminator and consumes the terminator.
func (r *Reader) ReadCString() ([]byte, error) {
	for i := r.pos; i < len(r.data); i++ {
		if r.data[i] == 0 {
			s := r.data[r.pos:i]
			r.pos = i + 1
			return s, nil
		}
	}
	return nil, r.wrapError(ErrTruncated)
}

// Align advances the position to the next multiple of n.
func (r *Reader) Align(n int) error {
	pad := (n - r.pos%n) % n
	if r.Remaining() < pad {
		return r.wrapError(ErrTruncated)
	}
	r.pos += pad
	return nil
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at position %d: %w", r.pos, err)
}

// ParseError represents an error during metadata parsing with position information.
type ParseError struct {
	Err      error
	Stream   string
	Position int
}

func (e *ParseError) Error() string {
	if e.Stream != "" {
		return fmt.Sprintf("metadata: %s at position %d: %v", e.Stream, e.Position, e.Err)
	}
	return fmt.Sprintf("metadata: at position %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WrapError creates a ParseError with the current position.
func (r *Reader) WrapError(stream string, err error) error {
	return &ParseError{
		Position: r.pos,
		Stream:   stream,
		Err:      err,
	}
}
