package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Writer provides buffered writing utilities for metadata encoding.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// NewWriterSize creates a Writer with capacity preallocated.
func NewWriterSize(n int) *Writer {
	return &Writer{buf: bytes.NewBuffer(make([]byte, 0, n))}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteU16 writes a little-endian uint16.
func (w *Writer) WriteU16(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteU32 writes a little-endian uint32.
func (w *Writer) WriteU32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteU64 writes a little-endian uint64.
func (w *Writer) WriteU64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteCompressed writes an ECMA-335 compressed unsigned integer.
func (w *Writer) WriteCompressed(v uint32) error {
	enc, err := AppendCompressed(nil, v)
	if err != nil {
		return err
	}
	w.buf.Write(enc)
	return nil
}

// Pad appends pad bytes until the length is a multiple of align.
func (w *Writer) Pad(align int, pad byte) {
	for w.buf.Len()%align != 0 {
		w.buf.WriteByte(pad)
	}
}

// Cursor writes little-endian values into a fixed, preallocated buffer.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor creates a Cursor writing into buf starting at pos.
func NewCursor(buf []byte, pos int) *Cursor {
	return &Cursor{buf: buf, pos: pos}
}

// Position returns the current write position.
func (c *Cursor) Position() int {
	return c.pos
}

func (c *Cursor) reserve(n int) ([]byte, error) {
	if c.pos < 0 || c.pos+n > len(c.buf) {
		return nil, fmt.Errorf("at position %d: %w", c.pos, ErrTruncated)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// PutByte writes a single byte.
func (c *Cursor) PutByte(v byte) error {
	b, err := c.reserve(1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

// PutU16 writes a little-endian uint16.
func (c *Cursor) PutU16(v uint16) error {
	b, err := c.reserve(2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, v)
	return nil
}

// PutU32 writes a little-endian uint32.
func (c *Cursor) PutU32(v uint32) error {
	b, err := c.reserve(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

// PutIndex writes v as a 2-byte or 4-byte index. A value that does not fit
// a 2-byte field is reported as ErrOverflow, never truncated.
func (c *Cursor) PutIndex(v uint32, large bool) error {
	if large {
		return c.PutU32(v)
	}
	if v > 0xFFFF {
		return fmt.Errorf("index 0x%x: %w", v, ErrOverflow)
	}
	return c.PutU16(uint16(v))
}
