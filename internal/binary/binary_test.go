package binary

import (
	"bytes"
	"errors"
	"testing"
)

func TestReaderReadByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	r := NewReader(data)

	for i, want := range data {
		if r.Position() != i {
			t.Errorf("position before read %d: got %d, want %d", i, r.Position(), i)
		}
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	_, err := r.ReadByte()
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestReaderFixedWidth(t *testing.T) {
	data := []byte{
		0x34, 0x12,
		0x78, 0x56, 0x34, 0x12,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
	}
	r := NewReader(data)

	u16, err := r.ReadU16()
	if err != nil || u16 != 0x1234 {
		t.Errorf("ReadU16: got 0x%x, %v", u16, err)
	}
	u32, err := r.ReadU32()
	if err != nil || u32 != 0x12345678 {
		t.Errorf("ReadU32: got 0x%x, %v", u32, err)
	}
	u64, err := r.ReadU64()
	if err != nil || u64 != 0x0102030405060708 {
		t.Errorf("ReadU64: got 0x%x, %v", u64, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("remaining: got %d, want 0", r.Remaining())
	}
}

func TestReaderReadIndex(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		large bool
		want  uint32
		pos   int
	}{
		{"small zero", []byte{0x00, 0x00}, false, 0, 2},
		{"small max", []byte{0xFF, 0xFF}, false, 0xFFFF, 2},
		{"large", []byte{0x01, 0x00, 0x01, 0x00}, true, 0x00010001, 4},
		{"large max", []byte{0xFF, 0xFF, 0xFF, 0xFF}, true, 0xFFFFFFFF, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.data)
			got, err := r.ReadIndex(tt.large)
			if err != nil {
				t.Fatalf("ReadIndex: %v", err)
			}
			if got != tt.want {
				t.Errorf("got 0x%x, want 0x%x", got, tt.want)
			}
			if r.Position() != tt.pos {
				t.Errorf("position: got %d, want %d", r.Position(), tt.pos)
			}
		})
	}
}

func TestReaderReadCString(t *testing.T) {
	r := NewReader([]byte("abc\x00de\x00f"))

	s, err := r.ReadCString()
	if err != nil || string(s) != "abc" {
		t.Fatalf("first: got %q, %v", s, err)
	}
	s, err = r.ReadCString()
	if err != nil || string(s) != "de" {
		t.Fatalf("second: got %q, %v", s, err)
	}
	if _, err = r.ReadCString(); !errors.Is(err, ErrTruncated) {
		t.Errorf("unterminated: expected ErrTruncated, got %v", err)
	}
}

func TestReaderAlign(t *testing.T) {
	r := NewReader(make([]byte, 8))
	_, _ = r.ReadByte()
	if err := r.Align(4); err != nil {
		t.Fatalf("Align: %v", err)
	}
	if r.Position() != 4 {
		t.Errorf("position: got %d, want 4", r.Position())
	}
	if err := r.Align(4); err != nil || r.Position() != 4 {
		t.Errorf("aligned position should not move: %d, %v", r.Position(), err)
	}
}

func TestCompressed(t *testing.T) {
	tests := []struct {
		value   uint32
		encoded []byte
	}{
		{0x00, []byte{0x00}},
		{0x03, []byte{0x03}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x80, 0x80}},
		{0x2E57, []byte{0xAE, 0x57}},
		{0x3FFF, []byte{0xBF, 0xFF}},
		{0x4000, []byte{0xC0, 0x00, 0x40, 0x00}},
		{0x1FFFFFFF, []byte{0xDF, 0xFF, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		got, err := AppendCompressed(nil, tt.value)
		if err != nil {
			t.Errorf("AppendCompressed(0x%x): %v", tt.value, err)
			continue
		}
		if !bytes.Equal(got, tt.encoded) {
			t.Errorf("AppendCompressed(0x%x): got %x, want %x", tt.value, got, tt.encoded)
		}
		size, _ := CompressedSize(tt.value)
		if size != len(tt.encoded) {
			t.Errorf("CompressedSize(0x%x): got %d, want %d", tt.value, size, len(tt.encoded))
		}

		v, n, err := DecodeCompressed(tt.encoded)
		if err != nil || v != tt.value || n != len(tt.encoded) {
			t.Errorf("DecodeCompressed(%x): got 0x%x/%d/%v, want 0x%x/%d", tt.encoded, v, n, err, tt.value, len(tt.encoded))
		}
	}
}

func TestCompressedErrors(t *testing.T) {
	if _, err := AppendCompressed(nil, 0x20000000); !errors.Is(err, ErrOverflow) {
		t.Errorf("oversized value: expected ErrOverflow, got %v", err)
	}
	if _, _, err := DecodeCompressed([]byte{0x80}); !errors.Is(err, ErrTruncated) {
		t.Errorf("short 2-byte form: expected ErrTruncated, got %v", err)
	}
	if _, _, err := DecodeCompressed([]byte{0xC0, 0x00}); !errors.Is(err, ErrTruncated) {
		t.Errorf("short 4-byte form: expected ErrTruncated, got %v", err)
	}
	if _, _, err := DecodeCompressed([]byte{0xFF}); !errors.Is(err, ErrInvalidCompressed) {
		t.Errorf("reserved lead byte: expected ErrInvalidCompressed, got %v", err)
	}
}

func TestWriter(t *testing.T) {
	w := NewWriter()
	w.Byte(0x01)
	w.WriteU16(0x0302)
	w.WriteU32(0x07060504)
	w.WriteU64(0x0f0e0d0c0b0a0908)
	if err := w.WriteCompressed(0x80); err != nil {
		t.Fatalf("WriteCompressed: %v", err)
	}
	w.Pad(4, 0)

	want := []byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x80,
		0x80, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("got %x, want %x", w.Bytes(), want)
	}
}

func TestCursorPutIndex(t *testing.T) {
	buf := make([]byte, 6)
	c := NewCursor(buf, 0)

	if err := c.PutIndex(0xFFFF, false); err != nil {
		t.Fatalf("small max: %v", err)
	}
	if err := c.PutIndex(0x10000, true); err != nil {
		t.Fatalf("large: %v", err)
	}
	if !bytes.Equal(buf, []byte{0xFF, 0xFF, 0x00, 0x00, 0x01, 0x00}) {
		t.Errorf("got %x", buf)
	}

	c = NewCursor(make([]byte, 2), 0)
	if err := c.PutIndex(0x10000, false); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
	if c.Position() != 0 {
		t.Errorf("overflow must not advance: position %d", c.Position())
	}

	c = NewCursor(make([]byte, 3), 2)
	if err := c.PutU16(1); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestUTF16(t *testing.T) {
	tests := []string{"", "Hello", "héllo", "日本", "\U0001F600"}
	for _, s := range tests {
		enc := EncodeUTF16LE(s)
		got, err := DecodeUTF16LE(enc)
		if err != nil {
			t.Errorf("DecodeUTF16LE(%q): %v", s, err)
			continue
		}
		if got != s {
			t.Errorf("round trip %q: got %q", s, got)
		}
	}

	if !bytes.Equal(EncodeUTF16LE("Hi"), []byte{'H', 0, 'i', 0}) {
		t.Errorf("EncodeUTF16LE(Hi): got %x", EncodeUTF16LE("Hi"))
	}
	if _, err := DecodeUTF16LE([]byte{0x41}); !errors.Is(err, ErrOddUTF16) {
		t.Errorf("odd length: expected ErrOddUTF16, got %v", err)
	}
}

func TestParseError(t *testing.T) {
	r := NewReader([]byte{0x01})
	_, _ = r.ReadByte()
	err := r.WrapError("#~", ErrTruncated)

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Position != 1 || pe.Stream != "#~" {
		t.Errorf("got position %d stream %q", pe.Position, pe.Stream)
	}
	if !errors.Is(err, ErrTruncated) {
		t.Error("ParseError should unwrap to cause")
	}
}
