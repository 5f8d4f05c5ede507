package heaps

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"

	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/internal/binary"
)

// Stream names as they appear in the metadata root.
const (
	NameStrings     = "#Strings"
	NameBlob        = "#Blob"
	NameGUID        = "#GUID"
	NameUserStrings = "#US"
)

// GUIDSize is the size of one #GUID slot.
const GUIDSize = 16

func outOfBounds(heap string, index uint32, length int) error {
	return errors.New(errors.PhaseRead, errors.KindOutOfBounds).
		Table(heap).
		Value(index).
		Detail("index %d out of bounds (heap size %d)", index, length).
		Build()
}

func malformed(heap string, index uint32, detail string, cause error) error {
	return errors.New(errors.PhaseRead, errors.KindMalformed).
		Table(heap).
		Value(index).
		Detail("entry at %d: %s", index, detail).
		Cause(cause).
		Build()
}

// Strings reads the #Strings heap: UTF-8, NUL-terminated entries.
type Strings struct {
	data []byte
}

// NewStrings wraps heap bytes. A nil slice is an empty heap.
func NewStrings(data []byte) *Strings {
	return &Strings{data: data}
}

// Data returns the raw heap bytes.
func (s *Strings) Data() []byte { return s.data }

// Len returns the heap size in bytes.
func (s *Strings) Len() int { return len(s.data) }

// Get returns the string at byte offset index. Index 0 is the empty string.
func (s *Strings) Get(index uint32) (string, error) {
	if index == 0 && len(s.data) == 0 {
		return "", nil
	}
	if int(index) >= len(s.data) {
		return "", outOfBounds(NameStrings, index, len(s.data))
	}
	end := bytes.IndexByte(s.data[index:], 0)
	if end < 0 {
		return "", malformed(NameStrings, index, "missing NUL terminator", binary.ErrTruncated)
	}
	return string(s.data[index : int(index)+end]), nil
}

// All yields every entry after the reserved empty string, with its offset.
// Iteration stops at a missing terminator.
func (s *Strings) All() func(yield func(uint32, string) bool) {
	return func(yield func(uint32, string) bool) {
		pos := 1
		for pos < len(s.data) {
			end := bytes.IndexByte(s.data[pos:], 0)
			if end < 0 {
				return
			}
			if !yield(uint32(pos), string(s.data[pos:pos+end])) {
				return
			}
			pos += end + 1
		}
	}
}

// Find returns the offset of the first entry equal to value.
func (s *Strings) Find(value string) (uint32, bool) {
	if value == "" {
		return 0, true
	}
	for off, v := range s.All() {
		if v == value {
			return off, true
		}
	}
	return 0, false
}

// Blob reads the #Blob heap: compressed length prefix plus raw bytes.
type Blob struct {
	data []byte
}

// NewBlob wraps heap bytes.
func NewBlob(data []byte) *Blob {
	return &Blob{data: data}
}

// Data returns the raw heap bytes.
func (b *Blob) Data() []byte { return b.data }

// Len returns the heap size in bytes.
func (b *Blob) Len() int { return len(b.data) }

// Get returns the blob at byte offset index, aliasing the heap bytes.
func (b *Blob) Get(index uint32) ([]byte, error) {
	if index == 0 && len(b.data) == 0 {
		return nil, nil
	}
	start, n, err := prefixedSpan(b.data, index, NameBlob)
	if err != nil {
		return nil, err
	}
	return b.data[start : start+n], nil
}

// All yields every blob after the reserved empty entry, with its offset.
func (b *Blob) All() func(yield func(uint32, []byte) bool) {
	return func(yield func(uint32, []byte) bool) {
		pos := 1
		for pos < len(b.data) {
			n, size, err := binary.DecodeCompressed(b.data[pos:])
			if err != nil || pos+size+int(n) > len(b.data) {
				return
			}
			if !yield(uint32(pos), b.data[pos+size:pos+size+int(n)]) {
				return
			}
			pos += size + int(n)
		}
	}
}

// prefixedSpan returns the payload start and length of a length-prefixed entry.
func prefixedSpan(data []byte, index uint32, heap string) (int, int, error) {
	if int(index) >= len(data) {
		return 0, 0, outOfBounds(heap, index, len(data))
	}
	n, size, err := binary.DecodeCompressed(data[index:])
	if err != nil {
		return 0, 0, malformed(heap, index, "bad length prefix", err)
	}
	start := int(index) + size
	if start+int(n) > len(data) {
		return 0, 0, malformed(heap, index, fmt.Sprintf("length %d runs past heap end", n), binary.ErrTruncated)
	}
	return start, int(n), nil
}

// UserStrings reads the #US heap: compressed length, UTF-16LE, flag byte.
type UserStrings struct {
	data []byte
}

// NewUserStrings wraps heap bytes.
func NewUserStrings(data []byte) *UserStrings {
	return &UserStrings{data: data}
}

// Data returns the raw heap bytes.
func (u *UserStrings) Data() []byte { return u.data }

// Len returns the heap size in bytes.
func (u *UserStrings) Len() int { return len(u.data) }

// Get returns the string at byte offset index.
func (u *UserStrings) Get(index uint32) (string, error) {
	if index == 0 && len(u.data) == 0 {
		return "", nil
	}
	start, n, err := prefixedSpan(u.data, index, NameUserStrings)
	if err != nil {
		return "", err
	}
	return decodeUserString(u.data[start:start+n], index)
}

func decodeUserString(entry []byte, index uint32) (string, error) {
	if len(entry) == 0 {
		return "", nil
	}
	s, err := binary.DecodeUTF16LE(entry[:len(entry)-1])
	if err != nil {
		return "", malformed(NameUserStrings, index, "bad UTF-16 payload", err)
	}
	return s, nil
}

// All yields every non-empty user string with its offset.
func (u *UserStrings) All() func(yield func(uint32, string) bool) {
	return func(yield func(uint32, string) bool) {
		pos := 1
		for pos < len(u.data) {
			n, size, err := binary.DecodeCompressed(u.data[pos:])
			if err != nil || pos+size+int(n) > len(u.data) {
				return
			}
			if n > 0 {
				s, err := decodeUserString(u.data[pos+size:pos+size+int(n)], uint32(pos))
				if err != nil {
					return
				}
				if !yield(uint32(pos), s) {
					return
				}
			}
			pos += size + int(n)
		}
	}
}

// GUID reads the #GUID heap: 16-byte slots addressed from 1.
type GUID struct {
	data []byte
}

// NewGUID wraps heap bytes.
func NewGUID(data []byte) *GUID {
	return &GUID{data: data}
}

// Data returns the raw heap bytes.
func (g *GUID) Data() []byte { return g.data }

// Len returns the heap size in bytes.
func (g *GUID) Len() int { return len(g.data) }

// Count returns the number of complete slots.
func (g *GUID) Count() uint32 {
	return uint32(len(g.data) / GUIDSize)
}

// Get returns the GUID in slot index. Slot 0 is uuid.Nil. Bytes are
// returned in heap order.
func (g *GUID) Get(index uint32) (uuid.UUID, error) {
	if index == 0 {
		return uuid.Nil, nil
	}
	if index > g.Count() {
		return uuid.Nil, outOfBounds(NameGUID, index, int(g.Count()))
	}
	off := int(index-1) * GUIDSize
	return uuid.FromBytes(g.data[off : off+GUIDSize])
}

// All yields every slot with its 1-based index.
func (g *GUID) All() func(yield func(uint32, uuid.UUID) bool) {
	return func(yield func(uint32, uuid.UUID) bool) {
		for i := uint32(1); i <= g.Count(); i++ {
			v, _ := g.Get(i)
			if !yield(i, v) {
				return
			}
		}
	}
}

// Find returns the slot of the first GUID equal to v.
func (g *GUID) Find(v uuid.UUID) (uint32, bool) {
	for i, x := range g.All() {
		if x == v {
			return i, true
		}
	}
	return 0, false
}

// Set groups the four heap readers of one image.
type Set struct {
	Strings     *Strings
	Blob        *Blob
	GUID        *GUID
	UserStrings *UserStrings
}

// NewSet wraps the four heap byte slices. Missing heaps may be nil.
func NewSet(strings, blob, guid, userStrings []byte) *Set {
	return &Set{
		Strings:     NewStrings(strings),
		Blob:        NewBlob(blob),
		GUID:        NewGUID(guid),
		UserStrings: NewUserStrings(userStrings),
	}
}
