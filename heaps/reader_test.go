package heaps

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

var sampleStrings = []byte("\x00Foo\x00Bar\x00System\x00")

func TestStringsGet(t *testing.T) {
	s := NewStrings(sampleStrings)
	tests := []struct {
		index uint32
		want  string
	}{
		{0, ""},
		{1, "Foo"},
		{5, "Bar"},
		{9, "System"},
		{12, "tem"},
	}
	for _, tt := range tests {
		got, err := s.Get(tt.index)
		if err != nil {
			t.Fatalf("Get(%d): %v", tt.index, err)
		}
		if got != tt.want {
			t.Errorf("Get(%d): got %q, want %q", tt.index, got, tt.want)
		}
	}

	if _, err := s.Get(16); err == nil {
		t.Error("Get past end should fail")
	}
	if _, err := NewStrings([]byte("\x00abc")).Get(1); err == nil {
		t.Error("unterminated string should fail")
	}
	if got, err := NewStrings(nil).Get(0); err != nil || got != "" {
		t.Errorf("empty heap Get(0): got %q, %v", got, err)
	}
}

func TestStringsAllAndFind(t *testing.T) {
	s := NewStrings(sampleStrings)
	var offsets []uint32
	var values []string
	for off, v := range s.All() {
		offsets = append(offsets, off)
		values = append(values, v)
	}
	if len(values) != 3 || values[2] != "System" || offsets[1] != 5 {
		t.Errorf("All: got %v at %v", values, offsets)
	}

	if off, ok := s.Find("Bar"); !ok || off != 5 {
		t.Errorf("Find(Bar): got %d, %v", off, ok)
	}
	if _, ok := s.Find("Baz"); ok {
		t.Error("Find(Baz) should miss")
	}
}

func TestBlobGet(t *testing.T) {
	data := []byte{0x00, 0x03, 'a', 'b', 'c', 0x00, 0x02, 'd', 'e'}
	b := NewBlob(data)

	got, err := b.Get(1)
	if err != nil || string(got) != "abc" {
		t.Errorf("Get(1): got %q, %v", got, err)
	}
	got, err = b.Get(5)
	if err != nil || len(got) != 0 {
		t.Errorf("Get(5): got %q, %v, want empty", got, err)
	}
	if _, err := NewBlob([]byte{0x00, 0x05, 'a'}).Get(1); err == nil {
		t.Error("overlong blob should fail")
	}

	var n int
	for range b.All() {
		n++
	}
	if n != 3 {
		t.Errorf("All: got %d entries, want 3", n)
	}
}

func TestUserStringsGet(t *testing.T) {
	hi, err := EncodeUserString("Hi")
	if err != nil {
		t.Fatal(err)
	}
	data := append([]byte{0}, hi...)
	u := NewUserStrings(data)

	got, err := u.Get(1)
	if err != nil || got != "Hi" {
		t.Errorf("Get(1): got %q, %v", got, err)
	}

	var seen []string
	for _, v := range u.All() {
		seen = append(seen, v)
	}
	if len(seen) != 1 || seen[0] != "Hi" {
		t.Errorf("All: got %v", seen)
	}
}

func TestGUIDGet(t *testing.T) {
	a := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	b := uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")
	g := NewGUID(append(a[:], b[:]...))

	if g.Count() != 2 {
		t.Fatalf("Count: got %d, want 2", g.Count())
	}
	got, err := g.Get(2)
	if err != nil || got != b {
		t.Errorf("Get(2): got %v, %v", got, err)
	}
	if got, _ := g.Get(0); got != uuid.Nil {
		t.Errorf("Get(0): got %v, want nil GUID", got)
	}
	if _, err := g.Get(3); err == nil {
		t.Error("Get(3) should fail")
	}
	if slot, ok := g.Find(a); !ok || slot != 1 {
		t.Errorf("Find: got %d, %v", slot, ok)
	}
	if !bytes.Equal(g.Data()[16:], b[:]) {
		t.Error("Data should expose heap bytes")
	}
}
