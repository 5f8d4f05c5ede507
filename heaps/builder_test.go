package heaps

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/cilmeta/changes"
)

func stringChanges(original []byte) *changes.HeapChanges[string] {
	next := uint32(len(original))
	if next == 0 {
		next = 1
	}
	return changes.NewHeapChanges(next, StringEntrySize)
}

func build(t *testing.T, b Builder) []byte {
	t.Helper()
	size, err := b.CalculateSize()
	require.NoError(t, err)
	out, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, size, uint64(len(out)), "CalculateSize must match Build")
	require.Zero(t, len(out)%4, "heap must be 4-byte aligned")
	return out
}

func TestStringBuilderNoChanges(t *testing.T) {
	b := NewStringBuilder(sampleStrings, stringChanges(sampleStrings))
	out := build(t, b)
	assert.Equal(t, sampleStrings, out)
	assert.Empty(t, b.IndexMappings())
	assert.Equal(t, NameStrings, b.HeapName())
}

func TestStringBuilderEdits(t *testing.T) {
	tests := []struct {
		name     string
		edit     func(ch *changes.HeapChanges[string])
		want     []byte
		mappings map[uint32]uint32
	}{
		{
			name: "remove zero fills",
			edit: func(ch *changes.HeapChanges[string]) {
				ch.Remove(5, changes.NullifyReferences)
			},
			want:     []byte("\x00Foo\x00\x00\x00\x00\x00System\x00"),
			mappings: map[uint32]uint32{},
		},
		{
			name: "shorter modification stays in place",
			edit: func(ch *changes.HeapChanges[string]) {
				ch.Modify(1, "Fo")
			},
			want:     []byte("\x00Fo\x00\x00Bar\x00System\x00"),
			mappings: map[uint32]uint32{},
		},
		{
			name: "equal length modification stays in place",
			edit: func(ch *changes.HeapChanges[string]) {
				ch.Modify(5, "Baz")
			},
			want:     []byte("\x00Foo\x00Baz\x00System\x00"),
			mappings: map[uint32]uint32{},
		},
		{
			name: "longer modification moves to the end",
			edit: func(ch *changes.HeapChanges[string]) {
				ch.Modify(5, "Barbaz")
			},
			want:     []byte("\x00Foo\x00\x00\x00\x00\x00System\x00Barbaz\x00\x00"),
			mappings: map[uint32]uint32{5: 16},
		},
		{
			name: "append is always mapped",
			edit: func(ch *changes.HeapChanges[string]) {
				ch.Append("New")
			},
			want:     []byte("\x00Foo\x00Bar\x00System\x00New\x00"),
			mappings: map[uint32]uint32{16: 16},
		},
		{
			name: "removed append is dropped",
			edit: func(ch *changes.HeapChanges[string]) {
				idx := ch.Append("Gone")
				ch.Append("Kept")
				ch.Remove(idx, changes.NullifyReferences)
			},
			want:     []byte("\x00Foo\x00Bar\x00System\x00Kept\x00\x00\x00\x00"),
			mappings: map[uint32]uint32{21: 16},
		},
		{
			name: "removal wins over modification",
			edit: func(ch *changes.HeapChanges[string]) {
				ch.Modify(9, "Sys")
				ch.Remove(9, changes.FailIfReferenced)
			},
			want:     []byte("\x00Foo\x00Bar\x00\x00\x00\x00\x00\x00\x00\x00"),
			mappings: map[uint32]uint32{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := stringChanges(sampleStrings)
			tt.edit(ch)
			b := NewStringBuilder(sampleStrings, ch)
			out := build(t, b)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.mappings, b.IndexMappings())
		})
	}
}

// An appended string modified before the build keeps its promised index;
// the entries appended after it move.
func TestStringBuilderAppendThenModify(t *testing.T) {
	ch := stringChanges(sampleStrings)
	x := ch.Append("X")
	qq := ch.Append("QQ")
	ch.Modify(x, "XYZ")

	b := NewStringBuilder(sampleStrings, ch)
	out := build(t, b)

	m := b.IndexMappings()
	assert.Equal(t, x, m[x], "modified append keeps its index")
	assert.NotEqual(t, qq, m[qq], "later append moves")
	assert.Equal(t, uint32(20), m[qq])

	s := NewStrings(out)
	got, err := s.Get(m[x])
	require.NoError(t, err)
	assert.Equal(t, "XYZ", got)
	got, err = s.Get(m[qq])
	require.NoError(t, err)
	assert.Equal(t, "QQ", got)
}

func TestStringBuilderSizeMatchesBuild(t *testing.T) {
	edits := []func(ch *changes.HeapChanges[string]){
		func(ch *changes.HeapChanges[string]) { ch.Append("a") },
		func(ch *changes.HeapChanges[string]) { ch.Append("abcdefgh") },
		func(ch *changes.HeapChanges[string]) { ch.Modify(1, "F") },
		func(ch *changes.HeapChanges[string]) { ch.Modify(9, "SystemCollections") },
		func(ch *changes.HeapChanges[string]) { ch.Remove(5, changes.NullifyReferences) },
		func(ch *changes.HeapChanges[string]) { ch.Replace([]byte("\x00Alt\x00"), 5) },
	}
	// every subset of edits, applied in order
	for mask := 0; mask < 1<<len(edits); mask++ {
		ch := stringChanges(sampleStrings)
		for i, e := range edits {
			if mask&(1<<i) != 0 {
				e(ch)
			}
		}
		b := NewStringBuilder(sampleStrings, ch)
		size, err := b.CalculateSize()
		if err != nil {
			// edits on indexes past a short replacement heap are rejected
			continue
		}
		out, err := b.Build()
		if err != nil {
			t.Fatalf("mask %b: Build: %v", mask, err)
		}
		if uint64(len(out)) != size {
			t.Errorf("mask %b: CalculateSize %d, Build %d", mask, size, len(out))
		}
	}
}

func TestStringBuilderReplacement(t *testing.T) {
	ch := stringChanges(sampleStrings)
	ch.Append("lost")
	ch.Replace([]byte("\x00abc\x00"), 5)
	idx := ch.Append("d")

	b := NewStringBuilder(sampleStrings, ch)
	out := build(t, b)
	assert.Equal(t, []byte("\x00abc\x00d\x00\x00"), out)
	assert.Equal(t, map[uint32]uint32{idx: 5}, b.IndexMappings())
}

func TestStringBuilderEmptyOriginal(t *testing.T) {
	ch := stringChanges(nil)
	idx := ch.Append("a")
	require.Equal(t, uint32(1), idx)

	out := build(t, NewStringBuilder(nil, ch))
	assert.Equal(t, []byte{0, 'a', 0, 0}, out)
}

func TestStringBuilderConsumed(t *testing.T) {
	b := NewStringBuilder(sampleStrings, stringChanges(sampleStrings))
	_, err := b.Build()
	require.NoError(t, err)
	_, err = b.Build()
	assert.Error(t, err)
}

func TestStringBuilderErrors(t *testing.T) {
	tests := []struct {
		name string
		edit func(ch *changes.HeapChanges[string])
	}{
		{"remove reserved entry", func(ch *changes.HeapChanges[string]) { ch.Remove(0, changes.NullifyReferences) }},
		{"modify outside heap", func(ch *changes.HeapChanges[string]) { ch.Modify(40, "x") }},
		{"embedded NUL", func(ch *changes.HeapChanges[string]) { ch.Append("a\x00b") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := stringChanges(sampleStrings)
			tt.edit(ch)
			b := NewStringBuilder(sampleStrings, ch)
			_, err := b.CalculateSize()
			assert.Error(t, err)
			_, err = b.Build()
			assert.Error(t, err)
		})
	}
}

func TestBlobBuilder(t *testing.T) {
	original := []byte{0x00, 0x03, 'a', 'b', 'c', 0x00, 0x00, 0x00}
	newChanges := func() *changes.HeapChanges[[]byte] {
		return changes.NewHeapChanges(uint32(len(original)), BlobEntrySize)
	}

	t.Run("in place", func(t *testing.T) {
		ch := newChanges()
		ch.Modify(1, []byte("xy"))
		b := NewBlobBuilder(original, ch)
		out := build(t, b)
		assert.Equal(t, []byte{0x00, 0x02, 'x', 'y', 0x00, 0x00, 0x00, 0x00}, out)
		assert.Empty(t, b.IndexMappings())
	})

	t.Run("moved", func(t *testing.T) {
		ch := newChanges()
		ch.Modify(1, []byte("abcdef"))
		b := NewBlobBuilder(original, ch)
		out := build(t, b)
		assert.Equal(t, map[uint32]uint32{1: 8}, b.IndexMappings())
		got, err := NewBlob(out).Get(8)
		require.NoError(t, err)
		assert.Equal(t, []byte("abcdef"), got)
		assert.Equal(t, []byte{0, 0, 0, 0}, out[1:5])
	})

	t.Run("large append", func(t *testing.T) {
		ch := newChanges()
		big := bytes.Repeat([]byte{0xAB}, 0x4000)
		idx := ch.Append(big)
		assert.Equal(t, uint32(len(original))+4+0x4000, ch.NextIndex())
		b := NewBlobBuilder(original, ch)
		out := build(t, b)
		got, err := NewBlob(out).Get(b.IndexMappings()[idx])
		require.NoError(t, err)
		assert.Equal(t, big, got)
	})

	t.Run("remove", func(t *testing.T) {
		ch := newChanges()
		ch.Remove(1, changes.RemoveReferences)
		out := build(t, NewBlobBuilder(original, ch))
		assert.Equal(t, make([]byte, 8), out)
	})
}

func TestUserStringBuilder(t *testing.T) {
	hi, err := EncodeUserString("Hi")
	require.NoError(t, err)
	original := append([]byte{0}, hi...)
	original = append(original, 0)
	require.Len(t, original, 8)

	ch := changes.NewHeapChanges(uint32(len(original)), UserStringEntrySize)
	idx := ch.Append("é")
	ch.Modify(1, "Yo")

	b := NewUserStringBuilder(original, ch)
	out := build(t, b)
	assert.Equal(t, map[uint32]uint32{idx: 8}, b.IndexMappings())
	assert.Equal(t, []byte{0x03, 0xE9, 0x00, 0x01}, out[8:12], "flag byte set for code points >= 0x80")

	us := NewUserStrings(out)
	got, err := us.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Yo", got)
	got, err = us.Get(8)
	require.NoError(t, err)
	assert.Equal(t, "é", got)
}

func TestEncodeUserStringFlag(t *testing.T) {
	tests := []struct {
		in   string
		flag byte
	}{
		{"", 0},
		{"plain", 0},
		{"café", 1},
		{"\U0001F600", 1},
	}
	for _, tt := range tests {
		out, err := EncodeUserString(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.flag, out[len(out)-1], tt.in)
		assert.Equal(t, UserStringEntrySize(tt.in), uint32(len(out)), tt.in)
	}
}

func TestGUIDBuilder(t *testing.T) {
	a := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	b := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	c := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	original := append(a[:], b[:]...)

	ch := changes.NewHeapChanges(3, GUIDEntrySize)
	ch.Remove(1, changes.NullifyReferences)
	ch.Modify(2, c)
	idx := ch.Append(a)

	g := NewGUIDBuilder(original, ch)
	out := build(t, g)
	require.Len(t, out, 48)
	assert.Equal(t, make([]byte, 16), out[:16])
	assert.Equal(t, c[:], out[16:32])
	assert.Equal(t, a[:], out[32:])
	assert.Equal(t, map[uint32]uint32{idx: 3}, g.IndexMappings())
	assert.Equal(t, NameGUID, g.HeapName())
}

func TestGUIDBuilderRejectsPartialSlot(t *testing.T) {
	ch := changes.NewHeapChanges(1, GUIDEntrySize)
	g := NewGUIDBuilder(make([]byte, 20), ch)
	_, err := g.CalculateSize()
	assert.Error(t, err)
}
