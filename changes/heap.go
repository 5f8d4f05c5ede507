package changes

import (
	"fmt"
	"maps"
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// ReferenceHandling decides what happens to table references of a removed
// heap entry.
type ReferenceHandling uint8

const (
	// FailIfReferenced aborts the write while any row still references the entry.
	FailIfReferenced ReferenceHandling = iota
	// RemoveReferences deletes every row that references the entry.
	RemoveReferences
	// NullifyReferences sets every reference to the entry to 0.
	NullifyReferences
)

func (h ReferenceHandling) String() string {
	switch h {
	case FailIfReferenced:
		return "fail"
	case RemoveReferences:
		return "remove"
	case NullifyReferences:
		return "nullify"
	}
	return fmt.Sprintf("ReferenceHandling(%d)", uint8(h))
}

// ParseReferenceHandling parses the String form.
func ParseReferenceHandling(s string) (ReferenceHandling, bool) {
	switch s {
	case "fail":
		return FailIfReferenced, true
	case "remove":
		return RemoveReferences, true
	case "nullify":
		return NullifyReferences, true
	}
	return 0, false
}

// Appended is a new heap entry and the index it was promised when added.
type Appended[T any] struct {
	Index uint32
	Value T
}

// HeapChanges records the edits of one heap. Indexes are byte offsets for
// #Strings, #Blob and #US, and 1-based slots for #GUID.
type HeapChanges[T any] struct {
	Appended    []Appended[T]
	Modified    map[uint32]T
	Removed     *roaring.Bitmap
	Replacement []byte

	handling map[uint32]ReferenceHandling
	base     uint32
	next     uint32
	sizeOf   func(T) uint32
}

// NewHeapChanges creates a record whose first append lands at next. sizeOf
// reports how far one entry advances the index.
func NewHeapChanges[T any](next uint32, sizeOf func(T) uint32) *HeapChanges[T] {
	return &HeapChanges[T]{
		Modified: make(map[uint32]T),
		Removed:  roaring.New(),
		handling: make(map[uint32]ReferenceHandling),
		base:     next,
		next:     next,
		sizeOf:   sizeOf,
	}
}

// Clone returns an independent copy. Values and the replacement bytes are
// shared.
func (h *HeapChanges[T]) Clone() *HeapChanges[T] {
	c := *h
	c.Appended = append([]Appended[T](nil), h.Appended...)
	c.Modified = maps.Clone(h.Modified)
	c.Removed = h.Removed.Clone()
	c.handling = maps.Clone(h.handling)
	return &c
}

// Append records a new entry and returns its promised index.
func (h *HeapChanges[T]) Append(v T) uint32 {
	idx := h.next
	h.Appended = append(h.Appended, Appended[T]{Index: idx, Value: v})
	h.next += h.sizeOf(v)
	return idx
}

// Modify replaces the entry at index. Modifying an appended entry changes
// what is appended at its promised index.
func (h *HeapChanges[T]) Modify(index uint32, v T) {
	h.Modified[index] = v
}

// Remove marks the entry at index for removal.
func (h *HeapChanges[T]) Remove(index uint32, handling ReferenceHandling) {
	h.Removed.Add(index)
	h.handling[index] = handling
}

// Replace discards the source heap in favor of data. Earlier edits are
// cleared; later ones apply to data, and appends continue at next.
func (h *HeapChanges[T]) Replace(data []byte, next uint32) {
	h.Replacement = data
	h.Appended = nil
	h.Modified = make(map[uint32]T)
	h.Removed.Clear()
	h.handling = make(map[uint32]ReferenceHandling)
	h.base = next
	h.next = next
}

// Handling returns the reference handling recorded for a removed index.
func (h *HeapChanges[T]) Handling(index uint32) (ReferenceHandling, bool) {
	v, ok := h.handling[index]
	return v, ok
}

// IsRemoved reports whether index is marked for removal.
func (h *HeapChanges[T]) IsRemoved(index uint32) bool {
	return h.Removed.Contains(index)
}

// Modification returns the replacement value for index.
func (h *HeapChanges[T]) Modification(index uint32) (T, bool) {
	v, ok := h.Modified[index]
	return v, ok
}

// IsAppended reports whether index belongs to an entry added in this session.
func (h *HeapChanges[T]) IsAppended(index uint32) bool {
	return index >= h.base && index < h.next
}

// AppendBase returns the index of the first appended entry.
func (h *HeapChanges[T]) AppendBase() uint32 {
	return h.base
}

// NextIndex returns the index the next Append receives.
func (h *HeapChanges[T]) NextIndex() uint32 {
	return h.next
}

// Current yields appended entries with modifications applied, skipping
// removed ones, in index order.
func (h *HeapChanges[T]) Current() func(yield func(uint32, T) bool) {
	return func(yield func(uint32, T) bool) {
		for _, a := range h.Appended {
			if h.Removed.Contains(a.Index) {
				continue
			}
			v := a.Value
			if m, ok := h.Modified[a.Index]; ok {
				v = m
			}
			if !yield(a.Index, v) {
				return
			}
		}
	}
}

// ModifiedIndexes returns the modified indexes in ascending order.
func (h *HeapChanges[T]) ModifiedIndexes() []uint32 {
	out := make([]uint32, 0, len(h.Modified))
	for idx := range h.Modified {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasChanges reports whether anything is pending.
func (h *HeapChanges[T]) HasChanges() bool {
	return h.Replacement != nil || len(h.Appended) > 0 || len(h.Modified) > 0 || !h.Removed.IsEmpty()
}

// HasRemovals reports whether any entry is marked for removal.
func (h *HeapChanges[T]) HasRemovals() bool {
	return !h.Removed.IsEmpty()
}
