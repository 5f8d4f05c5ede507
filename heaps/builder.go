package heaps

import (
	"bytes"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/wippyai/cilmeta/changes"
	"github.com/wippyai/cilmeta/errors"
)

// Builder reconstructs one heap. CalculateSize always equals the length of
// the slice Build returns. Build may be called once.
type Builder interface {
	CalculateSize() (uint64, error)
	Build() ([]byte, error)
	IndexMappings() map[uint32]uint32
	HeapName() string
}

var (
	_ Builder = (*StringBuilder)(nil)
	_ Builder = (*BlobBuilder)(nil)
	_ Builder = (*UserStringBuilder)(nil)
	_ Builder = (*GUIDBuilder)(nil)
)

type span struct {
	start, end int
}

type placed struct {
	at   int
	data []byte
	end  int
}

// plan is the placement of every edit, computed once and shared by
// CalculateSize and Build.
type plan struct {
	zero     []span
	inPlace  []placed
	appends  []placed
	size     int
	mappings map[uint32]uint32
}

func (p *plan) appendAt(end *int, index uint32, data []byte) {
	p.appends = append(p.appends, placed{at: *end, data: data})
	p.mappings[index] = uint32(*end)
	*end += len(data)
}

func (p *plan) finish(heap string, end int) error {
	p.size = (end + 3) &^ 3
	if uint64(p.size) > math.MaxUint32 {
		return errors.Overflow(errors.PhaseBuild, heap, p.size, 4)
	}
	return nil
}

// emit applies p to base.
func (p *plan) emit(heap string, base []byte) ([]byte, error) {
	out := make([]byte, len(base), p.size)
	copy(out, base)
	for _, z := range p.zero {
		clear(out[z.start:z.end])
	}
	for _, w := range p.inPlace {
		copy(out[w.at:], w.data)
		clear(out[w.at+len(w.data) : w.end])
	}
	for _, a := range p.appends {
		if len(out) != a.at {
			return nil, layoutFailed(heap, fmt.Sprintf("append planned at %d, heap is %d bytes", a.at, len(out)), nil)
		}
		out = append(out, a.data...)
	}
	for len(out)%4 != 0 {
		out = append(out, 0)
	}
	if len(out) != p.size {
		return nil, layoutFailed(heap, fmt.Sprintf("built %d bytes, planned %d", len(out), p.size), nil)
	}
	return out, nil
}

func layoutFailed(heap, detail string, cause error) error {
	return errors.WriteLayoutFailed(errors.PhaseBuild, heap+": "+detail, cause)
}

func copyMappings(m map[uint32]uint32) map[uint32]uint32 {
	out := make(map[uint32]uint32, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// entryHeap is the shared reconstruction of the byte-addressed heaps.
type entryHeap[T any] struct {
	name    string
	base    []byte
	changes *changes.HeapChanges[T]
	encode  func(T) ([]byte, error)
	span    func(data []byte, index uint32) (int, error)
	plan    *plan
	built   bool
}

func newEntryHeap[T any](name string, original []byte, ch *changes.HeapChanges[T], encode func(T) ([]byte, error), span func([]byte, uint32) (int, error)) entryHeap[T] {
	base := original
	switch {
	case ch.Replacement != nil:
		base = ch.Replacement
	case len(original) == 0:
		base = []byte{0}
	}
	return entryHeap[T]{name: name, base: base, changes: ch, encode: encode, span: span}
}

func (h *entryHeap[T]) checkIndex(index uint32, op string) error {
	if index == 0 {
		return layoutFailed(h.name, op+" of reserved entry 0", nil)
	}
	if int(index) >= len(h.base) && !h.changes.IsAppended(index) {
		return layoutFailed(h.name, fmt.Sprintf("%s of index %d outside heap", op, index), nil)
	}
	return nil
}

func (h *entryHeap[T]) planned() (*plan, error) {
	if h.plan != nil {
		return h.plan, nil
	}
	p := &plan{mappings: make(map[uint32]uint32)}
	end := len(h.base)
	inBase := func(index uint32) bool { return int(index) < len(h.base) }

	it := h.changes.Removed.Iterator()
	for it.HasNext() {
		index := it.Next()
		if err := h.checkIndex(index, "removal"); err != nil {
			return nil, err
		}
		if !inBase(index) {
			continue
		}
		n, err := h.span(h.base, index)
		if err != nil {
			return nil, layoutFailed(h.name, "removal", err)
		}
		p.zero = append(p.zero, span{int(index), int(index) + n})
	}

	for _, index := range h.changes.ModifiedIndexes() {
		if err := h.checkIndex(index, "modification"); err != nil {
			return nil, err
		}
		if !inBase(index) || h.changes.IsRemoved(index) {
			continue
		}
		data, err := h.encode(h.changes.Modified[index])
		if err != nil {
			return nil, err
		}
		n, err := h.span(h.base, index)
		if err != nil {
			return nil, layoutFailed(h.name, "modification", err)
		}
		if len(data) <= n {
			p.inPlace = append(p.inPlace, placed{at: int(index), data: data, end: int(index) + n})
			continue
		}
		p.zero = append(p.zero, span{int(index), int(index) + n})
		p.appendAt(&end, index, data)
	}

	for index, v := range h.changes.Current() {
		data, err := h.encode(v)
		if err != nil {
			return nil, err
		}
		p.appendAt(&end, index, data)
	}

	if err := p.finish(h.name, end); err != nil {
		return nil, err
	}
	h.plan = p
	return p, nil
}

// CalculateSize returns the final heap size in bytes.
func (h *entryHeap[T]) CalculateSize() (uint64, error) {
	p, err := h.planned()
	if err != nil {
		return 0, err
	}
	return uint64(p.size), nil
}

// Build produces the heap bytes. The builder cannot be reused.
func (h *entryHeap[T]) Build() ([]byte, error) {
	if h.built {
		return nil, layoutFailed(h.name, "builder already consumed", nil)
	}
	h.built = true
	p, err := h.planned()
	if err != nil {
		return nil, err
	}
	return p.emit(h.name, h.base)
}

// IndexMappings returns old→new for every entry that moved and every append.
// A builder whose plan fails reports no mappings.
func (h *entryHeap[T]) IndexMappings() map[uint32]uint32 {
	p, err := h.planned()
	if err != nil {
		return map[uint32]uint32{}
	}
	return copyMappings(p.mappings)
}

// HeapName returns the stream name.
func (h *entryHeap[T]) HeapName() string {
	return h.name
}

func stringSpan(data []byte, index uint32) (int, error) {
	if int(index) >= len(data) {
		return 0, outOfBounds(NameStrings, index, len(data))
	}
	end := bytes.IndexByte(data[index:], 0)
	if end < 0 {
		return 0, malformed(NameStrings, index, "missing NUL terminator", nil)
	}
	return end + 1, nil
}

func prefixedEntrySpan(heap string) func([]byte, uint32) (int, error) {
	return func(data []byte, index uint32) (int, error) {
		start, n, err := prefixedSpan(data, index, heap)
		if err != nil {
			return 0, err
		}
		return start - int(index) + n, nil
	}
}

// StringBuilder rebuilds #Strings.
type StringBuilder struct {
	entryHeap[string]
}

// NewStringBuilder creates a builder over the original heap bytes.
func NewStringBuilder(original []byte, ch *changes.HeapChanges[string]) *StringBuilder {
	return &StringBuilder{newEntryHeap(NameStrings, original, ch, EncodeString, stringSpan)}
}

// BlobBuilder rebuilds #Blob.
type BlobBuilder struct {
	entryHeap[[]byte]
}

// NewBlobBuilder creates a builder over the original heap bytes.
func NewBlobBuilder(original []byte, ch *changes.HeapChanges[[]byte]) *BlobBuilder {
	return &BlobBuilder{newEntryHeap(NameBlob, original, ch, EncodeBlob, prefixedEntrySpan(NameBlob))}
}

// UserStringBuilder rebuilds #US.
type UserStringBuilder struct {
	entryHeap[string]
}

// NewUserStringBuilder creates a builder over the original heap bytes.
func NewUserStringBuilder(original []byte, ch *changes.HeapChanges[string]) *UserStringBuilder {
	return &UserStringBuilder{newEntryHeap(NameUserStrings, original, ch, EncodeUserString, prefixedEntrySpan(NameUserStrings))}
}

// GUIDBuilder rebuilds #GUID. Slots have a fixed size, so modifications are
// always written in place.
type GUIDBuilder struct {
	base    []byte
	changes *changes.HeapChanges[uuid.UUID]
	plan    *plan
	built   bool
}

// NewGUIDBuilder creates a builder over the original heap bytes.
func NewGUIDBuilder(original []byte, ch *changes.HeapChanges[uuid.UUID]) *GUIDBuilder {
	base := original
	if ch.Replacement != nil {
		base = ch.Replacement
	}
	return &GUIDBuilder{base: base, changes: ch}
}

func (g *GUIDBuilder) slots() uint32 {
	return uint32(len(g.base) / GUIDSize)
}

func (g *GUIDBuilder) checkSlot(index uint32, op string) error {
	if index == 0 {
		return layoutFailed(NameGUID, op+" of reserved slot 0", nil)
	}
	if index > g.slots() && !g.changes.IsAppended(index) {
		return layoutFailed(NameGUID, fmt.Sprintf("%s of slot %d outside heap", op, index), nil)
	}
	return nil
}

func (g *GUIDBuilder) planned() (*plan, error) {
	if g.plan != nil {
		return g.plan, nil
	}
	if len(g.base)%GUIDSize != 0 {
		return nil, layoutFailed(NameGUID, fmt.Sprintf("heap size %d is not a multiple of %d", len(g.base), GUIDSize), nil)
	}
	p := &plan{mappings: make(map[uint32]uint32)}
	slots := g.slots()

	it := g.changes.Removed.Iterator()
	for it.HasNext() {
		index := it.Next()
		if err := g.checkSlot(index, "removal"); err != nil {
			return nil, err
		}
		if index <= slots {
			off := int(index-1) * GUIDSize
			p.zero = append(p.zero, span{off, off + GUIDSize})
		}
	}
	for _, index := range g.changes.ModifiedIndexes() {
		if err := g.checkSlot(index, "modification"); err != nil {
			return nil, err
		}
		if index > slots || g.changes.IsRemoved(index) {
			continue
		}
		v := g.changes.Modified[index]
		off := int(index-1) * GUIDSize
		p.inPlace = append(p.inPlace, placed{at: off, data: v[:], end: off + GUIDSize})
	}

	end := len(g.base)
	next := slots + 1
	for index, v := range g.changes.Current() {
		p.appends = append(p.appends, placed{at: end, data: v[:]})
		p.mappings[index] = next
		end += GUIDSize
		next++
	}
	if err := p.finish(NameGUID, end); err != nil {
		return nil, err
	}
	g.plan = p
	return p, nil
}

// CalculateSize returns the final heap size in bytes.
func (g *GUIDBuilder) CalculateSize() (uint64, error) {
	p, err := g.planned()
	if err != nil {
		return 0, err
	}
	return uint64(p.size), nil
}

// Build produces the heap bytes. The builder cannot be reused.
func (g *GUIDBuilder) Build() ([]byte, error) {
	if g.built {
		return nil, layoutFailed(NameGUID, "builder already consumed", nil)
	}
	g.built = true
	p, err := g.planned()
	if err != nil {
		return nil, err
	}
	return p.emit(NameGUID, g.base)
}

// IndexMappings returns promised→actual slot for every append.
func (g *GUIDBuilder) IndexMappings() map[uint32]uint32 {
	p, err := g.planned()
	if err != nil {
		return map[uint32]uint32{}
	}
	return copyMappings(p.mappings)
}

// HeapName returns the stream name.
func (g *GUIDBuilder) HeapName() string {
	return NameGUID
}
