package assembly

import (
	"bytes"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/cilmeta/changes"
	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/heaps"
	"github.com/wippyai/cilmeta/tables"
)

func heapInvalid(heap, detail string, args ...any) error {
	return errors.New(errors.PhaseModify, errors.KindInvalidOperation).
		Table(heap).
		Detail(detail, args...).
		Build()
}

// checkIndex verifies index names an existing source entry or an entry
// appended in this session.
func checkIndex[T any](h *changes.HeapChanges[T], heap string, index uint32, sourceLen uint32) error {
	if index == 0 {
		return heapInvalid(heap, "index 0 is reserved")
	}
	if index >= sourceLen && !h.IsAppended(index) {
		return errors.OutOfBounds(errors.PhaseModify, heap, int(index), int(h.NextIndex()))
	}
	return nil
}

func (c *BuilderContext) refuseIfReferenced(heap tables.Heap, name string, index uint32, handling changes.ReferenceHandling) error {
	if handling != changes.FailIfReferenced {
		return nil
	}
	refs, err := c.heapReferrers(heap, index)
	if err != nil {
		return err
	}
	if len(refs) > 0 {
		return errors.New(errors.PhaseModify, errors.KindInvalidOperation).
			Table(name).
			Token(uint32(refs[0])).
			Detail("entry %d is referenced by %s", index, refs[0]).
			Build()
	}
	return nil
}

// StringAdd appends s to #Strings and returns its index. Duplicates are
// appended again.
func (c *BuilderContext) StringAdd(s string) (uint32, error) {
	if _, err := heaps.EncodeString(s); err != nil {
		return 0, err
	}
	idx := c.asm.Changes.Strings.Append(s)
	c.log.Debug("string added", zap.Uint32("index", idx))
	return idx, nil
}

// StringGetOrAdd returns the index of s, reusing a live source entry or a
// string interned earlier in this session before appending.
func (c *BuilderContext) StringGetOrAdd(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	if idx, ok := c.interned[s]; ok && c.stringLive(idx) {
		return idx, nil
	}
	if idx, ok := c.asm.Heaps.Strings.Find(s); ok && c.stringLive(idx) {
		c.interned[s] = idx
		return idx, nil
	}
	idx, err := c.StringAdd(s)
	if err != nil {
		return 0, err
	}
	c.interned[s] = idx
	return idx, nil
}

func (c *BuilderContext) stringLive(idx uint32) bool {
	ch := c.asm.Changes.Strings
	if ch.IsRemoved(idx) {
		return false
	}
	_, modified := ch.Modification(idx)
	return !modified
}

// StringUpdate replaces the string at index.
func (c *BuilderContext) StringUpdate(index uint32, s string) error {
	ch := c.asm.Changes.Strings
	if err := checkIndex(ch, heaps.NameStrings, index, uint32(c.asm.Heaps.Strings.Len())); err != nil {
		return err
	}
	if _, err := heaps.EncodeString(s); err != nil {
		return err
	}
	ch.Modify(index, s)
	for k, v := range c.interned {
		if v == index {
			delete(c.interned, k)
		}
	}
	return nil
}

// StringRemove marks the string at index for removal.
func (c *BuilderContext) StringRemove(index uint32, handling changes.ReferenceHandling) error {
	ch := c.asm.Changes.Strings
	if err := checkIndex(ch, heaps.NameStrings, index, uint32(c.asm.Heaps.Strings.Len())); err != nil {
		return err
	}
	if err := c.refuseIfReferenced(tables.HeapStrings, heaps.NameStrings, index, handling); err != nil {
		return err
	}
	ch.Remove(index, handling)
	return nil
}

// StringAt returns the current value of the string at index, with pending
// edits applied.
func (c *BuilderContext) StringAt(index uint32) (string, bool) {
	return StringAt(c.asm, index)
}

// StringAt returns the current value of the string at index in a.
func StringAt(a *Assembly, index uint32) (string, bool) {
	ch := a.Changes.Strings
	if ch.IsRemoved(index) {
		return "", false
	}
	if v, ok := ch.Modification(index); ok {
		return v, true
	}
	if ch.IsAppended(index) {
		for _, e := range ch.Appended {
			if e.Index == index {
				return e.Value, true
			}
		}
		return "", false
	}
	s, err := a.Heaps.Strings.Get(index)
	return s, err == nil
}

// BlobAdd appends b to #Blob and returns its index.
func (c *BuilderContext) BlobAdd(b []byte) (uint32, error) {
	if _, err := heaps.EncodeBlob(b); err != nil {
		return 0, err
	}
	return c.asm.Changes.Blobs.Append(bytes.Clone(b)), nil
}

// BlobGetOrAdd returns the index of an identical live blob or appends b.
func (c *BuilderContext) BlobGetOrAdd(b []byte) (uint32, error) {
	if len(b) == 0 {
		return 0, nil
	}
	ch := c.asm.Changes.Blobs
	for idx, v := range c.asm.Heaps.Blob.All() {
		if bytes.Equal(v, b) && !ch.IsRemoved(idx) {
			if _, modified := ch.Modification(idx); !modified {
				return idx, nil
			}
		}
	}
	for idx, v := range ch.Current() {
		if bytes.Equal(v, b) {
			return idx, nil
		}
	}
	return c.BlobAdd(b)
}

// BlobUpdate replaces the blob at index.
func (c *BuilderContext) BlobUpdate(index uint32, b []byte) error {
	ch := c.asm.Changes.Blobs
	if err := checkIndex(ch, heaps.NameBlob, index, uint32(c.asm.Heaps.Blob.Len())); err != nil {
		return err
	}
	if _, err := heaps.EncodeBlob(b); err != nil {
		return err
	}
	ch.Modify(index, bytes.Clone(b))
	return nil
}

// BlobRemove marks the blob at index for removal.
func (c *BuilderContext) BlobRemove(index uint32, handling changes.ReferenceHandling) error {
	ch := c.asm.Changes.Blobs
	if err := checkIndex(ch, heaps.NameBlob, index, uint32(c.asm.Heaps.Blob.Len())); err != nil {
		return err
	}
	if err := c.refuseIfReferenced(tables.HeapBlob, heaps.NameBlob, index, handling); err != nil {
		return err
	}
	ch.Remove(index, handling)
	return nil
}

// GUIDAdd appends g to #GUID and returns its 1-based slot.
func (c *BuilderContext) GUIDAdd(g uuid.UUID) (uint32, error) {
	return c.asm.Changes.GUIDs.Append(g), nil
}

// GUIDUpdate replaces the GUID in slot index.
func (c *BuilderContext) GUIDUpdate(index uint32, g uuid.UUID) error {
	ch := c.asm.Changes.GUIDs
	if err := checkIndex(ch, heaps.NameGUID, index, c.asm.Heaps.GUID.Count()+1); err != nil {
		return err
	}
	ch.Modify(index, g)
	return nil
}

// UserStringAdd appends s to #US and returns its index.
func (c *BuilderContext) UserStringAdd(s string) (uint32, error) {
	if _, err := heaps.EncodeUserString(s); err != nil {
		return 0, err
	}
	return c.asm.Changes.UserStrings.Append(s), nil
}

// UserStringUpdate replaces the user string at index.
func (c *BuilderContext) UserStringUpdate(index uint32, s string) error {
	ch := c.asm.Changes.UserStrings
	if err := checkIndex(ch, heaps.NameUserStrings, index, uint32(c.asm.Heaps.UserStrings.Len())); err != nil {
		return err
	}
	if _, err := heaps.EncodeUserString(s); err != nil {
		return err
	}
	ch.Modify(index, s)
	return nil
}

// UserStringRemove marks the user string at index for removal. User
// strings are referenced from method bodies, not tables, so no reference
// check is possible here.
func (c *BuilderContext) UserStringRemove(index uint32, handling changes.ReferenceHandling) error {
	ch := c.asm.Changes.UserStrings
	if err := checkIndex(ch, heaps.NameUserStrings, index, uint32(c.asm.Heaps.UserStrings.Len())); err != nil {
		return err
	}
	ch.Remove(index, handling)
	return nil
}

// Core library names in lookup order.
var coreLibraries = []string{"mscorlib", "System.Runtime", "System.Private.CoreLib"}

// FindAssemblyRefByName returns the live AssemblyRef whose name is name.
func (c *BuilderContext) FindAssemblyRefByName(name string) (tables.Token, bool) {
	rows, err := c.LiveRows(tables.AssemblyRef)
	if err != nil {
		return 0, false
	}
	for _, row := range rows {
		ref := row.(*tables.AssemblyRefRaw)
		if s, ok := c.StringAt(ref.Name); ok && s == name {
			return ref.Token, true
		}
	}
	return 0, false
}

// FindCoreLibraryRef returns the AssemblyRef of mscorlib, System.Runtime or
// System.Private.CoreLib, in that order of preference.
func (c *BuilderContext) FindCoreLibraryRef() (tables.Token, bool) {
	for _, name := range coreLibraries {
		if tok, ok := c.FindAssemblyRefByName(name); ok {
			return tok, true
		}
	}
	return 0, false
}
