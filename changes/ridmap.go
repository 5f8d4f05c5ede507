package changes

import "sort"

// RIDMap translates original RIDs to final RIDs once deletions are compacted
// and inserted rows are appended after the surviving original rows.
type RIDMap struct {
	// old RIDs in final order; old[i] becomes RID i+1
	old      []uint32
	mapping  map[uint32]uint32
	deleted  map[uint32]struct{}
	original uint32
}

// NewRIDMap builds the map for m. A nil m, or a replaced table, yields the
// identity over the final row count.
func NewRIDMap(m *TableModifications, originalCount uint32) *RIDMap {
	r := &RIDMap{
		mapping:  make(map[uint32]uint32),
		deleted:  make(map[uint32]struct{}),
		original: originalCount,
	}
	if m == nil || m.replaced {
		n := originalCount
		if m != nil {
			n = uint32(len(m.rows))
		}
		r.original = n
		r.old = make([]uint32, n)
		for i := range r.old {
			r.old[i] = uint32(i + 1)
		}
		return r
	}

	inserted := make(map[uint32]struct{})
	for _, op := range m.ops {
		rid := op.Op.RID
		switch op.Op.Kind {
		case Insert:
			inserted[rid] = struct{}{}
			delete(r.deleted, rid)
		case Update:
			delete(r.deleted, rid)
			if rid > originalCount {
				inserted[rid] = struct{}{}
			}
		case Delete:
			r.deleted[rid] = struct{}{}
			delete(inserted, rid)
		}
	}

	for rid := uint32(1); rid <= originalCount; rid++ {
		if _, gone := r.deleted[rid]; gone {
			continue
		}
		r.old = append(r.old, rid)
	}
	var added []uint32
	for rid := range inserted {
		if rid > originalCount {
			added = append(added, rid)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i] < added[j] })
	r.old = append(r.old, added...)

	for i, rid := range r.old {
		if uint32(i+1) != rid {
			r.mapping[rid] = uint32(i + 1)
		}
	}
	return r
}

// Map returns the final RID of old. ok is false for deleted or unknown RIDs.
func (r *RIDMap) Map(old uint32) (uint32, bool) {
	if old == 0 {
		return 0, false
	}
	if _, gone := r.deleted[old]; gone {
		return 0, false
	}
	if n, ok := r.mapping[old]; ok {
		return n, true
	}
	if r.contains(old) {
		return old, true
	}
	return 0, false
}

func (r *RIDMap) contains(old uint32) bool {
	i := sort.Search(len(r.old), func(i int) bool { return r.old[i] >= old })
	return i < len(r.old) && r.old[i] == old
}

// MapList maps the start of a row list (FieldList, MethodList, ...). The
// result is the final RID of the first surviving row at or after old, or
// FinalCount()+1 when none survives.
func (r *RIDMap) MapList(old uint32) uint32 {
	i := sort.Search(len(r.old), func(i int) bool { return r.old[i] >= old })
	return uint32(i + 1)
}

// FinalCount returns the row count after edits.
func (r *RIDMap) FinalCount() uint32 {
	return uint32(len(r.old))
}

// OldRIDs returns the original RIDs in final row order.
func (r *RIDMap) OldRIDs() []uint32 {
	return r.old
}

// IsDeleted reports whether old was deleted.
func (r *RIDMap) IsDeleted(old uint32) bool {
	_, gone := r.deleted[old]
	return gone
}

// Moved returns old→new for every RID whose number changed.
func (r *RIDMap) Moved() map[uint32]uint32 {
	return r.mapping
}

// Identity reports whether no RID moved and nothing was deleted.
func (r *RIDMap) Identity() bool {
	return len(r.mapping) == 0 && len(r.deleted) == 0
}

// OriginalCount returns the row count the map was built against.
func (r *RIDMap) OriginalCount() uint32 {
	return r.original
}
