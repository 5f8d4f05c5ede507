package changes

import (
	"testing"

	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/tables"
)

func param(seq uint16) tables.Row {
	return &tables.ParamRaw{Sequence: seq}
}

func TestTimestampsStrictlyIncrease(t *testing.T) {
	prev := NewTableOperation(NewDelete(1)).Timestamp
	for i := 0; i < 1000; i++ {
		ts := NewTableOperation(NewDelete(1)).Timestamp
		if ts <= prev {
			t.Fatalf("timestamp %d not after %d", ts, prev)
		}
		prev = ts
	}
}

func TestValidate(t *testing.T) {
	m := NewSparse(tables.Param, 5)
	if err := m.Apply(NewTableOperation(NewInsert(6, param(6)))); err != nil {
		t.Fatalf("Apply insert: %v", err)
	}
	if err := m.Apply(NewTableOperation(NewDelete(2))); err != nil {
		t.Fatalf("Apply delete: %v", err)
	}

	tests := []struct {
		name string
		op   Operation
		ok   bool
	}{
		{"insert rid zero", NewInsert(0, param(0)), false},
		{"insert existing original", NewInsert(3, param(3)), false},
		{"insert existing pending", NewInsert(6, param(6)), false},
		{"insert after end", NewInsert(7, param(7)), true},
		{"insert over deleted", NewInsert(2, param(2)), true},
		{"insert without row", Operation{Kind: Insert, RID: 8}, false},
		{"insert wrong table", NewInsert(8, &tables.FieldRaw{}), false},
		{"update original", NewUpdate(1, param(1)), true},
		{"update pending insert", NewUpdate(6, param(6)), true},
		{"update deleted", NewUpdate(2, param(2)), false},
		{"update missing", NewUpdate(9, param(9)), false},
		{"delete original", NewDelete(5), true},
		{"delete deleted", NewDelete(2), false},
		{"delete missing", NewDelete(42), false},
		{"delete rid zero", NewDelete(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Validate(NewTableOperation(tt.op))
			if tt.ok && err != nil {
				t.Fatalf("got %v, want nil", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("got nil, want error")
				}
				if !errors.Is(err, &errors.Error{Phase: errors.PhaseModify, Kind: errors.KindInvalidOperation}) {
					t.Errorf("got %v, want invalid operation", err)
				}
			}
		})
	}
}

func TestApplyOrdersByTimestamp(t *testing.T) {
	m := NewSparse(tables.Param, 3)
	mustApply(t, m, NewTableOperationAt(NewUpdate(1, param(10)), 30))
	mustApply(t, m, NewTableOperationAt(NewUpdate(2, param(20)), 10))
	mustApply(t, m, NewTableOperationAt(NewUpdate(3, param(30)), 30))
	mustApply(t, m, NewTableOperationAt(NewUpdate(1, param(11)), 20))

	var got []uint32
	for _, op := range m.Operations() {
		got = append(got, op.RID())
	}
	want := []uint32{2, 1, 1, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order: got %v, want %v", got, want)
		}
	}
}

func TestNextRIDTracksInserts(t *testing.T) {
	m := NewSparse(tables.Param, 4)
	if m.NextRID() != 5 {
		t.Fatalf("NextRID: got %d, want 5", m.NextRID())
	}
	mustApply(t, m, NewTableOperation(NewInsert(9, param(9))))
	if m.NextRID() != 10 {
		t.Errorf("NextRID: got %d, want 10", m.NextRID())
	}
	mustApply(t, m, NewTableOperation(NewInsert(5, param(5))))
	if m.NextRID() != 10 {
		t.Errorf("NextRID after lower insert: got %d, want 10", m.NextRID())
	}
}

func TestReplacedTable(t *testing.T) {
	m := NewReplaced(tables.Param, []tables.Row{param(1), param(2)})
	if !m.HasRow(2) || m.HasRow(3) || m.HasRow(0) {
		t.Error("HasRow does not follow replaced row count")
	}
	if err := m.Apply(NewTableOperation(NewDelete(1))); err == nil {
		t.Error("Apply on a replaced table should fail")
	}
	rid, err := m.AppendRow(param(3))
	if err != nil || rid != 3 {
		t.Errorf("AppendRow: got %d, %v, want 3", rid, err)
	}
}

func TestConsolidate(t *testing.T) {
	m := NewSparse(tables.Param, 3)
	mustApply(t, m, NewTableOperation(NewUpdate(1, param(10))))
	mustApply(t, m, NewTableOperation(NewUpdate(1, param(11))))
	mustApply(t, m, NewTableOperation(NewInsert(4, param(40))))
	mustApply(t, m, NewTableOperation(NewUpdate(4, param(41))))
	mustApply(t, m, NewTableOperation(NewInsert(5, param(50))))
	mustApply(t, m, NewTableOperation(NewDelete(5)))
	mustApply(t, m, NewTableOperation(NewDelete(2)))

	m.Consolidate()

	if len(m.Operations()) != 4 {
		t.Fatalf("operations: got %d, want 4: %v", len(m.Operations()), m.Operations())
	}
	op, _ := m.FinalOperation(1)
	if op.Kind() != Update || op.Op.Row.(*tables.ParamRaw).Sequence != 11 {
		t.Errorf("rid 1: got %v", op)
	}
	op, _ = m.FinalOperation(4)
	if op.Kind() != Insert || op.Op.Row.(*tables.ParamRaw).Sequence != 41 {
		t.Errorf("rid 4: got %v, want insert carrying the update", op)
	}
	op, _ = m.FinalOperation(5)
	if op.Kind() != Delete {
		t.Errorf("rid 5: got %v, want delete", op)
	}
	if !m.IsDeleted(2) || m.IsDeleted(1) {
		t.Error("deleted set not rebuilt")
	}
}

func TestRIDMap(t *testing.T) {
	t.Run("no operations", func(t *testing.T) {
		r := NewRIDMap(NewSparse(tables.Param, 5), 5)
		if !r.Identity() || r.FinalCount() != 5 {
			t.Errorf("got identity %v count %d", r.Identity(), r.FinalCount())
		}
		if n, ok := r.Map(5); !ok || n != 5 {
			t.Errorf("Map(5): got %d %v", n, ok)
		}
	})

	t.Run("nil modifications", func(t *testing.T) {
		r := NewRIDMap(nil, 3)
		if n, ok := r.Map(3); !ok || n != 3 {
			t.Errorf("Map(3): got %d %v", n, ok)
		}
		if _, ok := r.Map(4); ok {
			t.Error("Map(4) past end should fail")
		}
	})

	t.Run("insert past a gap", func(t *testing.T) {
		m := NewSparse(tables.Param, 5)
		mustApply(t, m, NewTableOperation(NewInsert(10, param(10))))
		r := NewRIDMap(m, 5)
		if n, ok := r.Map(10); !ok || n != 6 {
			t.Errorf("Map(10): got %d %v, want 6", n, ok)
		}
		if r.FinalCount() != 6 {
			t.Errorf("FinalCount: got %d, want 6", r.FinalCount())
		}
	})

	t.Run("delete shifts later rows", func(t *testing.T) {
		m := NewSparse(tables.Param, 5)
		mustApply(t, m, NewTableOperation(NewDelete(3)))
		r := NewRIDMap(m, 5)
		want := map[uint32]uint32{1: 1, 2: 2, 4: 3, 5: 4}
		for old, n := range want {
			if got, ok := r.Map(old); !ok || got != n {
				t.Errorf("Map(%d): got %d %v, want %d", old, got, ok, n)
			}
		}
		if _, ok := r.Map(3); ok {
			t.Error("deleted rid should not map")
		}
		if r.FinalCount() != 4 {
			t.Errorf("FinalCount: got %d, want 4", r.FinalCount())
		}
	})

	t.Run("mixed", func(t *testing.T) {
		m := NewSparse(tables.Param, 5)
		mustApply(t, m, NewTableOperation(NewInsert(10, param(10))))
		mustApply(t, m, NewTableOperation(NewDelete(2)))
		mustApply(t, m, NewTableOperation(NewInsert(11, param(11))))
		mustApply(t, m, NewTableOperation(NewUpdate(4, param(4))))
		r := NewRIDMap(m, 5)
		want := map[uint32]uint32{1: 1, 3: 2, 4: 3, 5: 4, 10: 5, 11: 6}
		for old, n := range want {
			if got, ok := r.Map(old); !ok || got != n {
				t.Errorf("Map(%d): got %d %v, want %d", old, got, ok, n)
			}
		}
	})

	t.Run("insert then delete", func(t *testing.T) {
		m := NewSparse(tables.Param, 5)
		mustApply(t, m, NewTableOperation(NewInsert(10, param(10))))
		mustApply(t, m, NewTableOperation(NewDelete(10)))
		r := NewRIDMap(m, 5)
		if _, ok := r.Map(10); ok {
			t.Error("Map(10) should be gone")
		}
		if r.FinalCount() != 5 {
			t.Errorf("FinalCount: got %d, want 5", r.FinalCount())
		}
	})

	t.Run("list starts", func(t *testing.T) {
		m := NewSparse(tables.Param, 5)
		mustApply(t, m, NewTableOperation(NewDelete(2)))
		mustApply(t, m, NewTableOperation(NewDelete(3)))
		r := NewRIDMap(m, 5)
		tests := []struct{ old, want uint32 }{
			{1, 1}, {2, 2}, {3, 2}, {4, 2}, {5, 3}, {6, 4},
		}
		for _, tt := range tests {
			if got := r.MapList(tt.old); got != tt.want {
				t.Errorf("MapList(%d): got %d, want %d", tt.old, got, tt.want)
			}
		}
	})
}

func TestHeapChanges(t *testing.T) {
	h := NewHeapChanges(100, func(s string) uint32 { return uint32(len(s)) + 1 })

	a := h.Append("X")
	b := h.Append("QQ")
	if a != 100 || b != 102 {
		t.Fatalf("promised indexes: got %d, %d, want 100, 102", a, b)
	}
	if h.NextIndex() != 105 {
		t.Errorf("NextIndex: got %d, want 105", h.NextIndex())
	}
	if !h.IsAppended(102) || h.IsAppended(99) {
		t.Error("IsAppended wrong")
	}

	h.Modify(a, "XYZ")
	h.Remove(7, NullifyReferences)

	var got []string
	for _, v := range h.Current() {
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != "XYZ" || got[1] != "QQ" {
		t.Errorf("Current: got %v", got)
	}
	if hd, ok := h.Handling(7); !ok || hd != NullifyReferences {
		t.Errorf("Handling: got %v %v", hd, ok)
	}

	h.Replace([]byte{0, 'a', 0, 0}, 4)
	if len(h.Appended) != 0 || len(h.Modified) != 0 || h.HasRemovals() {
		t.Error("Replace should clear earlier edits")
	}
	if !h.HasChanges() {
		t.Error("a replacement is a change")
	}
	if idx := h.Append("b"); idx != 4 {
		t.Errorf("append after replace: got %d, want 4", idx)
	}
}

func TestReferenceHandlingParse(t *testing.T) {
	for _, h := range []ReferenceHandling{FailIfReferenced, RemoveReferences, NullifyReferences} {
		got, ok := ParseReferenceHandling(h.String())
		if !ok || got != h {
			t.Errorf("ParseReferenceHandling(%q): got %v %v", h.String(), got, ok)
		}
	}
	if _, ok := ParseReferenceHandling("drop"); ok {
		t.Error("unknown handling should not parse")
	}
}

func mustApply(t *testing.T, m *TableModifications, op TableOperation) {
	t.Helper()
	if err := m.Apply(op); err != nil {
		t.Fatalf("Apply %v: %v", op, err)
	}
}
