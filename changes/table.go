package changes

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/tables"
)

// TableModifications holds the pending edits of one table. A table is either
// sparse (an operation log over the original rows) or replaced wholesale.
type TableModifications struct {
	table         tables.TableID
	ops           []TableOperation
	deleted       *roaring.Bitmap
	nextRID       uint32
	originalCount uint32

	replaced bool
	rows     []tables.Row
}

// NewSparse creates an empty operation log for a table of originalCount rows.
func NewSparse(table tables.TableID, originalCount uint32) *TableModifications {
	return &TableModifications{
		table:         table,
		deleted:       roaring.New(),
		nextRID:       originalCount + 1,
		originalCount: originalCount,
	}
}

// NewReplaced creates a modification that discards the original rows.
func NewReplaced(table tables.TableID, rows []tables.Row) *TableModifications {
	return &TableModifications{
		table:    table,
		deleted:  roaring.New(),
		nextRID:  uint32(len(rows)) + 1,
		replaced: true,
		rows:     rows,
	}
}

// Clone returns a copy whose log and deletion set can change independently.
// Rows are shared.
func (m *TableModifications) Clone() *TableModifications {
	c := *m
	c.ops = append([]TableOperation(nil), m.ops...)
	c.deleted = m.deleted.Clone()
	c.rows = append([]tables.Row(nil), m.rows...)
	return &c
}

// Table returns the table being modified.
func (m *TableModifications) Table() tables.TableID {
	return m.table
}

// IsReplaced reports whether the table was replaced wholesale.
func (m *TableModifications) IsReplaced() bool {
	return m.replaced
}

// ReplacedRows returns the rows of a replaced table.
func (m *TableModifications) ReplacedRows() []tables.Row {
	return m.rows
}

// Operations returns the log ordered by timestamp, ties in recording order.
func (m *TableModifications) Operations() []TableOperation {
	return m.ops
}

// OriginalCount is the row count of the table before any edit.
func (m *TableModifications) OriginalCount() uint32 {
	return m.originalCount
}

// NextRID is the RID the next Insert receives.
func (m *TableModifications) NextRID() uint32 {
	return m.nextRID
}

// OperationCount returns the number of logged operations, or replaced rows.
func (m *TableModifications) OperationCount() int {
	if m.replaced {
		return len(m.rows)
	}
	return len(m.ops)
}

// HasModifications reports whether anything is pending.
func (m *TableModifications) HasModifications() bool {
	return m.replaced || len(m.ops) > 0
}

// IsDeleted reports whether rid's latest operation is a Delete.
func (m *TableModifications) IsDeleted(rid uint32) bool {
	return m.deleted.Contains(rid)
}

// DeletedCount returns the number of deleted RIDs.
func (m *TableModifications) DeletedCount() uint64 {
	return m.deleted.GetCardinality()
}

// HasRow reports whether rid refers to a live row once the log is applied.
func (m *TableModifications) HasRow(rid uint32) bool {
	if rid == 0 {
		return false
	}
	if m.replaced {
		return rid <= uint32(len(m.rows))
	}
	if m.deleted.Contains(rid) {
		return false
	}
	if rid <= m.originalCount {
		return true
	}
	for _, op := range m.ops {
		if op.Op.Kind == Insert && op.Op.RID == rid {
			return true
		}
	}
	return false
}

func (m *TableModifications) invalid(detail string, args ...any) error {
	return errors.New(errors.PhaseModify, errors.KindInvalidOperation).
		Table(m.table.String()).
		Detail(detail, args...).
		Build()
}

// Validate checks op against the current state without recording it.
func (m *TableModifications) Validate(op TableOperation) error {
	rid := op.Op.RID
	if rid == 0 {
		return m.invalid("%s: RID cannot be zero", op.Op.Kind)
	}
	if rid > tables.MaxRID {
		return m.invalid("%s: RID %d exceeds token range", op.Op.Kind, rid)
	}
	switch op.Op.Kind {
	case Insert:
		if op.Op.Row == nil {
			return m.invalid("insert at RID %d has no row", rid)
		}
		if m.HasRow(rid) {
			return m.invalid("RID %d already exists", rid)
		}
	case Update:
		if op.Op.Row == nil {
			return m.invalid("update at RID %d has no row", rid)
		}
		if !m.HasRow(rid) {
			return m.invalid("RID %d not found for update", rid)
		}
	case Delete:
		if !m.HasRow(rid) {
			return m.invalid("RID %d not found for deletion", rid)
		}
	default:
		return m.invalid("unknown operation kind %d", op.Op.Kind)
	}
	if op.Op.Row != nil && op.Op.Row.TableID() != m.table {
		return m.invalid("row for table %s recorded against %s", op.Op.Row.TableID(), m.table)
	}
	return nil
}

// Apply validates op and records it in timestamp order.
func (m *TableModifications) Apply(op TableOperation) error {
	if m.replaced {
		return m.invalid("cannot apply %s to a replaced table", op.Op)
	}
	if err := m.Validate(op); err != nil {
		return err
	}
	i := sort.Search(len(m.ops), func(i int) bool {
		return m.ops[i].Timestamp > op.Timestamp
	})
	m.ops = append(m.ops, TableOperation{})
	copy(m.ops[i+1:], m.ops[i:])
	m.ops[i] = op
	if op.Op.Kind == Insert && op.Op.RID >= m.nextRID {
		m.nextRID = op.Op.RID + 1
	}
	m.reindex()
	return nil
}

// AppendRow adds a row to a replaced table and returns its RID.
func (m *TableModifications) AppendRow(row tables.Row) (uint32, error) {
	if !m.replaced {
		return 0, m.invalid("AppendRow on a sparse table")
	}
	m.rows = append(m.rows, row)
	m.nextRID = uint32(len(m.rows)) + 1
	return uint32(len(m.rows)), nil
}

// SetOperations replaces the log. It is used after conflict resolution and
// does not validate.
func (m *TableModifications) SetOperations(ops []TableOperation) {
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].Timestamp < ops[j].Timestamp
	})
	m.ops = ops
	for _, op := range ops {
		if op.Op.Kind == Insert && op.Op.RID >= m.nextRID {
			m.nextRID = op.Op.RID + 1
		}
	}
	m.reindex()
}

func (m *TableModifications) reindex() {
	m.deleted.Clear()
	for _, op := range m.ops {
		switch op.Op.Kind {
		case Delete:
			m.deleted.Add(op.Op.RID)
		default:
			m.deleted.Remove(op.Op.RID)
		}
	}
}

// Consolidate folds the log into at most one operation per RID. An Update of
// a row inserted earlier in the log stays an Insert carrying the updated row,
// and a row inserted and then deleted keeps only its Delete.
func (m *TableModifications) Consolidate() {
	if m.replaced || len(m.ops) == 0 {
		return
	}
	type state struct {
		op       TableOperation
		inserted bool
	}
	byRID := make(map[uint32]*state)
	var order []uint32
	for _, op := range m.ops {
		s, ok := byRID[op.Op.RID]
		if !ok {
			s = &state{}
			byRID[op.Op.RID] = s
			order = append(order, op.Op.RID)
		}
		switch op.Op.Kind {
		case Insert:
			s.inserted = true
			s.op = op
		case Update:
			if s.inserted {
				s.op = TableOperation{Op: NewInsert(op.Op.RID, op.Op.Row), Timestamp: op.Timestamp}
			} else {
				s.op = op
			}
		case Delete:
			s.inserted = false
			s.op = op
		}
	}
	out := make([]TableOperation, 0, len(order))
	for _, rid := range order {
		out = append(out, byRID[rid].op)
	}
	m.SetOperations(out)
}

// FinalOperation returns the operation that decides rid after the log is
// applied, if any.
func (m *TableModifications) FinalOperation(rid uint32) (TableOperation, bool) {
	for i := len(m.ops) - 1; i >= 0; i-- {
		if m.ops[i].Op.RID == rid {
			return m.ops[i], true
		}
	}
	return TableOperation{}, false
}

func (m *TableModifications) String() string {
	if m.replaced {
		return fmt.Sprintf("%s: replaced with %d rows", m.table, len(m.rows))
	}
	return fmt.Sprintf("%s: %d operations, %d deleted, next RID %d", m.table, len(m.ops), m.deleted.GetCardinality(), m.nextRID)
}
