package changes

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/wippyai/cilmeta/tables"
)

// OperationKind is the type of a row edit.
type OperationKind uint8

const (
	Insert OperationKind = iota
	Update
	Delete
)

func (k OperationKind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	}
	return fmt.Sprintf("OperationKind(%d)", uint8(k))
}

// Operation is a single row edit. Row is nil for Delete.
type Operation struct {
	Kind OperationKind
	RID  uint32
	Row  tables.Row
}

// NewInsert creates an Insert of row at rid.
func NewInsert(rid uint32, row tables.Row) Operation {
	return Operation{Kind: Insert, RID: rid, Row: row}
}

// NewUpdate creates an Update replacing the row at rid.
func NewUpdate(rid uint32, row tables.Row) Operation {
	return Operation{Kind: Update, RID: rid, Row: row}
}

// NewDelete creates a Delete of the row at rid.
func NewDelete(rid uint32) Operation {
	return Operation{Kind: Delete, RID: rid}
}

func (o Operation) String() string {
	return fmt.Sprintf("%s(%d)", o.Kind, o.RID)
}

// TableOperation is an Operation stamped with the time it was recorded,
// in microseconds since the Unix epoch.
type TableOperation struct {
	Op        Operation
	Timestamp uint64
}

// lastStamp backs the package clock. Stamps are strictly increasing across
// the process so that two operations never compare equal by accident.
var lastStamp atomic.Uint64

func nextStamp() uint64 {
	now := uint64(time.Now().UnixMicro())
	for {
		last := lastStamp.Load()
		ts := max(now, last+1)
		if lastStamp.CompareAndSwap(last, ts) {
			return ts
		}
	}
}

// NewTableOperation stamps op with the current time.
func NewTableOperation(op Operation) TableOperation {
	return TableOperation{Op: op, Timestamp: nextStamp()}
}

// NewTableOperationAt stamps op with an explicit timestamp.
func NewTableOperationAt(op Operation, ts uint64) TableOperation {
	return TableOperation{Op: op, Timestamp: ts}
}

// RID returns the target row.
func (t TableOperation) RID() uint32 {
	return t.Op.RID
}

// Kind returns the operation kind.
func (t TableOperation) Kind() OperationKind {
	return t.Op.Kind
}

func (t TableOperation) IsInsert() bool { return t.Op.Kind == Insert }
func (t TableOperation) IsUpdate() bool { return t.Op.Kind == Update }
func (t TableOperation) IsDelete() bool { return t.Op.Kind == Delete }

func (t TableOperation) String() string {
	return fmt.Sprintf("%s@%d", t.Op, t.Timestamp)
}
