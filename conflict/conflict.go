// Package conflict settles competing operations on the same row.
//
// Detect scans a table's operation log for RIDs touched more than once, a
// Resolver decides the winner of each, and Apply rewrites the log so every
// RID ends with a single action. The default LastWriteWins resolver never
// fails; stricter strategies can be substituted without touching callers.
package conflict

import (
	"fmt"
	"sort"

	"github.com/wippyai/cilmeta/changes"
	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/tables"
)

// Kind is the shape of a conflict.
type Kind uint8

const (
	// MultipleOperations is any set of two or more operations on one RID
	// that is not a plain Insert/Delete pair.
	MultipleOperations Kind = iota
	// InsertDelete is exactly one Insert and one Delete on one RID.
	InsertDelete
)

func (k Kind) String() string {
	if k == InsertDelete {
		return "insert-delete"
	}
	return "multiple-operations"
}

// Conflict is a set of operations competing for one RID. Operations holds
// every competing operation in log order for both shapes; Insert and Delete
// are set for InsertDelete.
type Conflict struct {
	Kind       Kind
	RID        uint32
	Operations []changes.TableOperation
	Insert     changes.TableOperation
	Delete     changes.TableOperation
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s on RID %d (%d operations)", c.Kind, c.RID, len(c.Operations))
}

// ResolutionKind is the action chosen for one RID.
type ResolutionKind uint8

const (
	UseOperation ResolutionKind = iota
	UseLatest
	Merge
	Reject
)

func (k ResolutionKind) String() string {
	switch k {
	case UseOperation:
		return "use-operation"
	case UseLatest:
		return "use-latest"
	case Merge:
		return "merge"
	case Reject:
		return "reject"
	}
	return fmt.Sprintf("ResolutionKind(%d)", uint8(k))
}

// OperationResolution is the decision for one RID. Op is set for
// UseOperation, Ops for Merge, Reason for Reject.
type OperationResolution struct {
	Kind   ResolutionKind
	Op     changes.TableOperation
	Ops    []changes.TableOperation
	Reason string
}

// Use selects a single winning operation.
func Use(op changes.TableOperation) OperationResolution {
	return OperationResolution{Kind: UseOperation, Op: op}
}

// Latest selects the operation with the greatest timestamp.
func Latest() OperationResolution {
	return OperationResolution{Kind: UseLatest}
}

// MergeOf applies ops in order and keeps their combined effect.
func MergeOf(ops []changes.TableOperation) OperationResolution {
	return OperationResolution{Kind: Merge, Ops: ops}
}

// RejectWith refuses the conflicting operations.
func RejectWith(reason string) OperationResolution {
	return OperationResolution{Kind: Reject, Reason: reason}
}

// Resolution maps each conflicting RID to its decision.
type Resolution map[uint32]OperationResolution

// Resolver decides conflicts.
type Resolver interface {
	Resolve(conflicts []Conflict) (Resolution, error)
}

// Detect returns the conflicts in m's log ordered by RID.
func Detect(m *changes.TableModifications) []Conflict {
	if m == nil || m.IsReplaced() {
		return nil
	}
	byRID := make(map[uint32][]changes.TableOperation)
	for _, op := range m.Operations() {
		byRID[op.RID()] = append(byRID[op.RID()], op)
	}
	var out []Conflict
	for rid, ops := range byRID {
		if len(ops) < 2 {
			continue
		}
		c := Conflict{Kind: MultipleOperations, RID: rid, Operations: ops}
		if len(ops) == 2 {
			a, b := ops[0], ops[1]
			switch {
			case a.IsInsert() && b.IsDelete():
				c.Kind, c.Insert, c.Delete = InsertDelete, a, b
			case a.IsDelete() && b.IsInsert():
				c.Kind, c.Insert, c.Delete = InsertDelete, b, a
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RID < out[j].RID })
	return out
}

// latest returns the operation with the greatest timestamp; ties go to the
// later entry of the log.
func latest(ops []changes.TableOperation) changes.TableOperation {
	best := ops[0]
	for _, op := range ops[1:] {
		if op.Timestamp >= best.Timestamp {
			best = op
		}
	}
	return best
}

// earliest returns the operation with the smallest timestamp; ties go to
// the earlier entry of the log.
func earliest(ops []changes.TableOperation) changes.TableOperation {
	best := ops[0]
	for _, op := range ops[1:] {
		if op.Timestamp < best.Timestamp {
			best = op
		}
	}
	return best
}

// Apply rewrites m's log according to res and consolidates it so every RID
// keeps one final action. A Reject fails with KindInvalidOperation and
// leaves m untouched.
func Apply(m *changes.TableModifications, res Resolution) error {
	if m == nil || m.IsReplaced() {
		return nil
	}
	for rid, r := range res {
		if r.Kind == Reject {
			return errors.New(errors.PhasePlan, errors.KindInvalidOperation).
				Table(m.Table().String()).
				Token(uint32(tables.NewToken(m.Table(), rid))).
				Detail("conflicting operations rejected: %s", r.Reason).
				Cause(errors.Conflict(m.Table().String(), uint32(tables.NewToken(m.Table(), rid)), r.Reason)).
				Build()
		}
	}

	byRID := make(map[uint32][]changes.TableOperation)
	for _, op := range m.Operations() {
		byRID[op.RID()] = append(byRID[op.RID()], op)
	}
	var out []changes.TableOperation
	for rid, ops := range byRID {
		r, ok := res[rid]
		if !ok {
			out = append(out, ops...)
			continue
		}
		switch r.Kind {
		case UseOperation:
			out = append(out, r.Op)
		case UseLatest:
			out = append(out, latest(ops))
		case Merge:
			out = append(out, r.Ops...)
		}
	}
	m.SetOperations(out)
	m.Consolidate()
	return nil
}

// ResolveTable detects, resolves and applies conflicts of one table and
// returns how many conflicts were settled.
func ResolveTable(m *changes.TableModifications, r Resolver) (int, error) {
	conflicts := Detect(m)
	if len(conflicts) == 0 {
		m.Consolidate()
		return 0, nil
	}
	res, err := r.Resolve(conflicts)
	if err != nil {
		return 0, err
	}
	if err := Apply(m, res); err != nil {
		return 0, err
	}
	return len(conflicts), nil
}
