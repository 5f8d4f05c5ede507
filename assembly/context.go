package assembly

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/wippyai/cilmeta/changes"
	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/internal/logging"
	"github.com/wippyai/cilmeta/tables"
)

// BuilderContext records edits against one Assembly. It is not safe for
// concurrent use.
type BuilderContext struct {
	asm     *Assembly
	session ksuid.KSUID
	log     *zap.Logger

	// strings added through StringGetOrAdd in this session
	interned map[string]uint32
}

// NewBuilderContext starts an edit session on asm.
func NewBuilderContext(asm *Assembly) *BuilderContext {
	id := ksuid.New()
	c := &BuilderContext{
		asm:      asm,
		session:  id,
		log:      logging.Named("assembly").With(zap.String("session", id.String())),
		interned: make(map[string]uint32),
	}
	c.log.Debug("builder session started")
	return c
}

// Session returns the session identifier used in logs.
func (c *BuilderContext) Session() string {
	return c.session.String()
}

// Assembly returns the image being edited.
func (c *BuilderContext) Assembly() *Assembly {
	return c.asm
}

func (c *BuilderContext) mods(table tables.TableID) *changes.TableModifications {
	return c.asm.Changes.TableFor(table, c.asm.RowCount(table))
}

// NextRID returns the RID the next TableRowAdd on table assigns.
func (c *BuilderContext) NextRID(table tables.TableID) uint32 {
	if m := c.asm.Changes.Table(table); m != nil {
		return m.NextRID()
	}
	return c.asm.RowCount(table) + 1
}

// TableRowAdd appends row to table and returns its token.
func (c *BuilderContext) TableRowAdd(table tables.TableID, row tables.Row) (tables.Token, error) {
	if row == nil {
		return 0, errors.InvalidOperation(table.String(), "row", "nil row")
	}
	if row.TableID() != table {
		return 0, errors.InvalidOperation(table.String(), "row",
			fmt.Sprintf("row belongs to %s", row.TableID()))
	}
	m := c.mods(table)

	var rid uint32
	if m.IsReplaced() {
		var err error
		if rid, err = m.AppendRow(row); err != nil {
			return 0, err
		}
	} else {
		rid = m.NextRID()
		if err := m.Apply(changes.NewTableOperation(changes.NewInsert(rid, row))); err != nil {
			return 0, err
		}
	}
	tok := tables.NewToken(table, rid)
	h := row.Header()
	h.RID, h.Token = rid, tok
	c.log.Debug("row added", zap.Stringer("token", tok))
	return tok, nil
}

// TableRowUpdate replaces the row at rid.
func (c *BuilderContext) TableRowUpdate(table tables.TableID, rid uint32, row tables.Row) error {
	if row == nil {
		return errors.InvalidOperation(table.String(), "row", "nil row")
	}
	m := c.mods(table)
	if m.IsReplaced() {
		return errors.InvalidOperation(table.String(), "rid", "cannot update rows of a replaced table")
	}
	if err := m.Apply(changes.NewTableOperation(changes.NewUpdate(rid, row))); err != nil {
		return err
	}
	h := row.Header()
	h.RID, h.Token = rid, tables.NewToken(table, rid)
	c.log.Debug("row updated", zap.Stringer("token", h.Token))
	return nil
}

// TableRowRemove deletes the row at rid. FailIfReferenced refuses when any
// live row still points at it; RemoveReferences also deletes the rows that
// point at it; NullifyReferences leaves the pointers for the writer to
// clear.
func (c *BuilderContext) TableRowRemove(table tables.TableID, rid uint32, handling changes.ReferenceHandling) error {
	m := c.mods(table)
	if m.IsReplaced() {
		return errors.InvalidOperation(table.String(), "rid", "cannot remove rows of a replaced table")
	}
	op := changes.NewTableOperation(changes.NewDelete(rid))
	if err := m.Validate(op); err != nil {
		return err
	}

	target := tables.NewToken(table, rid)
	var referrers []tables.Token
	if handling != changes.NullifyReferences {
		var err error
		if referrers, err = c.rowReferrers(target); err != nil {
			return err
		}
	}
	if handling == changes.FailIfReferenced && len(referrers) > 0 {
		return errors.New(errors.PhaseModify, errors.KindInvalidOperation).
			Table(table.String()).
			Token(uint32(target)).
			Detail("row is referenced by %s", referrers[0]).
			Build()
	}

	if err := m.Apply(op); err != nil {
		return err
	}
	c.log.Debug("row removed", zap.Stringer("token", target), zap.Stringer("handling", handling))

	if handling == changes.RemoveReferences {
		for _, ref := range referrers {
			if ref == target || !c.mods(ref.Table()).HasRow(ref.RID()) {
				continue
			}
			if err := c.TableRowRemove(ref.Table(), ref.RID(), changes.RemoveReferences); err != nil {
				return err
			}
		}
	}
	return nil
}

// LiveRows returns the rows of table as they will be written: source rows
// with updates applied and deletions dropped, then inserted rows.
func (c *BuilderContext) LiveRows(table tables.TableID) ([]tables.Row, error) {
	return LiveRows(c.asm, table)
}

// LiveRows returns the rows of table with the pending log applied.
func LiveRows(a *Assembly, table tables.TableID) ([]tables.Row, error) {
	m := a.Changes.Table(table)
	if m != nil && m.IsReplaced() {
		return m.ReplacedRows(), nil
	}
	src, err := a.Tables.Rows(table)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.HasModifications() {
		return src, nil
	}

	ridMap := changes.NewRIDMap(m, uint32(len(src)))
	out := make([]tables.Row, 0, ridMap.FinalCount())
	for _, rid := range ridMap.OldRIDs() {
		if final, ok := m.FinalOperation(rid); ok && final.Op.Row != nil {
			out = append(out, final.Op.Row)
			continue
		}
		out = append(out, src[rid-1])
	}
	return out, nil
}

// rowReferrers lists live rows that reference target through a table or
// coded column. List columns are ranges, not references, and are skipped.
func (c *BuilderContext) rowReferrers(target tables.Token) ([]tables.Token, error) {
	var out []tables.Token
	for _, id := range tables.AllTables() {
		if c.asm.RowCount(id) == 0 && c.asm.Changes.Table(id) == nil {
			continue
		}
		rows, err := c.LiveRows(id)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			for _, col := range tables.Columns(row) {
				if col.List {
					continue
				}
				ref, ok := col.RefTable()
				if ok && ref == target.Table() && col.Value() == target.RID() {
					out = append(out, row.Header().Token)
					break
				}
			}
		}
	}
	return out, nil
}

// heapReferrers lists live rows with a column indexing heap at index.
func (c *BuilderContext) heapReferrers(heap tables.Heap, index uint32) ([]tables.Token, error) {
	var out []tables.Token
	for _, id := range tables.AllTables() {
		if c.asm.RowCount(id) == 0 && c.asm.Changes.Table(id) == nil {
			continue
		}
		rows, err := c.LiveRows(id)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			for _, col := range tables.Columns(row) {
				if h, ok := col.Heap(); ok && h == heap && col.Value() == index {
					out = append(out, row.Header().Token)
					break
				}
			}
		}
	}
	return out, nil
}
