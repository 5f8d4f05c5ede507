package writer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/cilmeta/assembly"
	"github.com/wippyai/cilmeta/changes"
	"github.com/wippyai/cilmeta/conflict"
	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/heaps"
	"github.com/wippyai/cilmeta/tables"
)

const heapLargeMask = tables.HeapStringsLarge | tables.HeapGUIDLarge | tables.HeapBlobLarge

// Plan settles the pending log and fixes every size the later stages rely on.
func (w *Writer) Plan(ctx context.Context) error {
	if err := w.advance(stageNew, "Plan", errors.PhasePlan); err != nil {
		return err
	}
	defer w.metrics.observeStage("plan", time.Now())

	// conflict resolution and heap removals rewrite the log
	w.asm = w.asm.Clone()
	if err := w.resolveConflicts(ctx); err != nil {
		return err
	}
	if err := w.applyHeapRemovals(); err != nil {
		return err
	}
	if err := w.validatePending(); err != nil {
		return err
	}

	counts := make(map[tables.TableID]uint32)
	w.ridMaps = make(map[tables.TableID]*changes.RIDMap)
	for _, id := range tables.AllTables() {
		m := changes.NewRIDMap(w.asm.Changes.Table(id), w.asm.RowCount(id))
		w.ridMaps[id] = m
		n := m.FinalCount()
		if n > tables.MaxRID {
			return errors.Overflow(errors.PhasePlan, id.String(), n, 3)
		}
		if n > 0 {
			counts[id] = n
		}
	}

	hs, ch := w.asm.Heaps, w.asm.Changes
	w.builders = heapBuilders{
		strings:     heaps.NewStringBuilder(hs.Strings.Data(), ch.Strings),
		blob:        heaps.NewBlobBuilder(hs.Blob.Data(), ch.Blobs),
		guid:        heaps.NewGUIDBuilder(hs.GUID.Data(), ch.GUIDs),
		userStrings: heaps.NewUserStringBuilder(hs.UserStrings.Data(), ch.UserStrings),
	}
	w.heapSizes = make(map[string]uint64, 4)
	for _, b := range w.builders.all() {
		size, err := b.CalculateSize()
		if err != nil {
			return errors.WriteLayoutFailed(errors.PhasePlan, "sizing "+b.HeapName(), err)
		}
		w.heapSizes[b.HeapName()] = size
	}

	orig := w.asm.Tables.Header.HeapSizes & heapLargeMask
	var flags uint8
	large := func(flag uint8, indexes uint64) {
		if orig&flag != 0 || tables.HeapLargeForSize(indexes) {
			flags |= flag
		}
	}
	large(tables.HeapStringsLarge, w.heapSizes[heaps.NameStrings])
	large(tables.HeapBlobLarge, w.heapSizes[heaps.NameBlob])
	large(tables.HeapGUIDLarge, w.heapSizes[heaps.NameGUID]/heaps.GUIDSize)

	w.info = tables.NewTableInfo(counts, flags)
	w.header = w.asm.Tables.Header
	if !ch.HasTableChanges() && flags == orig {
		w.trailer = w.asm.Tables.Trailer
	}
	w.tablesSize = tables.StreamSize(w.header, w.info)
	if w.trailer != nil {
		w.tablesSize += len(w.trailer)
	} else {
		w.tablesSize = (w.tablesSize + 3) &^ 3
	}

	w.log.Debug("plan complete",
		zap.Int("tables_bytes", w.tablesSize),
		zap.Uint64("strings_bytes", w.heapSizes[heaps.NameStrings]),
		zap.Uint64("blob_bytes", w.heapSizes[heaps.NameBlob]),
		zap.Uint8("heap_sizes", flags))
	return nil
}

func (w *Writer) resolveConflicts(ctx context.Context) error {
	for _, id := range tables.AllTables() {
		if err := ctx.Err(); err != nil {
			return err
		}
		m := w.asm.Changes.Table(id)
		if m == nil || m.IsReplaced() {
			continue
		}
		n, err := conflict.ResolveTable(m, w.resolver)
		if err != nil {
			return err
		}
		if n > 0 {
			w.metrics.conflictsResolved.WithLabelValues(id.String()).Add(float64(n))
			w.log.Debug("conflicts resolved", zap.String("table", id.String()), zap.Int("count", n))
		}
	}
	return nil
}

type heapRemovals struct {
	name     string
	removed  func(uint32) bool
	handling func(uint32) (changes.ReferenceHandling, bool)
}

// applyHeapRemovals enforces the reference handling of removed heap
// entries: FailIfReferenced aborts, RemoveReferences deletes the referring
// rows. NullifyReferences is applied by Build.
func (w *Writer) applyHeapRemovals() error {
	ch := w.asm.Changes
	byHeap := make(map[tables.Heap]heapRemovals)
	if ch.Strings.HasRemovals() {
		byHeap[tables.HeapStrings] = heapRemovals{heaps.NameStrings, ch.Strings.IsRemoved, ch.Strings.Handling}
	}
	if ch.Blobs.HasRemovals() {
		byHeap[tables.HeapBlob] = heapRemovals{heaps.NameBlob, ch.Blobs.IsRemoved, ch.Blobs.Handling}
	}
	if ch.GUIDs.HasRemovals() {
		byHeap[tables.HeapGUID] = heapRemovals{heaps.NameGUID, ch.GUIDs.IsRemoved, ch.GUIDs.Handling}
	}
	if len(byHeap) == 0 {
		return nil
	}

	for _, id := range tables.AllTables() {
		rows, err := assembly.LiveRows(w.asm, id)
		if err != nil {
			return err
		}
	next:
		for _, row := range rows {
			for _, col := range tables.Columns(row) {
				h, ok := col.Heap()
				if !ok {
					continue
				}
				r, ok := byHeap[h]
				v := col.Value()
				if !ok || v == 0 || !r.removed(v) {
					continue
				}
				handling, _ := r.handling(v)
				switch handling {
				case changes.FailIfReferenced:
					return errors.New(errors.PhasePlan, errors.KindInvalidOperation).
						Table(id.String()).
						Field(col.Name).
						Token(uint32(row.Header().Token)).
						Detail("references removed %s entry %d", r.name, v).
						Build()
				case changes.RemoveReferences:
					if err := w.deleteRow(id, row); err != nil {
						return err
					}
					continue next
				}
			}
		}
	}
	return nil
}

func (w *Writer) deleteRow(id tables.TableID, row tables.Row) error {
	m := w.asm.Changes.TableFor(id, w.asm.RowCount(id))
	if m.IsReplaced() {
		return errors.New(errors.PhasePlan, errors.KindInvalidOperation).
			Table(id.String()).
			Token(uint32(row.Header().Token)).
			Detail("cannot remove a row of a replaced table").
			Build()
	}
	rid := row.Header().RID
	if err := m.Apply(changes.NewTableOperation(changes.NewDelete(rid))); err != nil {
		return err
	}
	w.log.Debug("row removed with heap entry", zap.Stringer("token", tables.NewToken(id, rid)))
	return nil
}

// validatePending checks every row the log introduces.
func (w *Writer) validatePending() error {
	for _, id := range tables.AllTables() {
		m := w.asm.Changes.Table(id)
		if m == nil {
			continue
		}
		if m.IsReplaced() {
			for _, row := range m.ReplacedRows() {
				if err := tables.ValidateRow(row, errors.PhasePlan); err != nil {
					return err
				}
			}
			continue
		}
		for _, op := range m.Operations() {
			if op.Op.Row == nil {
				continue
			}
			if err := tables.ValidateRow(op.Op.Row, errors.PhasePlan); err != nil {
				return err
			}
		}
	}
	return nil
}
