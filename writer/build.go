package writer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/cilmeta/assembly"
	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/heaps"
	"github.com/wippyai/cilmeta/tables"
)

// listPtr maps a list target to the indirection table that replaces it in
// unoptimized (#-) streams.
var listPtr = map[tables.TableID]tables.TableID{
	tables.Field:     tables.FieldPtr,
	tables.MethodDef: tables.MethodPtr,
	tables.Param:     tables.ParamPtr,
	tables.Event:     tables.EventPtr,
	tables.Property:  tables.PropertyPtr,
}

// Build rebuilds the heaps, remaps every row and encodes the tables stream.
func (w *Writer) Build(ctx context.Context) error {
	if err := w.advance(stagePlanned, "Build", errors.PhaseBuild); err != nil {
		return err
	}
	defer w.metrics.observeStage("build", time.Now())

	if err := w.buildHeaps(ctx); err != nil {
		return err
	}
	if err := w.buildRows(ctx); err != nil {
		return err
	}

	data, err := tables.Encode(w.header, w.info, w.rows, w.trailer)
	if err != nil {
		return err
	}
	if len(data) != w.tablesSize {
		return errors.WriteLayoutFailed(errors.PhaseBuild,
			fmt.Sprintf("tables stream is %d bytes, planned %d", len(data), w.tablesSize), nil)
	}
	w.tablesStream = data
	for id, rows := range w.rows {
		w.metrics.rowsWritten.WithLabelValues(id.String()).Add(float64(len(rows)))
	}
	w.log.Debug("build complete", zap.Int("tables_bytes", len(data)))
	return nil
}

func (w *Writer) buildHeaps(ctx context.Context) error {
	w.heaps = make(map[string][]byte, 4)
	w.mappings = make(map[string]map[uint32]uint32, 4)

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, b := range w.builders.all() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			name := b.HeapName()
			data, err := b.Build()
			if err != nil {
				return err
			}
			if uint64(len(data)) != w.heapSizes[name] {
				return errors.WriteLayoutFailed(errors.PhaseBuild,
					fmt.Sprintf("%s is %d bytes, planned %d", name, len(data), w.heapSizes[name]), nil)
			}
			mappings := b.IndexMappings()

			mu.Lock()
			w.heaps[name] = data
			w.mappings[name] = mappings
			mu.Unlock()

			w.metrics.heapBytes.WithLabelValues(name).Set(float64(len(data)))
			return nil
		})
	}
	return g.Wait()
}

func (w *Writer) buildRows(ctx context.Context) error {
	var built [tables.MaxTables][]tables.Row

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Workers)
	for _, id := range tables.AllTables() {
		if w.ridMaps[id].FinalCount() == 0 {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := w.finalRows(id)
			if err != nil {
				return err
			}
			built[id] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.rows = make(map[tables.TableID][]tables.Row)
	for _, id := range tables.AllTables() {
		if built[id] != nil {
			w.rows[id] = built[id]
		}
	}
	return nil
}

// finalRows returns copies of the live rows of id with final RIDs and every
// index remapped.
func (w *Writer) finalRows(id tables.TableID) ([]tables.Row, error) {
	live, err := assembly.LiveRows(w.asm, id)
	if err != nil {
		return nil, err
	}
	if want := w.ridMaps[id].FinalCount(); uint32(len(live)) != want {
		return nil, errors.WriteLayoutFailed(errors.PhaseBuild,
			fmt.Sprintf("table %s has %d live rows, plan expects %d", id, len(live), want), nil)
	}
	out := make([]tables.Row, len(live))
	for i, row := range live {
		c := tables.CloneRow(row)
		h := c.Header()
		h.RID = uint32(i + 1)
		h.Token = tables.NewToken(id, h.RID)
		w.remap(c, row.Header().Token)
		out[i] = c
	}
	return out, nil
}

func (w *Writer) remap(row tables.Row, source tables.Token) {
	for _, col := range tables.Columns(row) {
		v := col.Value()
		if v == 0 {
			continue
		}
		if h, ok := col.Heap(); ok {
			col.Set(w.mapHeap(h, v, source, col.Name))
			continue
		}
		target, ok := col.RefTable()
		if !ok {
			continue
		}
		if col.List {
			col.Set(w.mapList(target, v))
			continue
		}
		m := w.ridMaps[target]
		if m == nil || m.Identity() {
			continue
		}
		if n, ok := m.Map(v); ok {
			col.Set(n)
			continue
		}
		if m.IsDeleted(v) {
			col.Set(0)
			w.metrics.referencesCleared.WithLabelValues(target.String()).Inc()
			w.log.Warn("reference to deleted row cleared",
				zap.Stringer("token", source),
				zap.String("field", col.Name),
				zap.Stringer("target", tables.NewToken(target, v)))
		}
	}
}

func (w *Writer) mapHeap(h tables.Heap, v uint32, source tables.Token, field string) uint32 {
	var name string
	var removed bool
	switch h {
	case tables.HeapStrings:
		name, removed = heaps.NameStrings, w.asm.Changes.Strings.IsRemoved(v)
	case tables.HeapBlob:
		name, removed = heaps.NameBlob, w.asm.Changes.Blobs.IsRemoved(v)
	case tables.HeapGUID:
		name, removed = heaps.NameGUID, w.asm.Changes.GUIDs.IsRemoved(v)
	}
	if removed {
		w.metrics.referencesCleared.WithLabelValues(name).Inc()
		w.log.Debug("reference to removed heap entry cleared",
			zap.Stringer("token", source),
			zap.String("field", field),
			zap.String("heap", name),
			zap.Uint32("index", v))
		return 0
	}
	if n, ok := w.mappings[name][v]; ok {
		return n
	}
	return v
}

func (w *Writer) mapList(target tables.TableID, v uint32) uint32 {
	if ptr, ok := listPtr[target]; ok && w.ridMaps[ptr].FinalCount() > 0 {
		target = ptr
	}
	m := w.ridMaps[target]
	if m.Identity() {
		return v
	}
	return m.MapList(v)
}
